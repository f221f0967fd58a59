package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trivialWorkflow() *Workflow {
	return &Workflow{
		ID:          "wf1",
		StartNodeID: "done",
		Nodes: map[string]Node{
			"done": {ID: "done", Kind: KindEnd, ExitStatus: ExitSuccess},
		},
	}
}

func TestValidateTrivialWorkflow(t *testing.T) {
	w := trivialWorkflow()
	require.NoError(t, w.Validate())
}

func TestValidateMissingStartNode(t *testing.T) {
	w := trivialWorkflow()
	w.StartNodeID = "missing"
	err := w.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start node")
}

func TestValidateUnknownTransitionTarget(t *testing.T) {
	w := &Workflow{
		ID:          "wf2",
		StartNodeID: "n1",
		Nodes: map[string]Node{
			"n1": {
				ID:   "n1",
				Kind: KindStandard,
				Transitions: []TransitionRule{
					{Kind: TransitionSuccess, SuccessTarget: "nonexistent"},
				},
			},
		},
	}
	err := w.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestValidateAllowsTerminalTarget(t *testing.T) {
	w := &Workflow{
		ID:          "wf3",
		StartNodeID: "n1",
		Nodes: map[string]Node{
			"n1": {
				ID:   "n1",
				Kind: KindStandard,
				Transitions: []TransitionRule{
					{Kind: TransitionSuccess, SuccessTarget: Terminal},
				},
			},
		},
	}
	require.NoError(t, w.Validate())
}

func TestValidateLoopRequiresBodyAndMaxIterations(t *testing.T) {
	w := &Workflow{
		ID:          "wf4",
		StartNodeID: "loop1",
		Nodes: map[string]Node{
			"loop1": {ID: "loop1", Kind: KindLoop, BodyNodeID: "body", MaxIterations: 0},
			"body":  {ID: "body", Kind: KindEnd, ExitStatus: ExitSuccess},
		},
	}
	err := w.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxIterations")
}

func TestValidateParallelRequiresChildren(t *testing.T) {
	w := &Workflow{
		ID:          "wf5",
		StartNodeID: "p1",
		Nodes: map[string]Node{
			"p1": {ID: "p1", Kind: KindParallel},
		},
	}
	err := w.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no children")
}

func TestValidateScoreClauseTargets(t *testing.T) {
	w := &Workflow{
		ID:          "wf6",
		StartNodeID: "n1",
		Nodes: map[string]Node{
			"n1": {
				ID:   "n1",
				Kind: KindStandard,
				Transitions: []TransitionRule{
					{Kind: TransitionScore, ScoreClauses: []ScoreClause{
						{Operator: OpGTE, Value: 70, Target: "end"},
						{Operator: OpLT, Value: 70, Target: "n1"},
					}},
				},
			},
			"end": {ID: "end", Kind: KindEnd, ExitStatus: ExitSuccess},
		},
	}
	require.NoError(t, w.Validate())
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("wf1", "unknown agent id")
	assert.Equal(t, "workflow wf1: config error: unknown agent id", err.Error())
}
