package transition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hensu-project/hensu-sub006/rubric"
	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

func TestNext_SuccessRule(t *testing.T) {
	node := workflow.Node{
		ID: "n1",
		Transitions: []workflow.TransitionRule{
			{Kind: workflow.TransitionSuccess, SuccessTarget: "n2"},
		},
	}
	target, err := New().Next(node, state.NodeResult{Status: state.StatusSuccess}, &state.State{})
	require.NoError(t, err)
	assert.Equal(t, "n2", target)
}

func TestNext_FailureRuleRetargetsSelfUntilRetryLimit(t *testing.T) {
	node := workflow.Node{
		ID: "n1",
		Transitions: []workflow.TransitionRule{
			{Kind: workflow.TransitionFailure, RetryCount: 2, FailTarget: "end"},
		},
	}
	e := New()

	st := &state.State{RetryCount: 0}
	target, err := e.Next(node, state.NodeResult{Status: state.StatusFailure}, st)
	require.NoError(t, err)
	assert.Equal(t, "n1", target, "first failure retries the same node")

	st.RetryCount = 1
	target, err = e.Next(node, state.NodeResult{Status: state.StatusFailure}, st)
	require.NoError(t, err)
	assert.Equal(t, "n1", target, "second failure still within retry limit")

	st.RetryCount = 2
	target, err = e.Next(node, state.NodeResult{Status: state.StatusFailure}, st)
	require.NoError(t, err)
	assert.Equal(t, "end", target, "retry limit exhausted falls through to FailTarget")
}

func TestNext_ScoreRuleFirstMatchWins(t *testing.T) {
	node := workflow.Node{
		ID: "n1",
		Transitions: []workflow.TransitionRule{
			{Kind: workflow.TransitionScore, ScoreClauses: []workflow.ScoreClause{
				{Operator: workflow.OpGTE, Value: 70, Target: "end"},
				{Operator: workflow.OpLT, Value: 70, Target: "n1"},
			}},
		},
	}
	e := New()

	target, err := e.Next(node, state.NodeResult{Status: state.StatusSuccess}, &state.State{
		RubricEval: &rubric.Evaluation{Score: 85},
	})
	require.NoError(t, err)
	assert.Equal(t, "end", target)

	target, err = e.Next(node, state.NodeResult{Status: state.StatusSuccess}, &state.State{
		RubricEval: &rubric.Evaluation{Score: 40},
	})
	require.NoError(t, err)
	assert.Equal(t, "n1", target)
}

func TestNext_ScoreRuleRange(t *testing.T) {
	node := workflow.Node{
		ID: "n1",
		Transitions: []workflow.TransitionRule{
			{Kind: workflow.TransitionScore, ScoreClauses: []workflow.ScoreClause{
				{Operator: workflow.OpRange, Low: 50, High: 75, Target: "mid"},
			}},
		},
	}
	target, err := New().Next(node, state.NodeResult{Status: state.StatusSuccess}, &state.State{
		RubricEval: &rubric.Evaluation{Score: 60},
	})
	require.NoError(t, err)
	assert.Equal(t, "mid", target)
}

func TestNext_ScoreRuleSkippedWithoutRubricEval(t *testing.T) {
	node := workflow.Node{
		ID: "n1",
		Transitions: []workflow.TransitionRule{
			{Kind: workflow.TransitionScore, ScoreClauses: []workflow.ScoreClause{
				{Operator: workflow.OpGTE, Value: 0, Target: "end"},
			}},
		},
	}
	_, err := New().Next(node, state.NodeResult{Status: state.StatusSuccess}, &state.State{})
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestNext_ConsensusFailsClosed(t *testing.T) {
	node := workflow.Node{
		ID:          "n1",
		Transitions: []workflow.TransitionRule{{Kind: workflow.TransitionConsensus, ConsensusTarget: "end"}},
	}
	_, err := New().Next(node, state.NodeResult{Status: state.StatusSuccess}, &state.State{})
	assert.True(t, errors.Is(err, ErrUnsupportedTransition))
}

func TestNext_NoRuleMatches(t *testing.T) {
	node := workflow.Node{
		ID: "n1",
		Transitions: []workflow.TransitionRule{
			{Kind: workflow.TransitionSuccess, SuccessTarget: "end"},
		},
	}
	_, err := New().Next(node, state.NodeResult{Status: state.StatusFailure}, &state.State{})
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestNext_DeclarationOrderFirstMatchWins(t *testing.T) {
	node := workflow.Node{
		ID: "n1",
		Transitions: []workflow.TransitionRule{
			{Kind: workflow.TransitionSuccess, SuccessTarget: "first"},
			{Kind: workflow.TransitionSuccess, SuccessTarget: "second"},
		},
	}
	target, err := New().Next(node, state.NodeResult{Status: state.StatusSuccess}, &state.State{})
	require.NoError(t, err)
	assert.Equal(t, "first", target)
}
