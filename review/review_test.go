package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

func TestRequired_NilConfigNeverGates(t *testing.T) {
	assert.False(t, Required(nil, state.NodeResult{Status: state.StatusSuccess}))
	assert.False(t, Required(nil, state.NodeResult{Status: state.StatusFailure}))
}

func TestRequired_ModeRequiredAlwaysGates(t *testing.T) {
	cfg := &workflow.ReviewConfig{Mode: workflow.ReviewRequired}
	assert.True(t, Required(cfg, state.NodeResult{Status: state.StatusSuccess}))
	assert.True(t, Required(cfg, state.NodeResult{Status: state.StatusFailure}))
}

func TestRequired_ModeOnFailureGatesOnlyOnFailure(t *testing.T) {
	cfg := &workflow.ReviewConfig{Mode: workflow.ReviewOnFailure}
	assert.False(t, Required(cfg, state.NodeResult{Status: state.StatusSuccess}))
	assert.True(t, Required(cfg, state.NodeResult{Status: state.StatusFailure}))
}

func baseSnapshot() *state.Snapshot {
	return &state.Snapshot{
		ExecutionID:   "exec-1",
		WorkflowID:    "wf-1",
		CurrentNodeID: "n2",
		Context:       map[string]any{},
		History: state.History{
			Steps: []state.Step{{NodeID: "n1"}, {NodeID: "n2"}},
		},
	}
}

func TestApply_ApproveIsNoOp(t *testing.T) {
	snap := baseSnapshot()
	out, err := Apply(snap, "n2", Decision{Kind: Approve})
	require.NoError(t, err)
	assert.False(t, out.Terminal)
	assert.Equal(t, snap, out.Snapshot)
}

func TestApply_BacktrackResetsNodeAndTrimsHistory(t *testing.T) {
	snap := baseSnapshot()
	out, err := Apply(snap, "n2", Decision{Kind: Backtrack, ToStepID: "n1", Reason: "needs rework"})
	require.NoError(t, err)
	assert.False(t, out.Terminal)
	assert.Equal(t, "n1", out.Snapshot.CurrentNodeID)
	require.Len(t, out.Snapshot.History.Steps, 1)
	assert.Equal(t, "n1", out.Snapshot.History.Steps[0].NodeID)
	require.Len(t, out.Snapshot.History.Backtracks, 1)
	assert.Equal(t, state.BacktrackReview, out.Snapshot.History.Backtracks[0].Type)
	assert.Equal(t, "n2", out.Snapshot.History.Backtracks[0].FromNodeID)
	assert.Equal(t, "n1", out.Snapshot.History.Backtracks[0].ToNodeID)
}

func TestApply_BacktrackDoesNotMutateOriginalSnapshot(t *testing.T) {
	snap := baseSnapshot()
	originalSteps := len(snap.History.Steps)
	_, err := Apply(snap, "n2", Decision{Kind: Backtrack, ToStepID: "n1"})
	require.NoError(t, err)
	assert.Len(t, snap.History.Steps, originalSteps, "Apply must not mutate the input Snapshot")
}

func TestApply_RejectTerminatesWithFailure(t *testing.T) {
	snap := baseSnapshot()
	out, err := Apply(snap, "n2", Decision{Kind: Reject, Reason: "not good enough"})
	require.NoError(t, err)
	assert.True(t, out.Terminal)
	assert.Equal(t, workflow.ExitFailure, out.ExitStatus)
	assert.Equal(t, workflow.Terminal, out.Snapshot.CurrentNodeID)
}

func TestApply_UnknownDecisionKindErrors(t *testing.T) {
	_, err := Apply(baseSnapshot(), "n2", Decision{Kind: "BOGUS"})
	require.Error(t, err)
}
