package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hensu-project/hensu-sub006/rubric"
	"github.com/hensu-project/hensu-sub006/workflow"
)

func TestNewStartsAtStartNode(t *testing.T) {
	s := New("wf-1", "n1", map[string]any{"k": "v"})
	assert.Equal(t, "wf-1", s.WorkflowID)
	assert.Equal(t, "n1", s.CurrentNodeID)
	assert.False(t, s.IsTerminal())
	assert.NotEmpty(t, s.ExecutionID)
	assert.Equal(t, "v", s.Context["k"])
}

func TestNewCopiesInitialContext(t *testing.T) {
	initial := map[string]any{"k": "v"}
	s := New("wf-1", "n1", initial)
	s.Context["k"] = "changed"
	assert.Equal(t, "v", initial["k"], "State.New must not alias the caller's map")
}

func TestIsTerminal(t *testing.T) {
	s := New("wf-1", "n1", nil)
	s.CurrentNodeID = workflow.Terminal
	assert.True(t, s.IsTerminal())
}

func TestHistoryAppendStepDoesNotMutateOriginal(t *testing.T) {
	h := History{}
	h2 := h.AppendStep(Step{NodeID: "n1", Result: NodeResult{Status: StatusSuccess}})
	assert.Empty(t, h.Steps, "AppendStep must return a new History, not mutate the receiver")
	require.Len(t, h2.Steps, 1)
	assert.Equal(t, "n1", h2.Steps[0].NodeID)
}

func TestHistoryAppendBacktrackDoesNotMutateOriginal(t *testing.T) {
	h := History{}
	h2 := h.AppendBacktrack(BacktrackEvent{FromNodeID: "a", ToNodeID: "b", Type: BacktrackReview})
	assert.Empty(t, h.Backtracks)
	require.Len(t, h2.Backtracks, 1)
}

func TestHistoryTrimAboveDropsStepsAfterTarget(t *testing.T) {
	h := History{Steps: []Step{
		{NodeID: "a"}, {NodeID: "b"}, {NodeID: "c"},
	}}
	trimmed := h.TrimAbove("b")
	require.Len(t, trimmed.Steps, 2)
	assert.Equal(t, "a", trimmed.Steps[0].NodeID)
	assert.Equal(t, "b", trimmed.Steps[1].NodeID)
}

func TestHistoryTrimAboveUnknownTargetIsNoOp(t *testing.T) {
	h := History{Steps: []Step{{NodeID: "a"}}}
	trimmed := h.TrimAbove("missing")
	assert.Equal(t, h, trimmed)
}

// TestSnapshotRoundTrip checks spec.md §8's snapshot round-trip invariant:
// decode(encode(s)) == s on every field.
func TestSnapshotRoundTrip(t *testing.T) {
	s := New("wf-1", "n1", map[string]any{"a": 1.0, "nested": map[string]any{"b": "c"}})
	s.History = s.History.AppendStep(Step{NodeID: "n1", Result: NodeResult{Status: StatusSuccess, Output: "ok"}})
	s.RubricEval = &rubric.Evaluation{RubricID: "r1", Score: 87, Passed: true}
	s.RetryCount = 2

	snap, err := s.Snapshot()
	require.NoError(t, err)

	data, err := snap.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, snap.ExecutionID, decoded.ExecutionID)
	assert.Equal(t, snap.WorkflowID, decoded.WorkflowID)
	assert.Equal(t, snap.CurrentNodeID, decoded.CurrentNodeID)
	assert.Equal(t, snap.Context, decoded.Context)
	assert.Equal(t, snap.History, decoded.History)
	assert.Equal(t, snap.RubricEval, decoded.RubricEval)
	assert.Equal(t, snap.RetryCount, decoded.RetryCount)
}

func TestSnapshotContextDoesNotAliasSourceState(t *testing.T) {
	s := New("wf-1", "n1", map[string]any{"k": map[string]any{"nested": "v"}})
	snap, err := s.Snapshot()
	require.NoError(t, err)

	nested := s.Context["k"].(map[string]any)
	nested["nested"] = "mutated"

	snapNested := snap.Context["k"].(map[string]any)
	assert.Equal(t, "v", snapNested["nested"], "Snapshot must deep-copy nested context values")
}

func TestRestoreContextDoesNotAliasSnapshot(t *testing.T) {
	s := New("wf-1", "n1", map[string]any{"k": "v"})
	snap, err := s.Snapshot()
	require.NoError(t, err)

	restored, err := Restore(snap)
	require.NoError(t, err)
	restored.Context["k"] = "changed"

	assert.Equal(t, "v", snap.Context["k"])
}

func TestRestorePreservesPendingResult(t *testing.T) {
	s := New("wf-1", "n1", nil)
	s.PendingResult = &NodeResult{Status: StatusSuccess, Output: "paused output"}
	snap, err := s.Snapshot()
	require.NoError(t, err)

	restored, err := Restore(snap)
	require.NoError(t, err)
	require.NotNil(t, restored.PendingResult)
	assert.Equal(t, "paused output", restored.PendingResult.Output)
}
