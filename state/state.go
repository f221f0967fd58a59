// Package state defines per-execution mutable state, its append-only
// history, and the immutable Snapshot used to pause, persist, and resume an
// execution.
package state

import (
	"time"

	"github.com/google/uuid"
	"github.com/hensu-project/hensu-sub006/rubric"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// Status is the outcome of one node execution.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
	StatusPending Status = "PENDING"
	StatusEnd     Status = "END"
)

// NodeResult is what a NodeExecutor returns for one node dispatch. Error
// values that produced a Failure are never carried here — only their
// string Reason — so NodeResult is always safely serializable.
type NodeResult struct {
	Status   Status
	Output   string
	Reason   string // populated when Status == StatusFailure
	Metadata map[string]any
}

// BacktrackType tags why a BacktrackEvent happened.
type BacktrackType string

const (
	BacktrackReview        BacktrackType = "REVIEW"
	BacktrackRubricFail    BacktrackType = "RUBRIC_FAIL"
	BacktrackRetryExhausted BacktrackType = "RETRY_EXHAUSTED"
)

// BacktrackEvent records that currentNodeId was moved backward in the
// history rather than forward along a normal transition.
type BacktrackEvent struct {
	FromNodeID string
	ToNodeID   string
	Reason     string
	Type       BacktrackType
}

// Step is one append-only entry of an execution's history: a node was
// dispatched and produced a result.
type Step struct {
	NodeID    string
	Result    NodeResult
	Timestamp time.Time
}

// History is the two append-only sequences that make up an execution's
// record: steps taken and backtracks applied. Both only ever grow.
type History struct {
	Steps      []Step
	Backtracks []BacktrackEvent
}

// AppendStep appends a Step, returning a new History value so callers
// cannot retain a mutable alias into a State's history slice.
func (h History) AppendStep(s Step) History {
	steps := make([]Step, len(h.Steps), len(h.Steps)+1)
	copy(steps, h.Steps)
	steps = append(steps, s)
	return History{Steps: steps, Backtracks: h.Backtracks}
}

// AppendBacktrack appends a BacktrackEvent, returning a new History value.
func (h History) AppendBacktrack(b BacktrackEvent) History {
	backs := make([]BacktrackEvent, len(h.Backtracks), len(h.Backtracks)+1)
	copy(backs, h.Backtracks)
	backs = append(backs, b)
	return History{Steps: h.Steps, Backtracks: backs}
}

// TrimAbove returns a copy of h with every Step whose NodeID occurs after
// the first Step matching targetNodeID removed — used by a review
// Backtrack decision to drop history above the target step.
func (h History) TrimAbove(targetNodeID string) History {
	for i, s := range h.Steps {
		if s.NodeID == targetNodeID {
			steps := make([]Step, i+1)
			copy(steps, h.Steps[:i+1])
			return History{Steps: steps, Backtracks: h.Backtracks}
		}
	}
	return h
}

// State is the mutable, per-execution record the driver advances one node
// at a time. executionId and workflowId never change after construction;
// currentNodeId is always either a node id of the owning Workflow or
// workflow.Terminal.
type State struct {
	ExecutionID     string
	WorkflowID      string
	CurrentNodeID   string
	Context         map[string]any
	History         History
	RubricEval      *rubric.Evaluation
	RetryCount      int
	LoopBreakTarget string // empty when unset

	// PendingResult holds a node's already-computed, already-rubric-scored
	// result across a review pause: CurrentNodeID still names the paused
	// node, so on resume the driver must not re-dispatch it. Set only
	// while paused for review; nil otherwise.
	PendingResult *NodeResult
}

// New constructs the initial State for a fresh execution of workflowID,
// starting at startNodeID with the given initial context.
func New(workflowID, startNodeID string, initialContext map[string]any) *State {
	ctx := make(map[string]any, len(initialContext))
	for k, v := range initialContext {
		ctx[k] = v
	}
	return &State{
		ExecutionID:   NewExecutionID(),
		WorkflowID:    workflowID,
		CurrentNodeID: startNodeID,
		Context:       ctx,
		History:       History{},
	}
}

// NewExecutionID generates a fresh, globally unique execution id.
func NewExecutionID() string {
	return uuid.NewString()
}

// IsTerminal reports whether the state's currentNodeId is the terminal
// sentinel.
func (s *State) IsTerminal() bool {
	return s.CurrentNodeID == workflow.Terminal
}
