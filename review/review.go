// Package review implements the human-in-the-loop gate spec.md §4.5
// describes: a node paused for REQUIRED (or failure-triggered OPTIONAL)
// review is resumed only after a ReviewHandler converts a human decision
// into one of three state mutations.
package review

import (
	"context"
	"fmt"

	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// DecisionKind tags which Decision variant a ReviewHandler returned.
type DecisionKind string

const (
	Approve   DecisionKind = "APPROVE"
	Backtrack DecisionKind = "BACKTRACK"
	Reject    DecisionKind = "REJECT"
)

// Decision is a human reviewer's verdict on a paused node.
type Decision struct {
	Kind DecisionKind

	// Backtrack
	ToStepID string

	Reason string
}

// Handler is the capability spec.md §6 names: given the paused node, its
// result, the full execution state and history, its review configuration,
// and the owning workflow, return a Decision. Implementations typically
// surface the pause to a human operator and block until they respond.
type Handler interface {
	RequestReview(ctx context.Context, node workflow.Node, result state.NodeResult, st *state.State, cfg workflow.ReviewConfig, wf *workflow.Workflow) (Decision, error)
}

// Outcome is the result of applying a Decision to a paused Snapshot.
type Outcome struct {
	Snapshot *state.Snapshot
	// Terminal is true when applying the decision ends the execution
	// immediately (Reject) rather than letting the driver continue from
	// Snapshot.CurrentNodeID.
	Terminal   bool
	ExitStatus workflow.ExitStatus
}

// Apply converts decision, made about the node fromNodeID paused on, into
// the Snapshot mutation spec.md §4.5 describes:
//
//	Approve   -> no state change; the driver resumes by re-evaluating
//	             fromNodeID's transitions against the original result.
//	Backtrack -> currentNodeId reset to decision.ToStepID; history above
//	             that step is trimmed; a BacktrackEvent of type REVIEW is
//	             appended.
//	Reject    -> currentNodeId set to the terminal sentinel; the execution
//	             ends with exit status FAILURE.
func Apply(snap *state.Snapshot, fromNodeID string, decision Decision) (*Outcome, error) {
	switch decision.Kind {
	case Approve:
		return &Outcome{Snapshot: snap}, nil

	case Backtrack:
		next := *snap
		next.History = next.History.AppendBacktrack(state.BacktrackEvent{
			FromNodeID: fromNodeID,
			ToNodeID:   decision.ToStepID,
			Reason:     decision.Reason,
			Type:       state.BacktrackReview,
		})
		next.History = next.History.TrimAbove(decision.ToStepID)
		next.CurrentNodeID = decision.ToStepID
		next.PendingResult = nil
		return &Outcome{Snapshot: &next}, nil

	case Reject:
		next := *snap
		next.CurrentNodeID = workflow.Terminal
		next.PendingResult = nil
		return &Outcome{Snapshot: &next, Terminal: true, ExitStatus: workflow.ExitFailure}, nil

	default:
		return nil, fmt.Errorf("review: unknown decision kind %q", decision.Kind)
	}
}

// Required reports whether cfg gates node completion behind a review,
// given whether the node's own result succeeded: REQUIRED always gates;
// OPTIONAL gates only on a failing result.
func Required(cfg *workflow.ReviewConfig, result state.NodeResult) bool {
	if cfg == nil {
		return false
	}
	switch cfg.Mode {
	case workflow.ReviewRequired:
		return true
	case workflow.ReviewOnFailure:
		return result.Status == state.StatusFailure
	default:
		return false
	}
}
