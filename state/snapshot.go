package state

import (
	"encoding/json"
	"fmt"

	"github.com/hensu-project/hensu-sub006/rubric"
)

// Snapshot is an immutable, deep-copied serialization of a State sufficient
// to resume the driver loop. Its Context map never aliases the source
// State's map — mutating one after Snapshot() returns never affects the
// other.
type Snapshot struct {
	ExecutionID   string
	WorkflowID    string
	CurrentNodeID string
	Context       map[string]any
	History       History
	RubricEval    *rubric.Evaluation
	RetryCount    int
	PendingResult *NodeResult
}

// Snapshot produces an immutable deep copy of s sufficient to resume.
func (s *State) Snapshot() (*Snapshot, error) {
	ctxCopy, err := deepCopyContext(s.Context)
	if err != nil {
		return nil, fmt.Errorf("state: snapshot context: %w", err)
	}
	pending, err := copyNodeResult(s.PendingResult)
	if err != nil {
		return nil, fmt.Errorf("state: snapshot pending result: %w", err)
	}

	return &Snapshot{
		ExecutionID:   s.ExecutionID,
		WorkflowID:    s.WorkflowID,
		CurrentNodeID: s.CurrentNodeID,
		Context:       ctxCopy,
		History:       copyHistory(s.History),
		RubricEval:    copyEvaluation(s.RubricEval),
		RetryCount:    s.RetryCount,
		PendingResult: pending,
	}, nil
}

// Restore reconstructs a mutable State from an immutable Snapshot. The
// returned State's Context is independent of the Snapshot's.
func Restore(snap *Snapshot) (*State, error) {
	ctxCopy, err := deepCopyContext(snap.Context)
	if err != nil {
		return nil, fmt.Errorf("state: restore context: %w", err)
	}
	pending, err := copyNodeResult(snap.PendingResult)
	if err != nil {
		return nil, fmt.Errorf("state: restore pending result: %w", err)
	}

	return &State{
		ExecutionID:   snap.ExecutionID,
		WorkflowID:    snap.WorkflowID,
		CurrentNodeID: snap.CurrentNodeID,
		Context:       ctxCopy,
		History:       copyHistory(snap.History),
		RubricEval:    copyEvaluation(snap.RubricEval),
		RetryCount:    snap.RetryCount,
		PendingResult: pending,
	}, nil
}

// wireSnapshot mirrors the wire-stable shape from spec.md §6: content-only,
// no volatile fields, scores as 0-100 floats, timestamps as ISO-8601 UTC
// (left to encoding/json's default RFC3339 rendering of time.Time).
type wireSnapshot struct {
	ExecutionID   string             `json:"executionId"`
	WorkflowID    string             `json:"workflowId"`
	CurrentNodeID string             `json:"currentNodeId"`
	Context       map[string]any     `json:"context"`
	History       History            `json:"history"`
	RubricEval    *rubric.Evaluation `json:"rubricEvaluation,omitempty"`
	RetryCount    int                `json:"retryCount"`
	PendingResult *NodeResult        `json:"pendingResult,omitempty"`
}

// Encode serializes the Snapshot to its wire-stable JSON shape.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(wireSnapshot{
		ExecutionID:   s.ExecutionID,
		WorkflowID:    s.WorkflowID,
		CurrentNodeID: s.CurrentNodeID,
		Context:       s.Context,
		History:       s.History,
		RubricEval:    s.RubricEval,
		RetryCount:    s.RetryCount,
		PendingResult: s.PendingResult,
	})
}

// Decode parses a Snapshot from its wire-stable JSON shape. Decode(Encode(s))
// is equal to s on every field (the snapshot round-trip invariant from
// spec.md §8); the Context map never aliases any map the caller holds.
func Decode(data []byte) (*Snapshot, error) {
	var w wireSnapshot
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("state: decode snapshot: %w", err)
	}
	return &Snapshot{
		ExecutionID:   w.ExecutionID,
		WorkflowID:    w.WorkflowID,
		CurrentNodeID: w.CurrentNodeID,
		Context:       w.Context,
		History:       w.History,
		RubricEval:    w.RubricEval,
		RetryCount:    w.RetryCount,
		PendingResult: w.PendingResult,
	}, nil
}

func copyHistory(h History) History {
	steps := make([]Step, len(h.Steps))
	copy(steps, h.Steps)
	backs := make([]BacktrackEvent, len(h.Backtracks))
	copy(backs, h.Backtracks)
	return History{Steps: steps, Backtracks: backs}
}

func copyEvaluation(e *rubric.Evaluation) *rubric.Evaluation {
	if e == nil {
		return nil
	}
	cp := *e
	cp.PerCriterion = append([]rubric.CriterionScore(nil), e.PerCriterion...)
	cp.Recommendations = append([]string(nil), e.Recommendations...)
	return &cp
}

// copyNodeResult deep-copies r (including its Metadata map) via a JSON round
// trip, the same isolation technique deepCopyContext uses, so a Snapshot
// never aliases mutable state the driver holds.
func copyNodeResult(r *NodeResult) (*NodeResult, error) {
	if r == nil {
		return nil, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var out NodeResult
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// deepCopyContext produces an independent copy of a context map via a
// JSON round trip. This is more than a shallow map copy: it also severs
// aliasing into any nested maps/slices a node executor may have stored,
// satisfying the "no aliasing" snapshot invariant for arbitrarily nested
// context values, not just top-level ones.
func deepCopyContext(ctx map[string]any) (map[string]any, error) {
	if ctx == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(ctx))
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
