// Package engine drives one execution of one Workflow from its start node
// to a terminal outcome, implementing spec.md §4.1's single-step loop:
// dispatch, validate, score, gate on review, transition, checkpoint. It is
// the top-level entry point every other package in this module exists to
// serve.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hensu-project/hensu-sub006/action"
	"github.com/hensu-project/hensu-sub006/agent"
	"github.com/hensu-project/hensu-sub006/executor"
	"github.com/hensu-project/hensu-sub006/observer"
	"github.com/hensu-project/hensu-sub006/recovery"
	"github.com/hensu-project/hensu-sub006/repository"
	"github.com/hensu-project/hensu-sub006/review"
	"github.com/hensu-project/hensu-sub006/rubric"
	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/transition"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// ResultKind tags which Result variant an execution produced.
type ResultKind string

const (
	Completed ResultKind = "COMPLETED"
	Paused    ResultKind = "PAUSED"
	Failed    ResultKind = "FAILED"
)

// Result is what Execute/Resume return. Rejected is folded into Completed
// with ExitStatus == workflow.ExitFailure: a review.Apply Reject outcome is
// already terminal by construction (CurrentNodeID set to workflow.Terminal),
// so the driver reaches it the same way it reaches any other path that
// lands on the terminal sentinel, without a fourth case to branch on.
type Result struct {
	Kind ResultKind

	// Completed
	FinalState *state.State
	ExitStatus workflow.ExitStatus

	// Paused
	Snapshot *state.Snapshot
	Reason   string

	// Failed
	Err error
}

// Executor drives executions. One Executor is shared by every concurrent
// execution in a process; it holds no per-execution mutable state.
type Executor struct {
	Nodes       *executor.Registry
	Transitions *transition.Evaluator
	Rubrics     *rubric.Engine   // nil if no node in use configures a rubric
	Reviews     review.Handler   // nil if no node in use configures review
	Snapshots   repository.SnapshotRepository
	Leases      recovery.Manager // nil disables lease acquisition/release
	Agents      agent.Registry
	Actions     action.Registry
	Config      Config
}

// New constructs an Executor with cfg defaulted and validated.
func New(nodes *executor.Registry, transitions *transition.Evaluator, rubrics *rubric.Engine, reviews review.Handler, snapshots repository.SnapshotRepository, leases recovery.Manager, agents agent.Registry, actions action.Registry, cfg Config) (*Executor, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Executor{
		Nodes:       nodes,
		Transitions: transitions,
		Rubrics:     rubrics,
		Reviews:     reviews,
		Snapshots:   snapshots,
		Leases:      leases,
		Agents:      agents,
		Actions:     actions,
		Config:      cfg,
	}, nil
}

// Execute starts a brand new execution of wf at its start node, acquires a
// lease (if configured), and drives it to completion, a review pause, or a
// fatal failure.
func (e *Executor) Execute(ctx context.Context, tenantID string, wf *workflow.Workflow, initialContext map[string]any, obs observer.Observer) (*Result, error) {
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	st := state.New(wf.ID, wf.StartNodeID, initialContext)
	if obs == nil {
		obs = observer.NoOp{}
	}
	if e.Leases != nil {
		if err := e.Leases.Acquire(ctx, tenantID, st.ExecutionID, st.ExecutionID); err != nil {
			return &Result{Kind: Failed, Err: &SystemFailure{Op: "acquire lease", Err: err}}, nil
		}
	}
	return e.run(ctx, tenantID, st, wf, obs)
}

// Resume continues an execution from a previously checkpointed Snapshot —
// either because a sweeper reclaimed a stale lease, or because a caller
// converted a paused node's ReviewDecision into a mutated Snapshot via
// review.Apply. If that Snapshot is already terminal (a Reject outcome),
// callers should read Outcome.ExitStatus directly rather than calling
// Resume; Resume still handles it correctly by finalizing immediately.
func (e *Executor) Resume(ctx context.Context, tenantID string, snap *state.Snapshot, wf *workflow.Workflow, obs observer.Observer) (*Result, error) {
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	st, err := state.Restore(snap)
	if err != nil {
		return &Result{Kind: Failed, Err: &SystemFailure{Op: "restore snapshot", Err: err}}, nil
	}
	if obs == nil {
		obs = observer.NoOp{}
	}
	if e.Leases != nil {
		if err := e.Leases.Acquire(ctx, tenantID, st.ExecutionID, st.ExecutionID); err != nil {
			return &Result{Kind: Failed, Err: &SystemFailure{Op: "acquire lease", Err: err}}, nil
		}
	}
	return e.run(ctx, tenantID, st, wf, obs)
}

func (e *Executor) run(ctx context.Context, tenantID string, st *state.State, wf *workflow.Workflow, obs observer.Observer) (*Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return &Result{Kind: Failed, Err: err}, nil
		}

		if st.IsTerminal() {
			return e.finalize(ctx, tenantID, st, obs, workflow.ExitSuccess)
		}

		node, ok := wf.Nodes[st.CurrentNodeID]
		if !ok {
			return &Result{Kind: Failed, Err: &SystemFailure{Op: "dispatch", Err: fmt.Errorf("node %q not found", st.CurrentNodeID)}}, nil
		}

		// A Snapshot resumed after an Approve decision already carries the
		// gated node's result: CurrentNodeID still names that node (it
		// only advances once the result clears the review gate below), so
		// re-dispatching it here would re-invoke the node a second time.
		// Pick the result back up instead and skip straight past the
		// review gate this attempt already satisfied.
		if st.PendingResult != nil {
			result := st.PendingResult
			st.PendingResult = nil
			obs.OnNodeComplete(st.ExecutionID, node.ID, *result)
			st.History = st.History.AppendStep(state.Step{NodeID: node.ID, Result: *result, Timestamp: nowUTC()})
			final, err := e.advance(ctx, tenantID, node, result, st, obs)
			if err != nil {
				return &Result{Kind: Failed, Err: err}, nil
			}
			if final != nil {
				return final, nil
			}
			continue
		}

		ex, err := e.Nodes.ForNode(node)
		if err != nil {
			return &Result{Kind: Failed, Err: &SystemFailure{Op: "dispatch", Err: err}}, nil
		}

		obs.OnNodeStart(st.ExecutionID, node.ID)
		result, err := e.dispatch(ctx, ex, node, st, wf, obs, tenantID)
		if err != nil {
			result = &state.NodeResult{Status: state.StatusFailure, Reason: err.Error()}
		}
		obs.OnNodeComplete(st.ExecutionID, node.ID, *result)

		if result.Status == state.StatusEnd {
			return e.finalize(ctx, tenantID, st, obs, node.ExitStatus)
		}

		// ForkJoin bypasses transition evaluation entirely: it always
		// reports PENDING with the join target carried in metadata
		// (spec.md §4.2).
		if result.Status == state.StatusPending {
			target, ok := result.Metadata[executor.JoinTargetMetadataKey].(string)
			if !ok || target == "" {
				return &Result{Kind: Failed, Err: &SystemFailure{Op: "dispatch", Err: fmt.Errorf("node %q: pending result carries no join target", node.ID)}}, nil
			}
			st.History = st.History.AppendStep(state.Step{NodeID: node.ID, Result: *result, Timestamp: nowUTC()})
			st.CurrentNodeID = target
			st.RetryCount = 0
			if err := e.checkpoint(ctx, tenantID, st, obs); err != nil {
				return &Result{Kind: Failed, Err: err}, nil
			}
			continue
		}

		if node.RubricID != "" && result.Status == state.StatusSuccess {
			backtracked, terminated, err := e.evaluateRubric(ctx, node, result, st, obs)
			if err != nil {
				return &Result{Kind: Failed, Err: err}, nil
			}
			if terminated != nil {
				return terminated, nil
			}
			if backtracked {
				if err := e.checkpoint(ctx, tenantID, st, obs); err != nil {
					return &Result{Kind: Failed, Err: err}, nil
				}
				continue
			}
		}

		if review.Required(node.Review, *result) {
			if e.Reviews == nil {
				return &Result{Kind: Failed, Err: &SystemFailure{Op: "review", Err: fmt.Errorf("node %q requires review but no ReviewHandler is configured", node.ID)}}, nil
			}
			st.PendingResult = result
			snap, err := st.Snapshot()
			if err != nil {
				return &Result{Kind: Failed, Err: &SystemFailure{Op: "snapshot", Err: err}}, nil
			}
			if e.Snapshots != nil {
				if err := e.Snapshots.Save(ctx, tenantID, snap); err != nil {
					return &Result{Kind: Failed, Err: &SystemFailure{Op: "checkpoint", Err: err}}, nil
				}
			}
			if e.Leases != nil {
				_ = e.Leases.Release(ctx, tenantID, st.ExecutionID)
			}
			obs.OnExecutionPaused(st.ExecutionID, node.ID, "review")
			return &Result{Kind: Paused, Snapshot: snap, Reason: "review"}, nil
		}

		st.History = st.History.AppendStep(state.Step{NodeID: node.ID, Result: *result, Timestamp: nowUTC()})

		target, err := e.Transitions.Next(node, *result, st)
		if err != nil {
			return &Result{Kind: Failed, Err: &SystemFailure{Op: "transition", Err: err}}, nil
		}

		if result.Status == state.StatusFailure && target == node.ID {
			st.RetryCount++
		} else {
			st.RetryCount = 0
		}
		st.CurrentNodeID = target

		if err := e.checkpoint(ctx, tenantID, st, obs); err != nil {
			return &Result{Kind: Failed, Err: err}, nil
		}
	}
}

// dispatch runs the node's executor, applying the configured per-node
// timeout if any.
func (e *Executor) dispatch(ctx context.Context, ex executor.NodeExecutor, node workflow.Node, st *state.State, wf *workflow.Workflow, obs observer.Observer, tenantID string) (*state.NodeResult, error) {
	ec := &executor.ExecutionContext{
		State:    st,
		Workflow: wf,
		Agents:   e.Agents,
		Actions:  e.Actions,
		Nodes:    e.Nodes,
		Observer: obs,
		TenantID: tenantID,
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if e.Config.NodeTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.Config.NodeTimeout)
		defer cancel()
	}

	result, err := ex.Execute(runCtx, node, ec)
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return &state.NodeResult{Status: state.StatusFailure, Reason: "timeout"}, nil
	}
	return result, err
}

// advance carries a node's already-gated result (rubric and review, if
// configured, already ran before the pause that produced it) the rest of
// the way: End finalizes the execution, Pending (ForkJoin) bypasses
// transition evaluation for its join target, and everything else goes
// through ordinary transition evaluation, retry bookkeeping, and
// checkpointing. A non-nil Result means run should return it immediately;
// a nil Result with a nil error means the loop should continue dispatching.
func (e *Executor) advance(ctx context.Context, tenantID string, node workflow.Node, result *state.NodeResult, st *state.State, obs observer.Observer) (*Result, error) {
	if result.Status == state.StatusEnd {
		final, err := e.finalize(ctx, tenantID, st, obs, node.ExitStatus)
		return final, err
	}

	if result.Status == state.StatusPending {
		target, ok := result.Metadata[executor.JoinTargetMetadataKey].(string)
		if !ok || target == "" {
			return nil, &SystemFailure{Op: "dispatch", Err: fmt.Errorf("node %q: pending result carries no join target", node.ID)}
		}
		st.CurrentNodeID = target
		st.RetryCount = 0
		if err := e.checkpoint(ctx, tenantID, st, obs); err != nil {
			return nil, err
		}
		return nil, nil
	}

	target, err := e.Transitions.Next(node, *result, st)
	if err != nil {
		return nil, &SystemFailure{Op: "transition", Err: err}
	}

	if result.Status == state.StatusFailure && target == node.ID {
		st.RetryCount++
	} else {
		st.RetryCount = 0
	}
	st.CurrentNodeID = target

	if err := e.checkpoint(ctx, tenantID, st, obs); err != nil {
		return nil, err
	}
	return nil, nil
}

// evaluateRubric scores the node's output, attaches the evaluation to
// state, and — if the score fails and the node's Score transition names a
// target for it — performs the rubric-driven backtrack spec.md §4.1 step 5
// describes, returning backtracked=true so the caller skips straight to
// checkpointing. A rubric evaluation error is always fatal: a malformed or
// missing rubric id is a configuration defect, not a retryable node
// failure (spec.md §7 "RubricFailure").
func (e *Executor) evaluateRubric(ctx context.Context, node workflow.Node, result *state.NodeResult, st *state.State, obs observer.Observer) (backtracked bool, terminated *Result, err error) {
	if e.Rubrics == nil {
		return false, nil, &SystemFailure{Op: "rubric", Err: fmt.Errorf("node %q names rubric %q but no rubric.Engine is configured", node.ID, node.RubricID)}
	}
	eval, err := e.Rubrics.Evaluate(ctx, node.RubricID, result.Output, st.Context)
	if err != nil {
		return false, nil, &SystemFailure{Op: "rubric", Err: err}
	}
	st.RubricEval = eval
	if len(eval.Recommendations) > 0 {
		st.Context["self_evaluation_recommendations"] = eval.Recommendations
	}
	if eval.Passed {
		return false, nil, nil
	}

	target, matched := scoreBacktrackTarget(node, eval.Score)
	if !matched {
		return false, nil, nil
	}

	evt := state.BacktrackEvent{
		FromNodeID: node.ID,
		ToNodeID:   target,
		Reason:     "rubric score below threshold",
		Type:       state.BacktrackRubricFail,
	}
	st.History = st.History.AppendBacktrack(evt)
	obs.OnBacktrack(st.ExecutionID, evt)
	st.CurrentNodeID = target
	st.RetryCount++
	return true, nil, nil
}

// scoreBacktrackTarget finds the first Score transition clause on node
// matching score, mirroring transition.Evaluator's own Score-rule
// evaluation exactly (the same clause list, the same first-match order).
func scoreBacktrackTarget(node workflow.Node, score float64) (target string, matched bool) {
	for _, rule := range node.Transitions {
		if rule.Kind != workflow.TransitionScore {
			continue
		}
		for _, clause := range rule.ScoreClauses {
			if scoreClauseMatches(clause, score) {
				return clause.Target, true
			}
		}
	}
	return "", false
}

func scoreClauseMatches(c workflow.ScoreClause, score float64) bool {
	switch c.Operator {
	case workflow.OpGT:
		return score > c.Value
	case workflow.OpGTE:
		return score >= c.Value
	case workflow.OpLT:
		return score < c.Value
	case workflow.OpLTE:
		return score <= c.Value
	case workflow.OpEQ:
		return score == c.Value
	case workflow.OpRange:
		return score >= c.Low && score <= c.High
	default:
		return false
	}
}

func (e *Executor) checkpoint(ctx context.Context, tenantID string, st *state.State, obs observer.Observer) error {
	snap, err := st.Snapshot()
	if err != nil {
		return &SystemFailure{Op: "snapshot", Err: err}
	}
	if e.Snapshots != nil {
		if err := e.Snapshots.Save(ctx, tenantID, snap); err != nil {
			return &SystemFailure{Op: "checkpoint", Err: err}
		}
	}
	if e.Leases != nil {
		if err := e.Leases.Acquire(ctx, tenantID, st.ExecutionID, st.ExecutionID); err != nil {
			return &SystemFailure{Op: "lease heartbeat", Err: err}
		}
	}
	obs.OnCheckpoint(st.ExecutionID, snap)
	return nil
}

func nowUTC() time.Time { return time.Now().UTC() }

func (e *Executor) finalize(ctx context.Context, tenantID string, st *state.State, obs observer.Observer, exitStatus workflow.ExitStatus) (*Result, error) {
	obs.OnExecutionCompleted(st.ExecutionID, exitStatus)
	if e.Leases != nil {
		_ = e.Leases.Release(ctx, tenantID, st.ExecutionID)
	}
	return &Result{Kind: Completed, FinalState: st, ExitStatus: exitStatus}, nil
}
