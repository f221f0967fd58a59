// Package transition evaluates a node's ordered TransitionRule list against
// a NodeResult (and, for Score rules, the execution's current rubric
// evaluation) to select the next node id — spec.md §4.1 step 8.
package transition

import (
	"errors"
	"fmt"

	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// ErrUnsupportedTransition is returned when evaluation reaches a Consensus
// rule. spec.md's Open Questions leave Consensus's evaluator unspecified;
// the engine fails closed rather than guessing a semantics for it.
var ErrUnsupportedTransition = errors.New("transition: Consensus rules are not evaluated")

// ErrNoMatch is returned when no rule in the node's Transitions matches the
// result — a workflow-authoring defect the Validate pass does not catch,
// since whether a rule matches depends on runtime data.
var ErrNoMatch = errors.New("transition: no transition rule matched")

// Evaluator selects the next node id for a completed node dispatch.
type Evaluator struct{}

// New constructs an Evaluator. It holds no state — rules are evaluated
// purely from the arguments passed to Next.
func New() *Evaluator {
	return &Evaluator{}
}

// Next walks node.Transitions in declaration order and returns the target
// of the first rule whose condition holds. Failure rules consult
// st.RetryCount against the rule's configured limit, re-targeting to the
// node itself while the limit has not been reached (spec.md §4.1 "Retry &
// backtrack policy"). Score rules consult st.RubricEval, which must be
// populated by the caller before Next is invoked for a node carrying a
// rubric id.
func (e *Evaluator) Next(node workflow.Node, result state.NodeResult, st *state.State) (string, error) {
	for _, rule := range node.Transitions {
		target, matched, err := e.evalRule(node, rule, result, st)
		if err != nil {
			return "", err
		}
		if matched {
			return target, nil
		}
	}
	return "", fmt.Errorf("%w: node %q, result status %q", ErrNoMatch, node.ID, result.Status)
}

func (e *Evaluator) evalRule(node workflow.Node, rule workflow.TransitionRule, result state.NodeResult, st *state.State) (target string, matched bool, err error) {
	switch rule.Kind {
	case workflow.TransitionSuccess:
		if result.Status == state.StatusSuccess {
			return rule.SuccessTarget, true, nil
		}
		return "", false, nil

	case workflow.TransitionFailure:
		if result.Status != state.StatusFailure {
			return "", false, nil
		}
		if st.RetryCount < rule.RetryCount {
			return node.ID, true, nil
		}
		return rule.FailTarget, true, nil

	case workflow.TransitionScore:
		if result.Status != state.StatusSuccess || st.RubricEval == nil {
			return "", false, nil
		}
		for _, clause := range rule.ScoreClauses {
			if scoreMatches(clause, st.RubricEval.Score) {
				return clause.Target, true, nil
			}
		}
		return "", false, nil

	case workflow.TransitionConsensus:
		return "", false, ErrUnsupportedTransition

	default:
		return "", false, fmt.Errorf("transition: node %q: unknown rule kind %q", node.ID, rule.Kind)
	}
}

func scoreMatches(c workflow.ScoreClause, score float64) bool {
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
