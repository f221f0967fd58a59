// Package rubric scores agent output against a weighted set of criteria,
// producing a normalized 0-100 score and a pass/fail verdict.
package rubric

import (
	"context"
	"fmt"

	"github.com/hensu-project/hensu-sub006/jsonextract"
)

// EvaluationType tags how a Criterion is scored.
type EvaluationType string

const (
	// EvalSelf reads the score (and, if below MinScore, a recommendation)
	// out of a JSON object embedded in the agent's own output text.
	EvalSelf EvaluationType = "SELF"
	// EvalRule delegates to a rule-based Evaluator keyed by EvaluationLogic.
	EvalRule EvaluationType = "RULE"
)

// scoreAliases and recommendationAliases are read in priority order: the
// first key present in the extracted JSON object wins. Different agents/
// prompts name these fields differently, so the engine accepts several.
var (
	scoreAliases          = []string{"score", "rating", "value"}
	recommendationAliases = []string{"recommendation", "suggestion", "feedback"}
)

// Criterion is one weighted scoring dimension of a Rubric.
type Criterion struct {
	ID              string
	Weight          float64
	MinScore        float64
	EvaluationType  EvaluationType
	EvaluationLogic string // meaningful only when EvaluationType == EvalRule
}

// Rubric is an immutable weighted criterion set applied to one node's
// output.
type Rubric struct {
	ID            string
	Version       string
	PassThreshold float64
	Criteria      []Criterion
}

// CriterionScore is one criterion's contribution to an Evaluation.
type CriterionScore struct {
	CriterionID string
	Score       float64
}

// Evaluation is the immutable result of scoring output against a Rubric.
type Evaluation struct {
	RubricID     string
	Score        float64
	Passed       bool
	PerCriterion []CriterionScore
	// Recommendations holds "[ruleId] recommendation" entries produced by
	// self-evaluation criteria that scored below their MinScore, in
	// criterion declaration order. The caller merges these into the
	// execution context's self_evaluation_recommendations key so a
	// subsequent backtracking attempt can inject them into the prompt.
	Recommendations []string
}

// NotFoundError reports that the requested rubric id has no definition.
type NotFoundError struct {
	RubricID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("rubric: %q not found", e.RubricID)
}

// Source resolves a rubric id to its definition. repository.RubricRepository
// satisfies this interface structurally.
type Source interface {
	FindByID(ctx context.Context, id string) (*Rubric, error)
}

// RuleEvaluator scores output against a criterion's EvaluationLogic without
// reference to any JSON the agent produced — e.g. a keyword check, a length
// bound, a regex match. It returns ok=false when the logic cannot produce a
// score (the engine then falls back to the "no opinion" default).
type RuleEvaluator interface {
	Evaluate(logic string, output string, ctx map[string]any) (score float64, ok bool)
}

// noOpinionScore is the default applied when neither self-evaluation nor a
// rule-based evaluator can recover a score for a criterion (spec.md §4.3:
// "treated as no opinion").
const noOpinionScore = 100.0

// Engine scores node output against a Rubric resolved from a Source.
type Engine struct {
	source Source
	rules  RuleEvaluator
}

// New constructs an Engine. rules may be nil if no workflow in use
// configures rule-based criteria.
func New(source Source, rules RuleEvaluator) *Engine {
	return &Engine{source: source, rules: rules}
}

// Evaluate scores output (the node's agent output text) against the rubric
// identified by rubricID, using ctx for rule-based criteria that inspect
// execution context.
func (e *Engine) Evaluate(ctx context.Context, rubricID, output string, execCtx map[string]any) (*Evaluation, error) {
	r, err := e.source.FindByID(ctx, rubricID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &NotFoundError{RubricID: rubricID}
	}

	var weightedSum, weightTotal float64
	per := make([]CriterionScore, 0, len(r.Criteria))
	var recommendations []string

	for _, c := range r.Criteria {
		score, rec := e.scoreCriterion(c, output, execCtx)
		if score < 0 {
			score = 0
		} else if score > 100 {
			score = 100
		}
		per = append(per, CriterionScore{CriterionID: c.ID, Score: score})
		weightedSum += score * c.Weight
		weightTotal += c.Weight

		if score < c.MinScore && rec != "" {
			recommendations = append(recommendations, fmt.Sprintf("[%s] %s", r.ID, rec))
		}
	}

	// Weighted average of per-criterion 0-100 scores. Weights need not sum
	// to 1 — dividing by their total normalizes for that.
	final := noOpinionScore
	if weightTotal > 0 {
		final = weightedSum / weightTotal
	}

	return &Evaluation{
		RubricID:        r.ID,
		Score:           final,
		Passed:          final >= r.PassThreshold,
		PerCriterion:    per,
		Recommendations: recommendations,
	}, nil
}

// scoreCriterion returns the criterion's 0-100 score and, for self-
// evaluation criteria that scored below MinScore, the recommendation text
// to surface.
func (e *Engine) scoreCriterion(c Criterion, output string, execCtx map[string]any) (score float64, recommendation string) {
	switch c.EvaluationType {
	case EvalRule:
		if e.rules != nil {
			if s, ok := e.rules.Evaluate(c.EvaluationLogic, output, execCtx); ok {
				return s, ""
			}
		}
		return noOpinionScore, ""
	default: // EvalSelf
		obj, ok := jsonextract.FirstObject(output)
		if !ok {
			return noOpinionScore, ""
		}
		s, ok := jsonextract.Float64(obj, scoreAliases...)
		if !ok {
			return noOpinionScore, ""
		}
		if s < c.MinScore {
			rec, _ := jsonextract.String(obj, recommendationAliases...)
			return s, rec
		}
		return s, ""
	}
}
