// Package plan runs a static or LLM-generated sequence of tool-call steps
// for a single node execution, with per-step observability, a final
// synthesis step, and bounded revision on failure (spec.md §4.4).
package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/hensu-project/hensu-sub006/observer"
	"github.com/hensu-project/hensu-sub006/registry"
	"github.com/hensu-project/hensu-sub006/template"
)

// Source tags whether a Plan was authored ahead of time or produced by an
// agent's PlanProposal response.
type Source string

const (
	SourceStatic Source = "STATIC"
	SourceLLM    Source = "LLM_GENERATED"
)

// PlannedStep is one tool invocation within a Plan. IsSynthesize marks the
// final, non-tool step that composes output from the accumulated results
// of every preceding step.
type PlannedStep struct {
	Index        int
	ToolName     string
	Args         map[string]any
	Description  string
	IsSynthesize bool
}

// Plan is an immutable, ordered sequence of steps for one node. Revisions
// produce a new Plan with a new ID tied to the same NodeID.
type Plan struct {
	ID     string
	NodeID string
	Source Source
	Steps  []PlannedStep
}

// StepResult is the outcome of running one PlannedStep.
type StepResult struct {
	Step     PlannedStep
	Output   string
	Err      error
	Duration time.Duration
}

// Planner revises a plan after one of its steps fails. Implementations
// typically ask an agent to reconsider the remaining steps in light of the
// failure.
type Planner interface {
	Revise(ctx context.Context, original *Plan, failed StepResult) (*Plan, error)
}

// Tool is a named, invocable action a plan step can call.
type Tool interface {
	Name() string
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Registry is the name->Tool lookup a plan Executor consults.
type Registry = registry.Registry[Tool]

// NewRegistry returns an empty Tool Registry.
func NewRegistry() Registry {
	return registry.New[Tool]()
}

// NotFoundError reports a plan step naming a tool with no registered Tool.
type NotFoundError struct {
	ToolName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("plan: tool %q not registered", e.ToolName)
}

// RevisionsExceededError reports that a plan's failures could not be
// resolved within maxRevisions attempts.
type RevisionsExceededError struct {
	PlanID string
	Max    int
}

func (e *RevisionsExceededError) Error() string {
	return fmt.Sprintf("plan %s: exceeded max revisions (%d)", e.PlanID, e.Max)
}

// Synthesize composes the final output from every non-synthesize step's
// result — typically an agent call over the accumulated step outputs.
type Synthesize func(ctx context.Context, stepOutputs []StepResult) (string, error)

// Executor runs a Plan to completion, revising it on step failure.
type Executor struct {
	Tools        Registry
	Planner      Planner
	Observer     observer.Observer
	MaxRevisions int
}

// NewExecutor constructs an Executor. A zero MaxRevisions defaults to 2.
func NewExecutor(tools Registry, planner Planner, obs observer.Observer, maxRevisions int) *Executor {
	if maxRevisions <= 0 {
		maxRevisions = 2
	}
	return &Executor{Tools: tools, Planner: planner, Observer: obs, MaxRevisions: maxRevisions}
}

// Run executes p's steps in order against execCtx, revising the plan via
// e.Planner on a step failure (up to e.MaxRevisions times), then running
// the synthesis step (if present) to produce the final output.
func (e *Executor) Run(ctx context.Context, executionID, nodeID string, p *Plan, execCtx map[string]any, synthesize Synthesize) (string, error) {
	current := p
	revisions := 0

	e.Observer.OnPlannerStart(executionID, nodeID, current.ID, string(current.Source), len(current.Steps))

	for {
		outputs, failed, err := e.runSteps(ctx, executionID, nodeID, current, execCtx)
		if err != nil {
			e.Observer.OnPlannerComplete(executionID, nodeID, current.ID, false)
			return "", err
		}
		if failed == nil {
			final, err := e.synthesizeOutput(ctx, current, outputs, synthesize)
			e.Observer.OnPlannerComplete(executionID, nodeID, current.ID, err == nil)
			return final, err
		}

		if revisions >= e.MaxRevisions || e.Planner == nil {
			e.Observer.OnPlannerComplete(executionID, nodeID, current.ID, false)
			return "", &RevisionsExceededError{PlanID: current.ID, Max: e.MaxRevisions}
		}

		revised, err := e.Planner.Revise(ctx, current, *failed)
		if err != nil {
			e.Observer.OnPlannerComplete(executionID, nodeID, current.ID, false)
			return "", fmt.Errorf("plan: revise: %w", err)
		}
		revisions++
		e.Observer.OnPlanRevised(executionID, nodeID, current.ID, revised.ID, failed.Err.Error())
		current = revised
	}
}

// runSteps runs every non-synthesize step of p in order, returning the
// accumulated results and, if a step failed, that step's StepResult as
// failed (nil otherwise).
func (e *Executor) runSteps(ctx context.Context, executionID, nodeID string, p *Plan, execCtx map[string]any) ([]StepResult, *StepResult, error) {
	outputs := make([]StepResult, 0, len(p.Steps))
	for _, step := range p.Steps {
		if step.IsSynthesize {
			continue
		}

		tool, ok := e.Tools.Get(step.ToolName)
		if !ok {
			return outputs, nil, &NotFoundError{ToolName: step.ToolName}
		}

		args, err := renderArgs(step.Args, execCtx)
		if err != nil {
			return outputs, nil, fmt.Errorf("plan: render step %d args: %w", step.Index, err)
		}

		e.Observer.OnStepStart(executionID, nodeID, p.ID, step.Index, step.ToolName)
		start := time.Now()
		output, err := tool.Execute(ctx, args)
		duration := time.Since(start)
		e.Observer.OnStepComplete(executionID, nodeID, p.ID, step.Index, step.ToolName, err, duration)

		result := StepResult{Step: step, Output: output, Err: err, Duration: duration}
		outputs = append(outputs, result)
		if err != nil {
			return outputs, &result, nil
		}
	}
	return outputs, nil, nil
}

func (e *Executor) synthesizeOutput(ctx context.Context, p *Plan, outputs []StepResult, synthesize Synthesize) (string, error) {
	var synthStep *PlannedStep
	for i := range p.Steps {
		if p.Steps[i].IsSynthesize {
			synthStep = &p.Steps[i]
			break
		}
	}
	if synthStep == nil || synthesize == nil {
		if len(outputs) == 0 {
			return "", nil
		}
		return outputs[len(outputs)-1].Output, nil
	}
	return synthesize(ctx, outputs)
}

func renderArgs(args map[string]any, execCtx map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for k, v := range args {
		s, ok := v.(string)
		if !ok {
			out[k] = v
			continue
		}
		rendered, err := template.Resolve(s, execCtx)
		if err != nil {
			return nil, err
		}
		out[k] = rendered
	}
	return out, nil
}
