package executor

import (
	"context"
	"fmt"

	"github.com/hensu-project/hensu-sub006/agent"
	"github.com/hensu-project/hensu-sub006/plan"
	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// PlanHandler is the GenericHandler that runs spec.md §4.4's plan executor
// for a single node. It is registered under a free-form TypeTag (by
// convention "plan") against a Registry's generic-handler table, so a
// workflow author opts a Generic node into plan execution the same way
// they'd opt into any other generic behavior — no dedicated NodeKind is
// needed, matching spec.md §4.2's "Generic... dispatched to a handler".
//
// node.Config carries the plan shape: a "steps" list of
// {toolName, args, description, synthesize} maps, read with
// parsePlanSteps. Config["synthesizeAgentId"], if set, names the agent
// PlanHandler invokes for the synthesis step; without it, the last step's
// output is used verbatim.
type PlanHandler struct {
	Executor *plan.Executor
	Agents   agent.Registry
}

func (h *PlanHandler) Execute(ctx context.Context, node workflow.Node, ec *ExecutionContext) (*state.NodeResult, error) {
	steps, err := parsePlanSteps(node.Config)
	if err != nil {
		return &state.NodeResult{Status: state.StatusFailure, Reason: err.Error()}, nil
	}
	if len(steps) == 0 {
		return &state.NodeResult{Status: state.StatusFailure, Reason: "plan: node config has no steps"}, nil
	}

	source := plan.SourceStatic
	if s, ok := node.Config["source"].(string); ok && s == string(plan.SourceLLM) {
		source = plan.SourceLLM
	}

	p := &plan.Plan{
		ID:     node.ID + ":plan",
		NodeID: node.ID,
		Source: source,
		Steps:  steps,
	}

	var synthesize plan.Synthesize
	if agentID, ok := node.Config["synthesizeAgentId"].(string); ok && agentID != "" && h.Agents != nil {
		if a, ok := h.Agents.Get(agentID); ok {
			synthesize = func(ctx context.Context, outputs []plan.StepResult) (string, error) {
				prompt := synthesisPrompt(outputs)
				resp, err := a.Execute(ctx, prompt, ec.State.Context)
				if err != nil {
					return "", err
				}
				if resp.Kind == agent.KindError {
					return "", fmt.Errorf("plan: synthesis agent error: %s", resp.Message)
				}
				return resp.Content, nil
			}
		}
	}

	output, err := h.Executor.Run(ctx, ec.State.ExecutionID, node.ID, p, ec.State.Context, synthesize)
	if err != nil {
		return &state.NodeResult{Status: state.StatusFailure, Reason: err.Error()}, nil
	}

	return &state.NodeResult{
		Status: state.StatusSuccess,
		Output: output,
		Metadata: map[string]any{
			"plan_id":     p.ID,
			"plan_source": string(p.Source),
			"step_count":  len(p.Steps),
		},
	}, nil
}

// parsePlanSteps reads node.Config["steps"] — a []any of map[string]any —
// into PlannedStep values, defensively: a step missing "toolName" and not
// marked synthesize is a configuration error, everything else defaults.
func parsePlanSteps(cfg map[string]any) ([]plan.PlannedStep, error) {
	raw, ok := cfg["steps"].([]any)
	if !ok {
		return nil, nil
	}
	steps := make([]plan.PlannedStep, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("plan: step %d is not an object", i)
		}
		synth, _ := m["synthesize"].(bool)
		toolName, _ := m["toolName"].(string)
		if toolName == "" && !synth {
			return nil, fmt.Errorf("plan: step %d has no toolName", i)
		}
		desc, _ := m["description"].(string)
		args, _ := m["args"].(map[string]any)
		steps = append(steps, plan.PlannedStep{
			Index:        i,
			ToolName:     toolName,
			Args:         args,
			Description:  desc,
			IsSynthesize: synth,
		})
	}
	return steps, nil
}

func synthesisPrompt(outputs []plan.StepResult) string {
	prompt := "Synthesize a final answer from these step results:\n"
	for _, o := range outputs {
		prompt += fmt.Sprintf("- %s: %s\n", o.Step.ToolName, o.Output)
	}
	return prompt
}
