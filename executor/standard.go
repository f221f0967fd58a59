package executor

import (
	"context"
	"fmt"

	"github.com/hensu-project/hensu-sub006/agent"
	"github.com/hensu-project/hensu-sub006/jsonextract"
	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/template"
	"github.com/hensu-project/hensu-sub006/validate"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// Standard executes a Standard node: resolve the bound agent, render the
// prompt template against execution context, invoke the agent, validate
// text output, and optionally extract named output parameters from a JSON
// object embedded in the output, merging them into context.
type Standard struct{}

func (s *Standard) Execute(ctx context.Context, node workflow.Node, ec *ExecutionContext) (*state.NodeResult, error) {
	a, ok := ec.Agents.Get(node.AgentID)
	if !ok {
		return nil, &agent.NotFoundError{AgentID: node.AgentID}
	}

	prompt, err := template.Resolve(node.PromptTmpl, ec.State.Context)
	if err != nil {
		return &state.NodeResult{Status: state.StatusFailure, Reason: fmt.Sprintf("template: %v", err)}, nil
	}

	ec.Observer.OnAgentStart(ec.State.ExecutionID, node.ID, node.AgentID)
	resp, err := a.Execute(ctx, prompt, ec.State.Context)
	ec.Observer.OnAgentComplete(ec.State.ExecutionID, node.ID, node.AgentID, err)
	if err != nil {
		return &state.NodeResult{Status: state.StatusFailure, Reason: err.Error()}, nil
	}

	switch resp.Kind {
	case agent.KindError:
		return &state.NodeResult{Status: state.StatusFailure, Reason: resp.Message}, nil

	case agent.KindText:
		if verr := validate.Text(resp.Content, 0); verr != nil {
			return &state.NodeResult{Status: state.StatusFailure, Reason: verr.Error()}, nil
		}
		if len(node.NamedOutputs) > 0 {
			extractNamedOutputs(resp.Content, node.NamedOutputs, ec.State.Context)
		}
		meta := resp.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		meta["response_kind"] = string(agent.KindText)
		return &state.NodeResult{Status: state.StatusSuccess, Output: resp.Content, Metadata: meta}, nil

	case agent.KindToolRequest:
		// Surfaced, not acted on — spec.md §4.2: "the standard node does
		// not act on it."
		return &state.NodeResult{
			Status: state.StatusSuccess,
			Metadata: map[string]any{
				"response_kind": string(agent.KindToolRequest),
				"tool_name":     resp.ToolName,
				"tool_args":     resp.Args,
				"reasoning":     resp.Reasoning,
			},
		}, nil

	case agent.KindPlanProposal:
		return &state.NodeResult{
			Status: state.StatusSuccess,
			Metadata: map[string]any{
				"response_kind": string(agent.KindPlanProposal),
				"plan_steps":    resp.Steps,
				"reasoning":     resp.Reasoning,
			},
		}, nil

	default:
		return &state.NodeResult{Status: state.StatusFailure, Reason: fmt.Sprintf("unknown response kind %q", resp.Kind)}, nil
	}
}

// extractNamedOutputs reads the first balanced JSON object out of output
// and merges the requested names into ctx. Names absent from the object or
// absent from the output entirely are silently skipped — a node's prompt
// is responsible for making the agent actually emit them; a missing output
// parameter is a prompting problem, not an engine-level failure.
func extractNamedOutputs(output string, names []string, ctx map[string]any) {
	obj, ok := jsonextract.FirstObject(output)
	if !ok {
		return
	}
	for _, name := range names {
		if v, ok := jsonextract.Any(obj, name); ok {
			ctx[name] = v
		}
	}
}
