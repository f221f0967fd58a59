package executor

import (
	"context"

	"github.com/hensu-project/hensu-sub006/action"
	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/template"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// Action executes every workflow.Action value of an Action node in
// declaration order. A SEND action dispatches to the named Handler; an
// EXECUTE action is reserved for local (non-server) modes and always fails
// here, since this engine only runs in a server context (spec.md §4.2).
type Action struct {
	Handlers action.Registry
}

func (a *Action) Execute(ctx context.Context, node workflow.Node, ec *ExecutionContext) (*state.NodeResult, error) {
	outputs := make([]map[string]any, 0, len(node.Actions))

	for _, act := range node.Actions {
		switch act.Kind {
		case workflow.ActionExecute:
			return &state.NodeResult{
				Status: state.StatusFailure,
				Reason: (&action.LocalOnlyError{CommandID: act.CommandID}).Error(),
			}, nil

		case workflow.ActionSend:
			handler, ok := a.Handlers.Get(act.HandlerID)
			if !ok {
				return &state.NodeResult{
					Status: state.StatusFailure,
					Reason: (&action.NotFoundError{HandlerID: act.HandlerID}).Error(),
				}, nil
			}
			payload, err := renderPayload(act.Payload, ec.State.Context)
			if err != nil {
				return &state.NodeResult{Status: state.StatusFailure, Reason: err.Error()}, nil
			}
			res, err := handler.Execute(ctx, payload, ec.State.Context)
			if err != nil {
				return &state.NodeResult{Status: state.StatusFailure, Reason: err.Error()}, nil
			}
			if !res.Success {
				return &state.NodeResult{Status: state.StatusFailure, Reason: res.Reason}, nil
			}
			outputs = append(outputs, res.Output)

		default:
			return &state.NodeResult{Status: state.StatusFailure, Reason: "unknown action kind"}, nil
		}
	}

	return &state.NodeResult{
		Status:   state.StatusSuccess,
		Metadata: map[string]any{"action_outputs": outputs},
	}, nil
}

// renderPayload resolves any string-valued {placeholder} templates inside a
// SEND action's payload against execution context, leaving non-string
// values untouched.
func renderPayload(payload map[string]any, ctx map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		s, ok := v.(string)
		if !ok {
			out[k] = v
			continue
		}
		rendered, err := template.Resolve(s, ctx)
		if err != nil {
			return nil, err
		}
		out[k] = rendered
	}
	return out, nil
}
