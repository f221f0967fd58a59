package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hensu-project/hensu-sub006/action"
	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

type stubHandler struct {
	id     string
	result *action.Result
	err    error
}

func (h *stubHandler) HandlerID() string { return h.id }
func (h *stubHandler) Execute(ctx context.Context, payload map[string]any, execCtx map[string]any) (*action.Result, error) {
	return h.result, h.err
}

func TestAction_SendDispatchesToHandler(t *testing.T) {
	handlers := action.NewRegistry()
	require.NoError(t, handlers.Register("notify", &stubHandler{
		id:     "notify",
		result: &action.Result{Success: true, Output: map[string]any{"sent": true}},
	}))

	ex := &Action{Handlers: handlers}
	node := workflow.Node{
		ID: "n1",
		Actions: []workflow.Action{
			{Kind: workflow.ActionSend, HandlerID: "notify", Payload: map[string]any{"msg": "hello {name}"}},
		},
	}
	ec := &ExecutionContext{State: &state.State{Context: map[string]any{"name": "Ada"}}}

	res, err := ex.Execute(context.Background(), node, ec)
	require.NoError(t, err)
	assert.Equal(t, state.StatusSuccess, res.Status)
}

func TestAction_SendUnknownHandlerFails(t *testing.T) {
	ex := &Action{Handlers: action.NewRegistry()}
	node := workflow.Node{
		ID:      "n1",
		Actions: []workflow.Action{{Kind: workflow.ActionSend, HandlerID: "ghost"}},
	}
	ec := &ExecutionContext{State: &state.State{Context: map[string]any{}}}

	res, err := ex.Execute(context.Background(), node, ec)
	require.NoError(t, err)
	assert.Equal(t, state.StatusFailure, res.Status)
	assert.Contains(t, res.Reason, "ghost")
}

func TestAction_ExecuteKindAlwaysFailsInServerContext(t *testing.T) {
	ex := &Action{Handlers: action.NewRegistry()}
	node := workflow.Node{
		ID:      "n1",
		Actions: []workflow.Action{{Kind: workflow.ActionExecute, CommandID: "local-cmd"}},
	}
	ec := &ExecutionContext{State: &state.State{Context: map[string]any{}}}

	res, err := ex.Execute(context.Background(), node, ec)
	require.NoError(t, err)
	assert.Equal(t, state.StatusFailure, res.Status)
	assert.Contains(t, res.Reason, "local-only")
}

func TestAction_HandlerFailureResultPropagates(t *testing.T) {
	handlers := action.NewRegistry()
	require.NoError(t, handlers.Register("flaky", &stubHandler{
		id:     "flaky",
		result: &action.Result{Success: false, Reason: "downstream unavailable"},
	}))
	ex := &Action{Handlers: handlers}
	node := workflow.Node{
		ID:      "n1",
		Actions: []workflow.Action{{Kind: workflow.ActionSend, HandlerID: "flaky"}},
	}
	ec := &ExecutionContext{State: &state.State{Context: map[string]any{}}}

	res, err := ex.Execute(context.Background(), node, ec)
	require.NoError(t, err)
	assert.Equal(t, state.StatusFailure, res.Status)
	assert.Equal(t, "downstream unavailable", res.Reason)
}
