package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hensu-project/hensu-sub006/observer"
	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// constResult is a NodeExecutor stub that writes one context key and
// returns a fixed status, for exercising Parallel/ForkJoin/Loop fan-out
// and merge logic without a real agent.
type constResult struct {
	status  state.Status
	ctxKey  string
	ctxVal  any
	output  string
}

func (c *constResult) Execute(ctx context.Context, node workflow.Node, ec *ExecutionContext) (*state.NodeResult, error) {
	if c.ctxKey != "" {
		ec.State.Context[c.ctxKey] = c.ctxVal
	}
	return &state.NodeResult{Status: c.status, Output: c.output}, nil
}

func newParallelWorkflow(children map[string]NodeExecutor, join workflow.JoinPolicy) (*workflow.Workflow, *Registry) {
	nodes := map[string]workflow.Node{}
	reg := NewRegistry()
	for id, ex := range children {
		nodes[id] = workflow.Node{ID: id, Kind: workflow.KindGeneric, TypeTag: id}
		_ = reg.RegisterGeneric(id, ex)
	}
	wf := &workflow.Workflow{ID: "wf", Nodes: nodes}
	return wf, reg
}

func TestParallel_AllSucceedMergesFirstDeclaredWins(t *testing.T) {
	children := map[string]NodeExecutor{
		"a": &constResult{status: state.StatusSuccess, ctxKey: "k", ctxVal: "from-a"},
		"b": &constResult{status: state.StatusSuccess, ctxKey: "k", ctxVal: "from-b"},
	}
	wf, reg := newParallelWorkflow(children, workflow.JoinAllSucceed)

	node := workflow.Node{ID: "p", Kind: workflow.KindParallel, Children: []string{"a", "b"}, Join: workflow.JoinAllSucceed}
	ec := &ExecutionContext{
		State:    &state.State{Context: map[string]any{}},
		Workflow: wf,
		Nodes:    reg,
		Observer: observer.NoOp{},
	}

	ex := &Parallel{}
	res, err := ex.Execute(context.Background(), node, ec)
	require.NoError(t, err)
	assert.Equal(t, state.StatusSuccess, res.Status)
	assert.Equal(t, "from-a", ec.State.Context["k"], "first declared child wins on context conflict")
}

func TestParallel_OneFailureFailsAllSucceedJoin(t *testing.T) {
	children := map[string]NodeExecutor{
		"a": &constResult{status: state.StatusSuccess},
		"b": &constResult{status: state.StatusFailure},
	}
	wf, reg := newParallelWorkflow(children, workflow.JoinAllSucceed)
	node := workflow.Node{ID: "p", Kind: workflow.KindParallel, Children: []string{"a", "b"}, Join: workflow.JoinAllSucceed}
	ec := &ExecutionContext{State: &state.State{Context: map[string]any{}}, Workflow: wf, Nodes: reg, Observer: observer.NoOp{}}

	ex := &Parallel{}
	res, err := ex.Execute(context.Background(), node, ec)
	require.NoError(t, err)
	assert.Equal(t, state.StatusFailure, res.Status)
}

func TestParallel_AnySucceedJoinToleratesPartialFailure(t *testing.T) {
	children := map[string]NodeExecutor{
		"a": &constResult{status: state.StatusSuccess},
		"b": &constResult{status: state.StatusFailure},
	}
	wf, reg := newParallelWorkflow(children, workflow.JoinAnySucceed)
	node := workflow.Node{ID: "p", Kind: workflow.KindParallel, Children: []string{"a", "b"}, Join: workflow.JoinAnySucceed}
	ec := &ExecutionContext{State: &state.State{Context: map[string]any{}}, Workflow: wf, Nodes: reg, Observer: observer.NoOp{}}

	ex := &Parallel{}
	res, err := ex.Execute(context.Background(), node, ec)
	require.NoError(t, err)
	assert.Equal(t, state.StatusSuccess, res.Status)
}

func TestParallel_UndefinedChildErrors(t *testing.T) {
	wf := &workflow.Workflow{ID: "wf", Nodes: map[string]workflow.Node{}}
	node := workflow.Node{ID: "p", Kind: workflow.KindParallel, Children: []string{"ghost"}}
	ec := &ExecutionContext{State: &state.State{Context: map[string]any{}}, Workflow: wf, Nodes: NewRegistry(), Observer: observer.NoOp{}}

	ex := &Parallel{}
	_, err := ex.Execute(context.Background(), node, ec)
	require.Error(t, err)
}
