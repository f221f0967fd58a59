package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hensu-project/hensu-sub006/agent"
	"github.com/hensu-project/hensu-sub006/observer"
	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

type respondingAgent struct {
	id   string
	resp *agent.Response
	err  error
}

func (a *respondingAgent) ID() string { return a.id }
func (a *respondingAgent) Execute(ctx context.Context, prompt string, execCtx map[string]any) (*agent.Response, error) {
	return a.resp, a.err
}

func newStandardContext(agents agent.Registry) *ExecutionContext {
	return &ExecutionContext{
		State:    &state.State{ExecutionID: "exec-1", Context: map[string]any{"who": "world"}},
		Agents:   agents,
		Observer: observer.NoOp{},
	}
}

func TestStandard_TextResponseExtractsNamedOutputs(t *testing.T) {
	agents := agent.NewRegistry()
	require.NoError(t, agents.Register("a1", &respondingAgent{
		id:   "a1",
		resp: &agent.Response{Kind: agent.KindText, Content: `answer is {"verdict":"approved"}`},
	}))

	ex := &Standard{}
	node := workflow.Node{ID: "n1", AgentID: "a1", PromptTmpl: "hello {who}", NamedOutputs: []string{"verdict"}}
	ec := newStandardContext(agents)

	res, err := ex.Execute(context.Background(), node, ec)
	require.NoError(t, err)
	assert.Equal(t, state.StatusSuccess, res.Status)
	assert.Equal(t, "approved", ec.State.Context["verdict"])
}

func TestStandard_UnknownAgentReturnsNotFoundError(t *testing.T) {
	ex := &Standard{}
	node := workflow.Node{ID: "n1", AgentID: "ghost"}
	ec := newStandardContext(agent.NewRegistry())

	_, err := ex.Execute(context.Background(), node, ec)
	require.Error(t, err)
	var notFound *agent.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestStandard_AgentErrorResponseFailsNode(t *testing.T) {
	agents := agent.NewRegistry()
	require.NoError(t, agents.Register("a1", &respondingAgent{
		id:   "a1",
		resp: &agent.Response{Kind: agent.KindError, Message: "provider unavailable"},
	}))

	ex := &Standard{}
	node := workflow.Node{ID: "n1", AgentID: "a1"}
	ec := newStandardContext(agents)

	res, err := ex.Execute(context.Background(), node, ec)
	require.NoError(t, err)
	assert.Equal(t, state.StatusFailure, res.Status)
	assert.Equal(t, "provider unavailable", res.Reason)
}

func TestStandard_ToolRequestSurfacedWithoutActing(t *testing.T) {
	agents := agent.NewRegistry()
	require.NoError(t, agents.Register("a1", &respondingAgent{
		id: "a1",
		resp: &agent.Response{
			Kind: agent.KindToolRequest, ToolName: "search", Args: map[string]any{"q": "go"},
		},
	}))

	ex := &Standard{}
	node := workflow.Node{ID: "n1", AgentID: "a1"}
	ec := newStandardContext(agents)

	res, err := ex.Execute(context.Background(), node, ec)
	require.NoError(t, err)
	assert.Equal(t, state.StatusSuccess, res.Status)
	assert.Equal(t, "search", res.Metadata["tool_name"])
}

func TestStandard_InvalidOutputTextFailsValidation(t *testing.T) {
	agents := agent.NewRegistry()
	require.NoError(t, agents.Register("a1", &respondingAgent{
		id:   "a1",
		resp: &agent.Response{Kind: agent.KindText, Content: "contains \u200b zero width"},
	}))

	ex := &Standard{}
	node := workflow.Node{ID: "n1", AgentID: "a1"}
	ec := newStandardContext(agents)

	res, err := ex.Execute(context.Background(), node, ec)
	require.NoError(t, err)
	assert.Equal(t, state.StatusFailure, res.Status)
}
