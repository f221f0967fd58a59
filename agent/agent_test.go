package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct{ id, provider string }

func (a *stubAgent) ID() string { return a.id }
func (a *stubAgent) Execute(ctx context.Context, prompt string, execCtx map[string]any) (*Response, error) {
	return &Response{Kind: KindText, Content: "stub"}, nil
}

type stubProvider struct {
	name     string
	priority int
	models   map[string]bool
}

func (p *stubProvider) Name() string                  { return p.name }
func (p *stubProvider) Priority() int                 { return p.priority }
func (p *stubProvider) SupportsModel(m string) bool    { return p.models[m] }
func (p *stubProvider) CreateAgent(id string, cfg Config) (Agent, error) {
	return &stubAgent{id: id, provider: p.name}, nil
}

func TestResolve_HighestPriorityWins(t *testing.T) {
	low := &stubProvider{name: "low", priority: 1, models: map[string]bool{"gpt": true}}
	high := &stubProvider{name: "high", priority: 10, models: map[string]bool{"gpt": true}}

	a, err := Resolve([]Provider{low, high}, Config{AgentID: "a1", Model: "gpt"})
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ID())
	assert.Equal(t, "high", a.(*stubAgent).provider)
}

func TestResolve_NoProviderSupportsModel(t *testing.T) {
	p := &stubProvider{name: "p", priority: 1, models: map[string]bool{"gpt": true}}
	_, err := Resolve([]Provider{p}, Config{AgentID: "a1", Model: "unsupported"})
	require.Error(t, err)
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a1", &stubAgent{id: "a1"}))
	a, ok := r.Get("a1")
	require.True(t, ok)
	assert.Equal(t, "a1", a.ID())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{AgentID: "ghost"}
	assert.Contains(t, err.Error(), "ghost")
}
