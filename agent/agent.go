// Package agent defines the capability interfaces the engine uses to
// invoke AI agents without ever depending on a concrete LLM client —
// spec.md §1 places agent implementations out of scope, consumed here only
// through Agent and Provider.
package agent

import (
	"context"
	"fmt"

	"github.com/hensu-project/hensu-sub006/registry"
)

// ResponseKind tags which Response variant is populated.
type ResponseKind string

const (
	KindText         ResponseKind = "TEXT"
	KindToolRequest  ResponseKind = "TOOL_REQUEST"
	KindPlanProposal ResponseKind = "PLAN_PROPOSAL"
	KindError        ResponseKind = "ERROR"
)

// PlanStepProposal is one step of a PlanProposal response, before it has
// been assigned an index or turned into a plan.PlannedStep by the caller.
type PlanStepProposal struct {
	ToolName    string
	Args        map[string]any
	Description string
}

// Response is the tagged union an Agent.Execute call returns: free text, a
// request to invoke a tool, a proposed multi-step plan, or an error. Only
// the fields for Kind are meaningful.
type Response struct {
	Kind ResponseKind

	// Text
	Content  string
	Metadata map[string]any

	// ToolRequest
	ToolName string
	Args     map[string]any

	// ToolRequest / PlanProposal
	Reasoning string

	// PlanProposal
	Steps []PlanStepProposal

	// Error
	Message string
}

// Agent is a bound, invocable capability. A single Agent instance is not
// safe for concurrent use — spec.md §6 notes this explicitly, since an
// instance typically wraps one stateful LLM conversation.
type Agent interface {
	ID() string
	Execute(ctx context.Context, prompt string, execCtx map[string]any) (*Response, error)
}

// Config is the construction-time configuration an AgentProvider turns
// into an Agent instance — the resolved form of a workflow.AgentBinding
// plus whatever credentials the caller's environment supplies.
type Config struct {
	AgentID         string
	Role            string
	Model           string
	Instructions    string
	MaintainContext bool
	Credentials     map[string]string
}

// Provider constructs Agent instances for a family of models. Multiple
// providers may claim to support the same model name; the highest Priority
// wins (spec.md §6).
type Provider interface {
	Name() string
	Priority() int
	SupportsModel(model string) bool
	CreateAgent(id string, cfg Config) (Agent, error)
}

// Registry is the name→Agent lookup threaded through an ExecutionContext.
// Writes (registration) must happen before any execution starts; reads are
// concurrent-safe throughout (spec.md §5).
type Registry = registry.Registry[Agent]

// NewRegistry returns an empty Registry.
func NewRegistry() Registry {
	return registry.New[Agent]()
}

// NotFoundError reports that a Standard node names an agent id with no
// registered Agent — a UserConfig-class failure (spec.md §7).
type NotFoundError struct {
	AgentID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("agent: %q not registered", e.AgentID)
}

// Resolve constructs an Agent for a binding with the highest-Priority
// Provider that supports the binding's model (on a tie, the one listed
// first). Its CreateAgent result is returned as is: a construction error
// is not retried with another provider.
func Resolve(providers []Provider, binding Config) (Agent, error) {
	var best Provider
	for _, p := range providers {
		if !p.SupportsModel(binding.Model) {
			continue
		}
		if best == nil || p.Priority() > best.Priority() {
			best = p
		}
	}
	if best == nil {
		return nil, fmt.Errorf("agent: no provider supports model %q", binding.Model)
	}
	return best.CreateAgent(binding.AgentID, binding)
}
