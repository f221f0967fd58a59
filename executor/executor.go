// Package executor holds the per-node-type execution strategies spec.md
// §4.2 names (Standard, Parallel, ForkJoin, Loop, Action, Generic, End) and
// the registry that maps a Node's Kind to its strategy. Every strategy
// shares the same contract: Execute(ctx, node, ec) -> (*state.NodeResult, error).
// Strategies are reentrant — the same instance is reused for every node of
// its kind across every execution, so it must hold no per-call mutable
// state of its own (spec.md §9 "variant dispatch over inheritance").
package executor

import (
	"context"
	"fmt"

	"github.com/hensu-project/hensu-sub006/action"
	"github.com/hensu-project/hensu-sub006/agent"
	"github.com/hensu-project/hensu-sub006/observer"
	"github.com/hensu-project/hensu-sub006/registry"
	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// NodeExecutor is the strategy contract every node variant implements.
type NodeExecutor interface {
	Execute(ctx context.Context, node workflow.Node, ec *ExecutionContext) (*state.NodeResult, error)
}

// GenericHandler is the handler contract a Generic node's type tag
// dispatches to — the same shape as NodeExecutor, kept as a distinct named
// type so a GenericHandler registration cannot be confused with a Kind
// registration in Registry.
type GenericHandler = NodeExecutor

// Registry maps a NodeKind (or, for Generic nodes, a free-form type tag) to
// the NodeExecutor that handles it. Exactly one registry is shared by every
// execution of every workflow in a process.
type Registry struct {
	kinds   registry.Registry[NodeExecutor]
	generic registry.Registry[GenericHandler]
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		kinds:   registry.New[NodeExecutor](),
		generic: registry.New[GenericHandler](),
	}
}

// RegisterKind binds a NodeKind to the NodeExecutor that handles it.
func (r *Registry) RegisterKind(kind workflow.NodeKind, ex NodeExecutor) error {
	return r.kinds.Register(string(kind), ex)
}

// RegisterGeneric binds a Generic node's free-form type tag to a handler.
func (r *Registry) RegisterGeneric(typeTag string, h GenericHandler) error {
	return r.generic.Register(typeTag, h)
}

// ForNode resolves the NodeExecutor for node: by Kind, except for Generic
// nodes, which resolve by node.TypeTag against the generic-handler table.
func (r *Registry) ForNode(node workflow.Node) (NodeExecutor, error) {
	if node.Kind == workflow.KindGeneric {
		h, ok := r.generic.Get(node.TypeTag)
		if !ok {
			return nil, fmt.Errorf("executor: no generic handler registered for type %q (node %q)", node.TypeTag, node.ID)
		}
		return h, nil
	}
	ex, ok := r.kinds.Get(string(node.Kind))
	if !ok {
		return nil, fmt.Errorf("executor: no executor registered for kind %q (node %q)", node.Kind, node.ID)
	}
	return ex, nil
}

// NewDefaultRegistry returns a Registry with the six built-in strategies
// registered under their NodeKind, ready to accept additional Generic
// handler registrations from the caller.
func NewDefaultRegistry(tools action.Registry) *Registry {
	r := NewRegistry()
	_ = r.RegisterKind(workflow.KindStandard, &Standard{})
	_ = r.RegisterKind(workflow.KindParallel, &Parallel{})
	_ = r.RegisterKind(workflow.KindForkJoin, &ForkJoin{})
	_ = r.RegisterKind(workflow.KindLoop, &Loop{})
	_ = r.RegisterKind(workflow.KindAction, &Action{Handlers: tools})
	_ = r.RegisterKind(workflow.KindEnd, &End{})
	return r
}

// ExecutionContext is the read-mostly environment threaded into every
// strategy's Execute call: the mutable state being advanced, the immutable
// workflow definition, the agent and action registries, the observer, and
// the node-executor registry itself (so Parallel/ForkJoin/Loop can
// sub-dispatch to children without importing engine). TenantID is ambient
// per-execution data carried explicitly rather than through a context
// value or thread-local, per spec.md §9.
type ExecutionContext struct {
	State    *state.State
	Workflow *workflow.Workflow
	Agents   agent.Registry
	Actions  action.Registry
	Nodes    *Registry
	Observer observer.Observer
	TenantID string
}

// forChild returns an ExecutionContext for dispatching a child node inside
// a Parallel/ForkJoin/Loop body: same workflow, registries, observer, and
// tenant, but an independent shallow copy of State so concurrent children
// never race on the same context map.
func (ec *ExecutionContext) forChild(currentNodeID string) *ExecutionContext {
	childState := &state.State{
		ExecutionID:     ec.State.ExecutionID,
		WorkflowID:      ec.State.WorkflowID,
		CurrentNodeID:   currentNodeID,
		Context:         cloneContext(ec.State.Context),
		History:         ec.State.History,
		RubricEval:      ec.State.RubricEval,
		RetryCount:      0,
		LoopBreakTarget: ec.State.LoopBreakTarget,
	}
	return &ExecutionContext{
		State:    childState,
		Workflow: ec.Workflow,
		Agents:   ec.Agents,
		Actions:  ec.Actions,
		Nodes:    ec.Nodes,
		Observer: ec.Observer,
		TenantID: ec.TenantID,
	}
}

func cloneContext(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		out[k] = v
	}
	return out
}

// mergeContext merges src into dst in place, skipping any key already
// present in dst — the "earlier child wins" determinism rule spec.md §4.2
// and §9 document for Parallel/ForkJoin context merges.
func mergeContext(dst, src map[string]any) {
	for k, v := range src {
		if _, exists := dst[k]; !exists {
			dst[k] = v
		}
	}
}
