// Package action defines the server-side ActionHandler capability an
// Action node dispatches to, and the tagged Action value spec.md §4.2
// attaches to an Action node.
package action

import (
	"context"
	"fmt"

	"github.com/hensu-project/hensu-sub006/registry"
)

// Result is what a Handler returns for one dispatched Action.
type Result struct {
	Success bool
	Output  map[string]any
	Reason  string // populated when Success is false
}

// Handler is a named, server-side action target. ActionKind SEND values
// dispatch to the Handler whose HandlerID matches.
type Handler interface {
	HandlerID() string
	Execute(ctx context.Context, payload map[string]any, execCtx map[string]any) (*Result, error)
}

// Registry is the name→Handler lookup an Action node executor consults.
type Registry = registry.Registry[Handler]

// NewRegistry returns an empty Registry.
func NewRegistry() Registry {
	return registry.New[Handler]()
}

// NotFoundError reports that an Action node names a handler id with no
// registered Handler.
type NotFoundError struct {
	HandlerID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("action: handler %q not registered", e.HandlerID)
}

// LocalOnlyError reports that an ACTION_EXECUTE action (reserved for local,
// non-server modes per spec.md §4.2) was dispatched in a server context.
type LocalOnlyError struct {
	CommandID string
}

func (e *LocalOnlyError) Error() string {
	return fmt.Sprintf("action: command %q is local-only and must fail in server contexts", e.CommandID)
}
