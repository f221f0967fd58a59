// Package repository declares the storage capability interfaces spec.md §6
// names — WorkflowRepository, SnapshotRepository, RubricRepository — plus a
// concrete, swappable reference implementation in the sqlstore
// subpackage. The core never depends on sqlstore; engine.Executor and the
// recovery subsystem depend only on these interfaces.
package repository

import (
	"context"

	"github.com/hensu-project/hensu-sub006/rubric"
	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// WorkflowRepository persists and retrieves Workflow definitions,
// tenant-scoped.
type WorkflowRepository interface {
	Save(ctx context.Context, tenantID string, wf *workflow.Workflow) error
	FindByID(ctx context.Context, tenantID, workflowID string) (*workflow.Workflow, error)
	FindAll(ctx context.Context, tenantID string) ([]*workflow.Workflow, error)
	Exists(ctx context.Context, tenantID, workflowID string) (bool, error)
	Delete(ctx context.Context, tenantID, workflowID string) error
	DeleteAllForTenant(ctx context.Context, tenantID string) error
	Count(ctx context.Context, tenantID string) (int, error)
}

// SnapshotRepository persists and retrieves execution Snapshots,
// tenant-scoped.
type SnapshotRepository interface {
	Save(ctx context.Context, tenantID string, snap *state.Snapshot) error
	FindByExecutionID(ctx context.Context, tenantID, executionID string) (*state.Snapshot, error)
	// FindPaused returns every snapshot whose CurrentNodeID is not the
	// terminal sentinel — executions that are paused or mid-flight.
	FindPaused(ctx context.Context, tenantID string) ([]*state.Snapshot, error)
	FindByWorkflowID(ctx context.Context, tenantID, workflowID string) ([]*state.Snapshot, error)
	Delete(ctx context.Context, tenantID, executionID string) error
	DeleteAllForTenant(ctx context.Context, tenantID string) error
}

// RubricRepository persists and retrieves Rubric definitions, id-indexed.
// It satisfies rubric.Source structurally.
type RubricRepository interface {
	Save(ctx context.Context, r *rubric.Rubric) error
	FindByID(ctx context.Context, id string) (*rubric.Rubric, error)
	Exists(ctx context.Context, id string) (bool, error)
}
