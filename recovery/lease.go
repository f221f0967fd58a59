package recovery

import (
	"context"
	"time"
)

// Lease describes one execution's ownership row (spec.md §4.6's
// conceptual leases table), keyed by (tenantId, executionId).
type Lease struct {
	TenantID        string
	ExecutionID     string
	ServerNodeID    string // empty means unowned — the sweeper ignores it
	LastHeartbeatAt time.Time
	SnapshotRef     string
}

// Manager is the LeaseManager capability spec.md §6 names. Acquire is
// called at execution start and again at every checkpoint, which refreshes
// the lease's heartbeat; claimStaleExecutions must be
// linearizable under READ COMMITTED so that two concurrent sweepers never
// both claim the same row (spec.md §4.6's invariant, spec.md §8's
// "Recovery safety" testable property).
type Manager interface {
	Acquire(ctx context.Context, tenantID, executionID, snapshotRef string) error
	Release(ctx context.Context, tenantID, executionID string) error
	UpdateHeartbeats(ctx context.Context) error
	ClaimStaleExecutions(ctx context.Context, threshold time.Duration) ([]Lease, error)
	IsActive(ctx context.Context, tenantID, executionID string) (bool, error)
	ThisNodeID() string
}

// ErrNotOwned reports that Release or an update was attempted against a
// lease this node does not currently own — typically because a sweeper on
// another node already reclaimed it.
type ErrNotOwned struct {
	TenantID    string
	ExecutionID string
}

func (e *ErrNotOwned) Error() string {
	return "recovery: execution " + e.ExecutionID + " (tenant " + e.TenantID + ") is not owned by this node"
}
