package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hensu-project/hensu-sub006/recovery"
)

// Leases narrows s to recovery.Manager.
func (s *Store) Leases() recovery.Manager { return leaseManager{s} }

type leaseManager struct{ s *Store }

var _ recovery.Manager = leaseManager{}

func (m leaseManager) ThisNodeID() string { return m.s.nodeID }

// Acquire inserts (or reclaims, if already owned by this node) a lease row
// for the given execution, stamped with the current heartbeat. A row owned
// by another node is left untouched and reported as *recovery.ErrNotOwned.
func (m leaseManager) Acquire(ctx context.Context, tenantID, executionID, snapshotRef string) error {
	res, err := m.s.db.ExecContext(ctx, `
		INSERT INTO leases (tenant_id, execution_id, server_node_id, last_heartbeat_at, snapshot_ref)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, ?)
		ON CONFLICT (tenant_id, execution_id) DO UPDATE SET
			server_node_id = excluded.server_node_id,
			last_heartbeat_at = excluded.last_heartbeat_at,
			snapshot_ref = excluded.snapshot_ref
		WHERE leases.server_node_id = excluded.server_node_id
	`, tenantID, executionID, m.s.nodeID, snapshotRef)
	if err != nil {
		return fmt.Errorf("sqlstore: acquire lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: acquire lease: %w", err)
	}
	if n == 0 {
		return &recovery.ErrNotOwned{TenantID: tenantID, ExecutionID: executionID}
	}
	return nil
}

// Release clears ownership of a lease this node holds. It is a no-op,
// not an error, if the row is already gone or owned elsewhere — release is
// called on the normal completion path, where losing a race with a
// sweeper is harmless.
func (m leaseManager) Release(ctx context.Context, tenantID, executionID string) error {
	_, err := m.s.db.ExecContext(ctx, `
		DELETE FROM leases WHERE tenant_id = ? AND execution_id = ? AND server_node_id = ?
	`, tenantID, executionID, m.s.nodeID)
	if err != nil {
		return fmt.Errorf("sqlstore: release lease: %w", err)
	}
	return nil
}

// UpdateHeartbeats refreshes last_heartbeat_at for every lease this node
// currently owns, in one statement.
func (m leaseManager) UpdateHeartbeats(ctx context.Context) error {
	_, err := m.s.db.ExecContext(ctx, `
		UPDATE leases SET last_heartbeat_at = CURRENT_TIMESTAMP WHERE server_node_id = ?
	`, m.s.nodeID)
	if err != nil {
		return fmt.Errorf("sqlstore: update heartbeats: %w", err)
	}
	return nil
}

// ClaimStaleExecutions atomically reassigns every lease whose heartbeat is
// older than threshold to this node, and returns the claimed rows. It runs
// in one transaction: a SELECT of the stale rows, then one UPDATE per row
// that re-checks the stale heartbeat, against a pool capped at one open
// connection (see Open), so two Store instances hitting the same database
// file serialize through sqlite's own locking: whichever UPDATE
// commits first flips server_node_id and last_heartbeat_at, and the
// second sweeper's WHERE clause (still matching on the old, stale
// last_heartbeat_at) then finds nothing left to claim. That is the
// exactly-once guarantee spec.md §4.6 requires, without a SELECT ...
// FOR UPDATE sqlite doesn't have.
func (m leaseManager) ClaimStaleExecutions(ctx context.Context, threshold time.Duration) ([]recovery.Lease, error) {
	cutoff := time.Now().Add(-threshold)

	tx, err := m.s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: claim stale: begin: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT tenant_id, execution_id, snapshot_ref
		FROM leases
		WHERE last_heartbeat_at < ? AND server_node_id != ?
	`, cutoff, m.s.nodeID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: claim stale: select: %w", err)
	}
	var claimed []recovery.Lease
	for rows.Next() {
		var l recovery.Lease
		if err := rows.Scan(&l.TenantID, &l.ExecutionID, &l.SnapshotRef); err != nil {
			rows.Close()
			return nil, err
		}
		claimed = append(claimed, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range claimed {
		res, err := tx.ExecContext(ctx, `
			UPDATE leases SET server_node_id = ?, last_heartbeat_at = CURRENT_TIMESTAMP
			WHERE tenant_id = ? AND execution_id = ? AND last_heartbeat_at < ?
		`, m.s.nodeID, claimed[i].TenantID, claimed[i].ExecutionID, cutoff)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: claim stale: update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			// Another node's transaction committed first; drop it from
			// this batch so the caller never resumes an execution it
			// doesn't actually own.
			claimed[i].ServerNodeID = ""
			continue
		}
		claimed[i].ServerNodeID = m.s.nodeID
		claimed[i].LastHeartbeatAt = time.Now()
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlstore: claim stale: commit: %w", err)
	}

	out := claimed[:0]
	for _, l := range claimed {
		if l.ServerNodeID != "" {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m leaseManager) IsActive(ctx context.Context, tenantID, executionID string) (bool, error) {
	var lastHeartbeat time.Time
	err := m.s.db.QueryRowContext(ctx, `
		SELECT last_heartbeat_at FROM leases WHERE tenant_id = ? AND execution_id = ?
	`, tenantID, executionID).Scan(&lastHeartbeat)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlstore: is active: %w", err)
	}
	return true, nil
}
