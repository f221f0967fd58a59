package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// SaveSnapshot persists snap, overwriting any prior snapshot for the same
// (tenantID, executionID).
func (s *Store) SaveSnapshot(ctx context.Context, tenantID string, snap *state.Snapshot) error {
	data, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("sqlstore: encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (tenant_id, execution_id, workflow_id, current_node_id, data, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (tenant_id, execution_id) DO UPDATE SET
			workflow_id = excluded.workflow_id,
			current_node_id = excluded.current_node_id,
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`, tenantID, snap.ExecutionID, snap.WorkflowID, snap.CurrentNodeID, data)
	if err != nil {
		return fmt.Errorf("sqlstore: save snapshot: %w", err)
	}
	return nil
}

func (s *Store) FindByExecutionID(ctx context.Context, tenantID, executionID string) (*state.Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM snapshots WHERE tenant_id = ? AND execution_id = ?
	`, tenantID, executionID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: find snapshot: %w", err)
	}
	return state.Decode(data)
}

// FindPaused returns every snapshot for tenantID whose CurrentNodeID is not
// the terminal sentinel.
func (s *Store) FindPaused(ctx context.Context, tenantID string) ([]*state.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM snapshots WHERE tenant_id = ? AND current_node_id != ?
	`, tenantID, workflow.Terminal)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: find paused snapshots: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

func (s *Store) FindByWorkflowID(ctx context.Context, tenantID, workflowID string) ([]*state.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM snapshots WHERE tenant_id = ? AND workflow_id = ?
	`, tenantID, workflowID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: find snapshots by workflow: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

func (s *Store) DeleteSnapshot(ctx context.Context, tenantID, executionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE tenant_id = ? AND execution_id = ?`, tenantID, executionID)
	return err
}

func scanSnapshots(rows *sql.Rows) ([]*state.Snapshot, error) {
	var out []*state.Snapshot
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		snap, err := state.Decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
