// Package sqlstore is a concrete, swappable reference implementation of
// repository.WorkflowRepository, repository.SnapshotRepository,
// repository.RubricRepository, and recovery.Manager over database/sql,
// backed by modernc.org/sqlite (pure Go, no cgo) and migrated with
// pressly/goose. It exists to exercise the recovery subsystem's
// linearizable claim invariant (spec.md §4.6) end-to-end against a real
// engine, not as a mandated production backend.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/hensu-project/hensu-sub006/rubric"
	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a single sqlite-backed connection pool implementing every
// storage capability interface the core defines, plus recovery.Manager.
type Store struct {
	db     *sql.DB
	nodeID string
}

// Open opens (creating if absent) a sqlite database at dsn, runs pending
// goose migrations, and returns a ready Store. nodeID identifies this
// process for lease ownership (recovery.Manager.ThisNodeID).
func Open(ctx context.Context, dsn, nodeID string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite: serialize writers to avoid SQLITE_BUSY

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}

	return &Store{db: db, nodeID: nodeID}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- WorkflowRepository ---
//
// These are named distinctly from the SnapshotRepository methods below
// (SaveWorkflow vs SaveSnapshot, DeleteWorkflow vs DeleteSnapshot) because
// Go does not allow two methods of the same name with different parameter
// types on one receiver; the Workflows()/Snapshots()/Rubrics() adapters in
// adapters.go narrow Store to each repository.* interface
// under the interface's own method names.

func (s *Store) SaveWorkflow(ctx context.Context, tenantID string, wf *workflow.Workflow) error {
	data, err := json.Marshal(wf)
	if err != nil {
		return fmt.Errorf("sqlstore: marshal workflow: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflows (tenant_id, id, data) VALUES (?, ?, ?)
		ON CONFLICT (tenant_id, id) DO UPDATE SET data = excluded.data
	`, tenantID, wf.ID, data)
	if err != nil {
		return fmt.Errorf("sqlstore: save workflow: %w", err)
	}
	return nil
}

func (s *Store) FindWorkflowByID(ctx context.Context, tenantID, workflowID string) (*workflow.Workflow, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM workflows WHERE tenant_id = ? AND id = ?`, tenantID, workflowID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: find workflow: %w", err)
	}
	var wf workflow.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("sqlstore: unmarshal workflow: %w", err)
	}
	return &wf, nil
}

func (s *Store) FindAllWorkflows(ctx context.Context, tenantID string) ([]*workflow.Workflow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM workflows WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: find all workflows: %w", err)
	}
	defer rows.Close()

	var out []*workflow.Workflow
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var wf workflow.Workflow
		if err := json.Unmarshal(data, &wf); err != nil {
			return nil, err
		}
		out = append(out, &wf)
	}
	return out, rows.Err()
}

func (s *Store) WorkflowExists(ctx context.Context, tenantID, workflowID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM workflows WHERE tenant_id = ? AND id = ?`, tenantID, workflowID).Scan(&count)
	return count > 0, err
}

func (s *Store) DeleteWorkflow(ctx context.Context, tenantID, workflowID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE tenant_id = ? AND id = ?`, tenantID, workflowID)
	return err
}

func (s *Store) DeleteAllForTenant(ctx context.Context, tenantID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM leases WHERE tenant_id = ?`, tenantID)
	return err
}

func (s *Store) CountWorkflows(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM workflows WHERE tenant_id = ?`, tenantID).Scan(&count)
	return count, err
}

// --- RubricRepository ---

func (s *Store) SaveRubric(ctx context.Context, r *rubric.Rubric) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("sqlstore: marshal rubric: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rubrics (id, data) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data
	`, r.ID, data)
	return err
}

func (s *Store) FindRubricByID(ctx context.Context, id string) (*rubric.Rubric, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM rubrics WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: find rubric: %w", err)
	}
	var r rubric.Rubric
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) RubricExists(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rubrics WHERE id = ?`, id).Scan(&count)
	return count > 0, err
}
