package sqlstore

import (
	"context"

	"github.com/hensu-project/hensu-sub006/repository"
	"github.com/hensu-project/hensu-sub006/rubric"
	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// Workflows narrows s to repository.WorkflowRepository.
func (s *Store) Workflows() repository.WorkflowRepository { return workflowRepo{s} }

// Snapshots narrows s to repository.SnapshotRepository.
func (s *Store) Snapshots() repository.SnapshotRepository { return snapshotRepo{s} }

// Rubrics narrows s to repository.RubricRepository (and, via FindByID,
// to rubric.Source for direct injection into rubric.Engine).
func (s *Store) Rubrics() repository.RubricRepository { return rubricRepo{s} }

type workflowRepo struct{ s *Store }

func (r workflowRepo) Save(ctx context.Context, tenantID string, wf *workflow.Workflow) error {
	return r.s.SaveWorkflow(ctx, tenantID, wf)
}
func (r workflowRepo) FindByID(ctx context.Context, tenantID, workflowID string) (*workflow.Workflow, error) {
	return r.s.FindWorkflowByID(ctx, tenantID, workflowID)
}
func (r workflowRepo) FindAll(ctx context.Context, tenantID string) ([]*workflow.Workflow, error) {
	return r.s.FindAllWorkflows(ctx, tenantID)
}
func (r workflowRepo) Exists(ctx context.Context, tenantID, workflowID string) (bool, error) {
	return r.s.WorkflowExists(ctx, tenantID, workflowID)
}
func (r workflowRepo) Delete(ctx context.Context, tenantID, workflowID string) error {
	return r.s.DeleteWorkflow(ctx, tenantID, workflowID)
}
func (r workflowRepo) DeleteAllForTenant(ctx context.Context, tenantID string) error {
	return r.s.DeleteAllForTenant(ctx, tenantID)
}
func (r workflowRepo) Count(ctx context.Context, tenantID string) (int, error) {
	return r.s.CountWorkflows(ctx, tenantID)
}

type snapshotRepo struct{ s *Store }

func (r snapshotRepo) Save(ctx context.Context, tenantID string, snap *state.Snapshot) error {
	return r.s.SaveSnapshot(ctx, tenantID, snap)
}
func (r snapshotRepo) FindByExecutionID(ctx context.Context, tenantID, executionID string) (*state.Snapshot, error) {
	return r.s.FindByExecutionID(ctx, tenantID, executionID)
}
func (r snapshotRepo) FindPaused(ctx context.Context, tenantID string) ([]*state.Snapshot, error) {
	return r.s.FindPaused(ctx, tenantID)
}
func (r snapshotRepo) FindByWorkflowID(ctx context.Context, tenantID, workflowID string) ([]*state.Snapshot, error) {
	return r.s.FindByWorkflowID(ctx, tenantID, workflowID)
}
func (r snapshotRepo) Delete(ctx context.Context, tenantID, executionID string) error {
	return r.s.DeleteSnapshot(ctx, tenantID, executionID)
}
func (r snapshotRepo) DeleteAllForTenant(ctx context.Context, tenantID string) error {
	return r.s.DeleteAllForTenant(ctx, tenantID)
}

type rubricRepo struct{ s *Store }

func (r rubricRepo) Save(ctx context.Context, rb *rubric.Rubric) error {
	return r.s.SaveRubric(ctx, rb)
}
func (r rubricRepo) FindByID(ctx context.Context, id string) (*rubric.Rubric, error) {
	return r.s.FindRubricByID(ctx, id)
}
func (r rubricRepo) Exists(ctx context.Context, id string) (bool, error) {
	return r.s.RubricExists(ctx, id)
}

var (
	_ repository.WorkflowRepository = workflowRepo{}
	_ repository.SnapshotRepository = snapshotRepo{}
	_ repository.RubricRepository   = rubricRepo{}
	_ rubric.Source                 = rubricRepo{}
)
