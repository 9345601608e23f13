package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// WorkflowRepository stores workflow versions per area.
type WorkflowRepository interface {
	Save(ctx context.Context, wf *domain.Workflow) error
	FindLatestByAreaID(ctx context.Context, areaID string) (*domain.Workflow, error)
	FindByAreaID(ctx context.Context, areaID string) ([]domain.Workflow, error)
}

type workflowRepository struct {
	db DB
}

// NewWorkflowRepository builds the repository.
func NewWorkflowRepository(db DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

const workflowColumns = `id, area_id, version, transitions, required_fields, created_by, created_at, updated_at`

func (r *workflowRepository) Save(ctx context.Context, wf *domain.Workflow) error {
	transitions, err := json.Marshal(wf.Transitions)
	if err != nil {
		return fmt.Errorf("encode transitions: %w", err)
	}
	required, err := json.Marshal(wf.RequiredFields)
	if err != nil {
		return fmt.Errorf("encode required fields: %w", err)
	}
	const query = `
        INSERT INTO workflows (id, area_id, version, transitions, required_fields, created_by, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	if _, err := r.db.Exec(ctx, query,
		wf.ID,
		wf.AreaID,
		wf.Version,
		string(transitions),
		string(required),
		wf.CreatedBy,
		wf.CreatedAt,
		wf.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

// FindLatestByAreaID returns the highest version, or pgx.ErrNoRows when the
// area never had a workflow.
func (r *workflowRepository) FindLatestByAreaID(ctx context.Context, areaID string) (*domain.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE area_id=$1 ORDER BY version DESC LIMIT 1`
	return scanWorkflow(r.db.QueryRow(ctx, query, areaID))
}

// FindByAreaID lists every version, newest first.
func (r *workflowRepository) FindByAreaID(ctx context.Context, areaID string) ([]domain.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE area_id=$1 ORDER BY version DESC`
	rows, err := r.db.Query(ctx, query, areaID)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var result []domain.Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *wf)
	}
	return result, rows.Err()
}

func scanWorkflow(row pgx.Row) (*domain.Workflow, error) {
	var (
		wf          domain.Workflow
		transitions []byte
		required    []byte
	)
	if err := row.Scan(
		&wf.ID,
		&wf.AreaID,
		&wf.Version,
		&transitions,
		&required,
		&wf.CreatedBy,
		&wf.CreatedAt,
		&wf.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(transitions, &wf.Transitions); err != nil {
		return nil, fmt.Errorf("decode transitions of workflow %s: %w", wf.ID, err)
	}
	if err := json.Unmarshal(required, &wf.RequiredFields); err != nil {
		return nil, fmt.Errorf("decode required fields of workflow %s: %w", wf.ID, err)
	}
	return &wf, nil
}
