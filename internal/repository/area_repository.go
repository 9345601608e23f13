package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// AreaRepository manages area persistence.
type AreaRepository interface {
	Save(ctx context.Context, area *domain.Area) error
	Update(ctx context.Context, area *domain.Area) error
	FindByID(ctx context.Context, id string) (*domain.Area, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Area, error)
}

type areaRepository struct {
	db DB
}

// NewAreaRepository builds the repository.
func NewAreaRepository(db DB) AreaRepository {
	return &areaRepository{db: db}
}

func (r *areaRepository) Save(ctx context.Context, area *domain.Area) error {
	const query = `
        INSERT INTO areas (id, name, description, active, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	if _, err := r.db.Exec(ctx, query,
		area.ID,
		area.Name,
		area.Description,
		area.Active,
		area.CreatedAt,
		area.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert area: %w", err)
	}
	return nil
}

func (r *areaRepository) Update(ctx context.Context, area *domain.Area) error {
	const query = `
        UPDATE areas SET name=$1, description=$2, active=$3, updated_at=$4
        WHERE id=$5`
	cmd, err := r.db.Exec(ctx, query,
		area.Name,
		area.Description,
		area.Active,
		area.UpdatedAt,
		area.ID,
	)
	if err != nil {
		return fmt.Errorf("update area: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *areaRepository) FindByID(ctx context.Context, id string) (*domain.Area, error) {
	const query = `
        SELECT id, name, description, active, created_at, updated_at
        FROM areas WHERE id=$1`
	var area domain.Area
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&area.ID,
		&area.Name,
		&area.Description,
		&area.Active,
		&area.CreatedAt,
		&area.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &area, nil
}

func (r *areaRepository) List(ctx context.Context, activeOnly bool) ([]domain.Area, error) {
	query := `
        SELECT id, name, description, active, created_at, updated_at
        FROM areas`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	defer rows.Close()

	var result []domain.Area
	for rows.Next() {
		var area domain.Area
		if err := rows.Scan(&area.ID, &area.Name, &area.Description, &area.Active, &area.CreatedAt, &area.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, area)
	}
	return result, rows.Err()
}
