package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// SLARepository stores one SLA per area.
type SLARepository interface {
	Save(ctx context.Context, sla *domain.SLA) error
	FindByAreaID(ctx context.Context, areaID string) (*domain.SLA, error)
}

type slaRepository struct {
	db DB
}

// NewSLARepository builds the repository.
func NewSLARepository(db DB) SLARepository {
	return &slaRepository{db: db}
}

// Save inserts the SLA or overwrites the area's existing one in place.
func (r *slaRepository) Save(ctx context.Context, sla *domain.SLA) error {
	const query = `
        INSERT INTO slas (id, area_id, response_time_minutes, resolution_time_minutes, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (area_id) DO UPDATE SET
            response_time_minutes=EXCLUDED.response_time_minutes,
            resolution_time_minutes=EXCLUDED.resolution_time_minutes,
            updated_at=EXCLUDED.updated_at`
	if _, err := r.db.Exec(ctx, query,
		sla.ID,
		sla.AreaID,
		sla.ResponseTimeMinutes,
		sla.ResolutionTimeMinutes,
		sla.CreatedAt,
		sla.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert sla: %w", err)
	}
	return nil
}

func (r *slaRepository) FindByAreaID(ctx context.Context, areaID string) (*domain.SLA, error) {
	const query = `
        SELECT id, area_id, response_time_minutes, resolution_time_minutes, created_at, updated_at
        FROM slas WHERE area_id=$1`
	var sla domain.SLA
	if err := r.db.QueryRow(ctx, query, areaID).Scan(
		&sla.ID,
		&sla.AreaID,
		&sla.ResponseTimeMinutes,
		&sla.ResolutionTimeMinutes,
		&sla.CreatedAt,
		&sla.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sla, nil
}
