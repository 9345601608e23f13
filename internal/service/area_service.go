package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
)

// AreaService manages hospital areas.
type AreaService struct {
	Base
	areas   repository.AreaRepository
	tickets repository.TicketRepository
}

// AreaDependencies bundles repositories for the area service.
type AreaDependencies struct {
	Base
	AreaRepo   repository.AreaRepository
	TicketRepo repository.TicketRepository
}

// NewAreaService constructs the service.
func NewAreaService(deps AreaDependencies) *AreaService {
	return &AreaService{Base: deps.Base, areas: deps.AreaRepo, tickets: deps.TicketRepo}
}

// CreateArea registers a new active area.
func (s *AreaService) CreateArea(ctx context.Context, actor domain.Actor, name, description string) (*domain.Area, error) {
	area, err := domain.NewArea(name, description, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.areas.Save(ctx, area); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, domain.NewAuditEntry(actor.ID, domain.AuditAreaCreated, domain.AuditEntityArea, area.ID,
		nil, areaSnapshot(area), s.now()))
	return area, nil
}

// GetArea loads an area.
func (s *AreaService) GetArea(ctx context.Context, id string) (*domain.Area, error) {
	area, err := s.areas.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "area", id)
	}
	return area, nil
}

// ListAreas lists areas ordered by name.
func (s *AreaService) ListAreas(ctx context.Context, activeOnly bool) ([]domain.Area, error) {
	return s.areas.List(ctx, activeOnly)
}

// DeactivateArea retires an area once no ticket in it is still being worked.
func (s *AreaService) DeactivateArea(ctx context.Context, actor domain.Actor, id string) (*domain.Area, error) {
	area, err := s.GetArea(ctx, id)
	if err != nil {
		return nil, err
	}
	if !area.Active {
		return nil, &domain.AlreadyDeactivatedError{Entity: "area", ID: area.ID}
	}

	active, err := s.tickets.CountByAreaAndStatus(ctx, area.ID, domain.ActiveStatuses)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, &domain.ConflictError{
			Message: fmt.Sprintf("area %s still has %d active tickets", area.ID, active),
			Details: map[string]any{"active_tickets": active},
		}
	}

	before := areaSnapshot(area)
	if err := area.Deactivate(s.now()); err != nil {
		return nil, err
	}
	if err := s.areas.Update(ctx, area); err != nil {
		return nil, notFound(err, "area", id)
	}
	s.recordAudit(ctx, domain.NewAuditEntry(actor.ID, domain.AuditAreaDeactivated, domain.AuditEntityArea, area.ID,
		before, areaSnapshot(area), s.now()))
	return area, nil
}

func areaSnapshot(a *domain.Area) map[string]any {
	return map[string]any{
		"name":        a.Name,
		"description": a.Description,
		"active":      a.Active,
	}
}
