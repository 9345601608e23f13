package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
)

// SLAService configures the service level of each area.
type SLAService struct {
	Base
	areas repository.AreaRepository
	slas  repository.SLARepository
}

// SLADependencies bundles repositories for the SLA service.
type SLADependencies struct {
	Base
	AreaRepo repository.AreaRepository
	SLARepo  repository.SLARepository
}

// NewSLAService constructs the service.
func NewSLAService(deps SLADependencies) *SLAService {
	return &SLAService{Base: deps.Base, areas: deps.AreaRepo, slas: deps.SLARepo}
}

// ConfigureSLA creates the area's SLA or updates it in place. Existing tickets
// keep the target computed when they were opened.
func (s *SLAService) ConfigureSLA(ctx context.Context, actor domain.Actor, areaID string, responseMinutes, resolutionMinutes int) (*domain.SLA, error) {
	if err := domain.ValidateSLAMinutes(responseMinutes, resolutionMinutes); err != nil {
		return nil, err
	}
	if _, err := s.areas.FindByID(ctx, areaID); err != nil {
		return nil, notFound(err, "area", areaID)
	}

	now := s.now()
	action := domain.AuditSLAUpdated
	var before map[string]any

	sla, err := s.slas.FindByAreaID(ctx, areaID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		action = domain.AuditSLACreated
		sla, err = domain.NewSLA(areaID, responseMinutes, resolutionMinutes, now)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		before = slaSnapshot(sla)
		if err := sla.Update(responseMinutes, resolutionMinutes, now); err != nil {
			return nil, err
		}
	}

	if err := s.slas.Save(ctx, sla); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, domain.NewAuditEntry(actor.ID, action, domain.AuditEntitySLA, sla.ID, before, slaSnapshot(sla), now))
	s.publish(ctx, []domain.DomainEvent{
		domain.NewDomainEvent(domain.EventSLAConfigured, areaID, now, domain.SLAConfiguredPayload{
			AreaID:                areaID,
			ResponseTimeMinutes:   sla.ResponseTimeMinutes,
			ResolutionTimeMinutes: sla.ResolutionTimeMinutes,
		}),
	})
	return sla, nil
}

// GetSLA returns the area's current SLA.
func (s *SLAService) GetSLA(ctx context.Context, areaID string) (*domain.SLA, error) {
	sla, err := s.slas.FindByAreaID(ctx, areaID)
	if err != nil {
		return nil, notFound(err, "sla", areaID)
	}
	return sla, nil
}

func slaSnapshot(sla *domain.SLA) map[string]any {
	return map[string]any{
		"areaId":                sla.AreaID,
		"responseTimeMinutes":   sla.ResponseTimeMinutes,
		"resolutionTimeMinutes": sla.ResolutionTimeMinutes,
	}
}
