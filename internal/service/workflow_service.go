package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
)

// WorkflowService configures the per-area transition workflow.
type WorkflowService struct {
	Base
	areas     repository.AreaRepository
	workflows repository.WorkflowRepository
}

// WorkflowDependencies bundles repositories for the workflow service.
// WorkflowRepo is usually the Redis-cached repository.
type WorkflowDependencies struct {
	Base
	AreaRepo     repository.AreaRepository
	WorkflowRepo repository.WorkflowRepository
}

// NewWorkflowService constructs the service.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	return &WorkflowService{Base: deps.Base, areas: deps.AreaRepo, workflows: deps.WorkflowRepo}
}

// ConfigureWorkflow validates the graph and stores it as the area's newest
// version. Nothing is stored when validation fails.
func (s *WorkflowService) ConfigureWorkflow(ctx context.Context, actor domain.Actor, areaID string, transitions domain.TransitionGraph, required domain.RequiredFields) (*domain.Workflow, error) {
	if _, err := s.areas.FindByID(ctx, areaID); err != nil {
		return nil, notFound(err, "area", areaID)
	}
	previous, err := s.ActiveWorkflow(ctx, areaID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	wf, err := domain.NewWorkflowVersion(areaID, actor.ID, transitions, required, previous, now)
	if err != nil {
		return nil, err
	}
	if err := s.workflows.Save(ctx, wf); err != nil {
		return nil, err
	}

	action := domain.AuditWorkflowCreated
	var before map[string]any
	if previous != nil {
		action = domain.AuditWorkflowUpdated
		before = workflowSnapshot(previous)
	}
	s.recordAudit(ctx, domain.NewAuditEntry(actor.ID, action, domain.AuditEntityWorkflow, wf.ID, before, workflowSnapshot(wf), now))
	s.publish(ctx, []domain.DomainEvent{
		domain.NewDomainEvent(domain.EventWorkflowConfigured, areaID, now, domain.WorkflowConfiguredPayload{
			WorkflowID: wf.ID,
			AreaID:     areaID,
			Version:    wf.Version,
		}),
	})
	return wf, nil
}

// ActiveWorkflow returns the newest workflow of the area, or nil when the
// area never configured one.
func (s *WorkflowService) ActiveWorkflow(ctx context.Context, areaID string) (*domain.Workflow, error) {
	wf, err := s.workflows.FindLatestByAreaID(ctx, areaID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return wf, nil
}

// GetActiveWorkflow is ActiveWorkflow with a NotFoundError for areas without one.
func (s *WorkflowService) GetActiveWorkflow(ctx context.Context, areaID string) (*domain.Workflow, error) {
	wf, err := s.ActiveWorkflow(ctx, areaID)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, &domain.NotFoundError{Resource: "workflow", ID: areaID}
	}
	return wf, nil
}

// ListWorkflowVersions returns every version of the area, newest first.
func (s *WorkflowService) ListWorkflowVersions(ctx context.Context, areaID string) ([]domain.Workflow, error) {
	if _, err := s.areas.FindByID(ctx, areaID); err != nil {
		return nil, notFound(err, "area", areaID)
	}
	return s.workflows.FindByAreaID(ctx, areaID)
}

func workflowSnapshot(wf *domain.Workflow) map[string]any {
	return map[string]any{
		"version":        wf.Version,
		"transitions":    wf.Transitions,
		"requiredFields": wf.RequiredFields,
	}
}
