package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
)

// TicketService coordinates the ticket lifecycle.
type TicketService struct {
	Base
	tickets   repository.TicketRepository
	areas     repository.AreaRepository
	slas      repository.SLARepository
	workflows repository.WorkflowRepository
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	Base
	TicketRepo   repository.TicketRepository
	AreaRepo     repository.AreaRepository
	SLARepo      repository.SLARepository
	WorkflowRepo repository.WorkflowRepository
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	AreaID      string
	Title       string
	Description string
	Priority    domain.TicketPriority
}

// TransitionInput carries the optional field updates applied before the
// required-field check, and an optional expected version.
type TransitionInput struct {
	ResolutionSummary *string
	ExpectedVersion   *int
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	AreaID      *string
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketSLAStatus is a live SLA evaluation of one ticket.
type TicketSLAStatus struct {
	TicketID         string
	SLATargetAt      *time.Time
	Breached         bool
	StoredBreached   bool
	RemainingMinutes *float64
	EvaluatedAt      time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		Base:      deps.Base,
		tickets:   deps.TicketRepo,
		areas:     deps.AreaRepo,
		slas:      deps.SLARepo,
		workflows: deps.WorkflowRepo,
	}
}

// CreateTicket opens a ticket in an active area on behalf of actor.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, domain.NewValidationError("title", "is required")
	}
	if input.Priority != "" && !input.Priority.Valid() {
		return nil, domain.NewValidationError("priority", "must be LOW, MEDIUM, HIGH or URGENT")
	}

	area, err := s.areas.FindByID(ctx, input.AreaID)
	if err != nil {
		return nil, notFound(err, "area", input.AreaID)
	}
	if !area.Active {
		return nil, &domain.ConflictError{
			Message: fmt.Sprintf("area %s is inactive", area.ID),
			Details: map[string]any{"area_id": area.ID},
		}
	}

	sla, err := s.slas.FindByAreaID(ctx, area.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		sla = nil
		s.logger().Warn("area has no SLA configured, using zero resolution budget", zap.String("area_id", area.ID))
	} else if err != nil {
		return nil, err
	}

	ticket := domain.NewTicket(domain.NewTicketParams{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		RequesterID: actor.ID,
		AreaID:      area.ID,
	}, sla, s.now())

	if err := s.tickets.Save(ctx, ticket); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, domain.NewAuditEntry(actor.ID, domain.AuditTicketCreated, domain.AuditEntityTicket, ticket.ID,
		nil, ticket.Snapshot(), ticket.CreatedAt))
	s.publish(ctx, ticket.PullDomainEvents())
	return ticket, nil
}

// AssignTicket sets the assignee. An OPEN ticket also moves to ASSIGNED when
// the area's policy allows it.
func (s *TicketService) AssignTicket(ctx context.Context, actor domain.Actor, id, assigneeID string) (*domain.Ticket, error) {
	assigneeID = strings.TrimSpace(assigneeID)
	if assigneeID == "" {
		return nil, domain.NewValidationError("assigneeId", "is required")
	}
	ticket, err := s.loadTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	switch ticket.Status {
	case domain.TicketStatusClosed:
		return nil, &domain.AlreadyClosedError{TicketID: ticket.ID}
	case domain.TicketStatusCancelled:
		return nil, &domain.ConflictError{
			Message: fmt.Sprintf("ticket %s is cancelled", ticket.ID),
			Details: map[string]any{"status": ticket.Status},
		}
	}

	policy, err := s.policyFor(ctx, ticket.AreaID)
	if err != nil {
		return nil, err
	}

	before := ticket.Snapshot()
	now := s.now()
	ticket.Assign(assigneeID, now)
	if ticket.Status == domain.TicketStatusOpen && domain.CanTransition(policy, domain.TicketStatusOpen, domain.TicketStatusAssigned) {
		if err := domain.Transition(ticket, domain.TicketStatusAssigned, policy, now); err != nil {
			return nil, err
		}
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, domain.NewAuditEntry(actor.ID, domain.AuditTicketAssigned, domain.AuditEntityTicket, ticket.ID,
		before, ticket.Snapshot(), now))
	s.publish(ctx, ticket.PullDomainEvents())
	return ticket, nil
}

// TransitionTicketStatus moves the ticket to target through the area's policy.
func (s *TicketService) TransitionTicketStatus(ctx context.Context, actor domain.Actor, id string, target domain.TicketStatus, input TransitionInput) (*domain.Ticket, error) {
	target = domain.TicketStatus(strings.TrimSpace(string(target)))
	if target == "" {
		return nil, domain.NewValidationError("status", "is required")
	}
	ticket, err := s.loadTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.ExpectedVersion != nil && *input.ExpectedVersion != ticket.Version {
		return nil, &domain.ConcurrentModificationError{Entity: "ticket", ID: ticket.ID}
	}

	wf, err := s.activeWorkflow(ctx, ticket.AreaID)
	if err != nil {
		return nil, err
	}
	policy := domain.PolicyFor(wf)

	before := ticket.Snapshot()
	now := s.now()
	if input.ResolutionSummary != nil {
		ticket.SetResolutionSummary(*input.ResolutionSummary, now)
	}
	if err := domain.Transition(ticket, target, policy, now); err != nil {
		return nil, err
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	action := domain.AuditTicketStatusChanged
	if target == domain.TicketStatusClosed {
		action = domain.AuditTicketClosed
	}
	s.recordAudit(ctx, domain.NewAuditEntry(actor.ID, action, domain.AuditEntityTicket, ticket.ID,
		before, ticket.Snapshot(), now))
	s.publish(ctx, ticket.PullDomainEvents())
	return ticket, nil
}

// CloseTicket closes the ticket with a resolution summary. A ticket that is
// not yet RESOLVED is resolved first; both steps go through the policy and
// the ticket is stored once.
func (s *TicketService) CloseTicket(ctx context.Context, actor domain.Actor, id, resolutionSummary string) (*domain.Ticket, error) {
	if strings.TrimSpace(resolutionSummary) == "" {
		return nil, &domain.MissingRequiredFieldError{Field: domain.FieldResolutionSummary, Status: domain.TicketStatusClosed}
	}
	ticket, err := s.loadTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, &domain.AlreadyClosedError{TicketID: ticket.ID}
	}
	policy, err := s.policyFor(ctx, ticket.AreaID)
	if err != nil {
		return nil, err
	}

	before := ticket.Snapshot()
	now := s.now()
	ticket.SetResolutionSummary(resolutionSummary, now)
	if ticket.Status != domain.TicketStatusResolved {
		if err := domain.Transition(ticket, domain.TicketStatusResolved, policy, now); err != nil {
			return nil, err
		}
	}
	if err := domain.Transition(ticket, domain.TicketStatusClosed, policy, now); err != nil {
		return nil, err
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, domain.NewAuditEntry(actor.ID, domain.AuditTicketClosed, domain.AuditEntityTicket, ticket.ID,
		before, ticket.Snapshot(), now))
	s.publish(ctx, ticket.PullDomainEvents())
	return ticket, nil
}

// GetTicket loads a ticket visible to actor. Requesters only see their own.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Actor, id string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && ticket.RequesterID != actor.ID {
		return nil, &domain.NotFoundError{Resource: "ticket", ID: id}
	}
	return ticket, nil
}

// ListTickets lists tickets visible to actor.
func (s *TicketService) ListTickets(ctx context.Context, actor domain.Actor, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		AreaID:      filter.AreaID,
		AssigneeID:  filter.AssigneeID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	if !actor.IsStaff() {
		requester := actor.ID
		repoFilter.RequesterID = &requester
	}
	return s.tickets.List(ctx, repoFilter)
}

// GetTicketSLAStatus evaluates the breach state against the clock without
// persisting anything.
func (s *TicketService) GetTicketSLAStatus(ctx context.Context, actor domain.Actor, id string) (*TicketSLAStatus, error) {
	ticket, err := s.GetTicket(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	status := &TicketSLAStatus{
		TicketID:       ticket.ID,
		SLATargetAt:    ticket.SLATargetAt,
		Breached:       domain.EvaluateBreach(ticket, now),
		StoredBreached: ticket.SLABreached,
		EvaluatedAt:    now,
	}
	if ticket.SLATargetAt != nil && ticket.ResolvedAt == nil && !ticket.Status.IsTerminal() {
		remaining := ticket.SLATargetAt.Sub(now).Minutes()
		status.RemainingMinutes = &remaining
	}
	return status, nil
}

// TicketHistory returns the audit trail of a ticket visible to actor, oldest first.
func (s *TicketService) TicketHistory(ctx context.Context, actor domain.Actor, id string) ([]domain.AuditEntry, error) {
	if _, err := s.GetTicket(ctx, actor, id); err != nil {
		return nil, err
	}
	if s.Audit == nil {
		return nil, nil
	}
	return s.Audit.ListByEntity(ctx, domain.AuditEntityTicket, id)
}

func (s *TicketService) loadTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "ticket", id)
	}
	return ticket, nil
}

func (s *TicketService) activeWorkflow(ctx context.Context, areaID string) (*domain.Workflow, error) {
	wf, err := s.workflows.FindLatestByAreaID(ctx, areaID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return wf, nil
}

func (s *TicketService) policyFor(ctx context.Context, areaID string) (domain.TransitionPolicy, error) {
	wf, err := s.activeWorkflow(ctx, areaID)
	if err != nil {
		return nil, err
	}
	return domain.PolicyFor(wf), nil
}
