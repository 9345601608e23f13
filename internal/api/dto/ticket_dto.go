package dto

import (
	"time"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	AreaID      string                `json:"area_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// TransitionTicketRequest payload. Version, when sent, must match the stored ticket.
type TransitionTicketRequest struct {
	Status            domain.TicketStatus `json:"status"`
	ResolutionSummary *string             `json:"resolution_summary"`
	Version           *int                `json:"version"`
}

// CloseTicketRequest payload.
type CloseTicketRequest struct {
	ResolutionSummary string `json:"resolution_summary"`
}

// TicketResponse represents a ticket.
type TicketResponse struct {
	ID                string                `json:"id"`
	Title             string                `json:"title"`
	Description       string                `json:"description"`
	Status            domain.TicketStatus   `json:"status"`
	Priority          domain.TicketPriority `json:"priority"`
	RequesterID       string                `json:"requester_id"`
	AssigneeID        *string               `json:"assignee_id"`
	AreaID            string                `json:"area_id"`
	ResolutionSummary *string               `json:"resolution_summary"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	FirstResponseAt   *time.Time            `json:"first_response_at"`
	ResolvedAt        *time.Time            `json:"resolved_at"`
	ClosedAt          *time.Time            `json:"closed_at"`
	SLATargetAt       *time.Time            `json:"sla_target_at"`
	SLABreached       bool                  `json:"sla_breached"`
	Version           int                   `json:"version"`
}

// TicketSLAStatusResponse is the live SLA evaluation of a ticket.
type TicketSLAStatusResponse struct {
	TicketID         string     `json:"ticket_id"`
	SLATargetAt      *time.Time `json:"sla_target_at"`
	Breached         bool       `json:"breached"`
	StoredBreached   bool       `json:"stored_breached"`
	RemainingMinutes *float64   `json:"remaining_minutes"`
	EvaluatedAt      time.Time  `json:"evaluated_at"`
}

// AuditEntryResponse is one entry of an entity's history.
type AuditEntryResponse struct {
	ID         string                 `json:"id"`
	ActorID    string                 `json:"actor_id"`
	Action     domain.AuditAction     `json:"action"`
	EntityType domain.AuditEntityType `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Changes    domain.AuditChanges    `json:"changes"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                t.ID,
		Title:             t.Title,
		Description:       t.Description,
		Status:            t.Status,
		Priority:          t.Priority,
		RequesterID:       t.RequesterID,
		AssigneeID:        t.AssigneeID,
		AreaID:            t.AreaID,
		ResolutionSummary: t.ResolutionSummary,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
		FirstResponseAt:   t.FirstResponseAt,
		ResolvedAt:        t.ResolvedAt,
		ClosedAt:          t.ClosedAt,
		SLATargetAt:       t.SLATargetAt,
		SLABreached:       t.SLABreached,
		Version:           t.Version,
	}
}

// NewAuditEntryResponses maps audit entries.
func NewAuditEntryResponses(entries []domain.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			ID:         e.ID,
			ActorID:    e.ActorID,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Changes:    e.Changes,
			OccurredAt: e.OccurredAt,
		})
	}
	return out
}
