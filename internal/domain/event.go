package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported domain event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket.created"
	EventTicketAssigned      EventType = "ticket.assigned"
	EventTicketStatusChanged EventType = "ticket.status_changed"
	EventTicketClosed        EventType = "ticket.closed"
	EventWorkflowConfigured  EventType = "workflow.configured"
	EventSLAConfigured       EventType = "sla.configured"
)

// DomainEvent is an immutable fact emitted by an aggregate, queued until the
// orchestrator drains and publishes it.
type DomainEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	AggregateID string    `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Payload     any       `json:"payload"`
}

// NewDomainEvent stamps a new event with a fresh id.
func NewDomainEvent(eventType EventType, aggregateID string, at time.Time, payload any) DomainEvent {
	return DomainEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  at.UTC(),
		Payload:     payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID    string         `json:"ticket_id"`
	AreaID      string         `json:"area_id"`
	RequesterID string         `json:"requester_id"`
	Priority    TicketPriority `json:"priority"`
	Title       string         `json:"title"`
	SLATargetAt time.Time      `json:"sla_target_at"`
}

// TicketStatusChangedPayload is shared by ticket.status_changed and ticket.closed.
type TicketStatusChangedPayload struct {
	TicketID   string       `json:"ticket_id"`
	From       TicketStatus `json:"from"`
	To         TicketStatus `json:"to"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TicketID           string    `json:"ticket_id"`
	PreviousAssigneeID *string   `json:"previous_assignee_id,omitempty"`
	AssigneeID         string    `json:"assignee_id"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// WorkflowConfiguredPayload payload.
type WorkflowConfiguredPayload struct {
	WorkflowID string `json:"workflow_id"`
	AreaID     string `json:"area_id"`
	Version    int    `json:"version"`
}

// SLAConfiguredPayload payload.
type SLAConfiguredPayload struct {
	AreaID                string `json:"area_id"`
	ResponseTimeMinutes   int    `json:"response_time_minutes"`
	ResolutionTimeMinutes int    `json:"resolution_time_minutes"`
}
