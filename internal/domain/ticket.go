package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TicketStatus enumerates lifecycle states for tickets. Areas may define
// additional states through their workflow, so the type stays an open string.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// StandardStatuses lists the built-in statuses in lifecycle order.
var StandardStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusCancelled,
}

// IsStandard reports whether s is one of the built-in statuses.
func (s TicketStatus) IsStandard() bool {
	for _, std := range StandardStatuses {
		if s == std {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition may leave s.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed || s == TicketStatusCancelled
}

// ActiveStatuses are the statuses a ticket holds while work is still pending.
var ActiveStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusAssigned,
	TicketStatusInProgress,
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Field names a workflow may list as required before entering a status.
const (
	FieldTitle             = "title"
	FieldDescription       = "description"
	FieldPriority          = "priority"
	FieldAssigneeID        = "assigneeId"
	FieldResolutionSummary = "resolutionSummary"
)

// KnownTicketFields lists every field name FieldValue understands.
var KnownTicketFields = []string{
	FieldTitle,
	FieldDescription,
	FieldPriority,
	FieldAssigneeID,
	FieldResolutionSummary,
}

// IsKnownTicketField reports whether name can be resolved on a ticket.
func IsKnownTicketField(name string) bool {
	for _, f := range KnownTicketFields {
		if f == name {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for service-desk requests.
type Ticket struct {
	ID                string
	Title             string
	Description       string
	Status            TicketStatus
	Priority          TicketPriority
	RequesterID       string
	AssigneeID        *string
	AreaID            string
	ResolutionSummary *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	FirstResponseAt   *time.Time
	ResolvedAt        *time.Time
	ClosedAt          *time.Time
	SLATargetAt       *time.Time
	SLABreached       bool
	// Version is the optimistic concurrency token of the stored record.
	Version int

	events []DomainEvent
}

// NewTicketParams carries the caller supplied attributes of a new ticket.
type NewTicketParams struct {
	Title       string
	Description string
	Priority    TicketPriority
	RequesterID string
	AreaID      string
}

// NewTicket opens a ticket and computes its SLA target from the area's
// configuration. A nil sla means the area has none and a zero resolution
// budget is applied.
func NewTicket(params NewTicketParams, sla *SLA, now time.Time) *Ticket {
	now = now.UTC()
	priority := params.Priority
	if priority == "" {
		priority = TicketPriorityMedium
	}
	resolutionMinutes := 0
	if sla != nil {
		resolutionMinutes = sla.ResolutionTimeMinutes
	}
	target := ComputeSLATarget(now, resolutionMinutes)

	ticket := &Ticket{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(params.Title),
		Description: strings.TrimSpace(params.Description),
		Status:      TicketStatusOpen,
		Priority:    priority,
		RequesterID: params.RequesterID,
		AreaID:      params.AreaID,
		CreatedAt:   now,
		UpdatedAt:   now,
		SLATargetAt: &target,
	}
	ticket.recordEvent(EventTicketCreated, now, TicketCreatedPayload{
		TicketID:    ticket.ID,
		AreaID:      ticket.AreaID,
		RequesterID: ticket.RequesterID,
		Priority:    ticket.Priority,
		Title:       ticket.Title,
		SLATargetAt: target,
	})
	return ticket
}

// FieldValue resolves a workflow field name to the ticket's current value.
// Unknown names resolve to the empty string.
func (t *Ticket) FieldValue(name string) string {
	switch name {
	case FieldTitle:
		return strings.TrimSpace(t.Title)
	case FieldDescription:
		return strings.TrimSpace(t.Description)
	case FieldPriority:
		return string(t.Priority)
	case FieldAssigneeID:
		if t.AssigneeID == nil {
			return ""
		}
		return strings.TrimSpace(*t.AssigneeID)
	case FieldResolutionSummary:
		if t.ResolutionSummary == nil {
			return ""
		}
		return strings.TrimSpace(*t.ResolutionSummary)
	}
	return ""
}

// SetResolutionSummary stores a trimmed summary; blank input clears it.
func (t *Ticket) SetResolutionSummary(summary string, now time.Time) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		t.ResolutionSummary = nil
	} else {
		t.ResolutionSummary = &summary
	}
	t.UpdatedAt = now.UTC()
}

// Assign records the assignee and emits ticket.assigned.
func (t *Ticket) Assign(assigneeID string, now time.Time) {
	now = now.UTC()
	previous := t.AssigneeID
	t.AssigneeID = &assigneeID
	t.UpdatedAt = now
	t.recordEvent(EventTicketAssigned, now, TicketAssignedPayload{
		TicketID:           t.ID,
		PreviousAssigneeID: previous,
		AssigneeID:         assigneeID,
		OccurredAt:         now,
	})
}

// PullDomainEvents drains the pending events. A second call returns nothing
// until new events are recorded.
func (t *Ticket) PullDomainEvents() []DomainEvent {
	pending := t.events
	t.events = nil
	return pending
}

// PendingEvents returns a copy of the undrained events.
func (t *Ticket) PendingEvents() []DomainEvent {
	return append([]DomainEvent(nil), t.events...)
}

func (t *Ticket) recordEvent(eventType EventType, at time.Time, payload any) {
	t.events = append(t.events, NewDomainEvent(eventType, t.ID, at, payload))
}

// Snapshot returns the audit-relevant attributes of the ticket.
func (t *Ticket) Snapshot() map[string]any {
	snap := map[string]any{
		"status":      t.Status,
		"priority":    t.Priority,
		"areaId":      t.AreaID,
		"slaBreached": t.SLABreached,
	}
	if t.AssigneeID != nil {
		snap["assigneeId"] = *t.AssigneeID
	}
	if t.ResolutionSummary != nil {
		snap["resolutionSummary"] = *t.ResolutionSummary
	}
	if t.FirstResponseAt != nil {
		snap["firstResponseAt"] = *t.FirstResponseAt
	}
	if t.ResolvedAt != nil {
		snap["resolvedAt"] = *t.ResolvedAt
	}
	if t.ClosedAt != nil {
		snap["closedAt"] = *t.ClosedAt
	}
	return snap
}
