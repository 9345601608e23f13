package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction names a mutating action recorded in the audit trail.
type AuditAction string

const (
	AuditTicketCreated       AuditAction = "TICKET_CREATED"
	AuditTicketAssigned      AuditAction = "TICKET_ASSIGNED"
	AuditTicketStatusChanged AuditAction = "TICKET_STATUS_CHANGED"
	AuditTicketClosed        AuditAction = "TICKET_CLOSED"
	AuditWorkflowCreated     AuditAction = "WORKFLOW_CREATED"
	AuditWorkflowUpdated     AuditAction = "WORKFLOW_UPDATED"
	AuditSLACreated          AuditAction = "SLA_CREATED"
	AuditSLAUpdated          AuditAction = "SLA_UPDATED"
	AuditAreaCreated         AuditAction = "AREA_CREATED"
	AuditAreaDeactivated     AuditAction = "AREA_DEACTIVATED"
	AuditUserCreated         AuditAction = "USER_CREATED"
	AuditUserDeactivated     AuditAction = "USER_DEACTIVATED"
)

// AuditEntityType names the kind of entity an audit entry refers to.
type AuditEntityType string

const (
	AuditEntityTicket   AuditEntityType = "TICKET"
	AuditEntityWorkflow AuditEntityType = "WORKFLOW"
	AuditEntitySLA      AuditEntityType = "SLA"
	AuditEntityArea     AuditEntityType = "AREA"
	AuditEntityUser     AuditEntityType = "USER"
)

// AuditChanges is the before/after diff of a mutation.
type AuditChanges struct {
	Before map[string]any `json:"before,omitempty"`
	After  map[string]any `json:"after,omitempty"`
}

// AuditEntry is an immutable, append-only audit trail record.
type AuditEntry struct {
	ID         string
	ActorID    string
	Action     AuditAction
	EntityType AuditEntityType
	EntityID   string
	Changes    AuditChanges
	OccurredAt time.Time
}

// NewAuditEntry stamps a new entry.
func NewAuditEntry(actorID string, action AuditAction, entityType AuditEntityType, entityID string, before, after map[string]any, at time.Time) *AuditEntry {
	return &AuditEntry{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    AuditChanges{Before: before, After: after},
		OccurredAt: at.UTC(),
	}
}
