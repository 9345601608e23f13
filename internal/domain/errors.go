package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports malformed input rejected before any rule is applied.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for field, reason := range e.Fields {
		parts = append(parts, field+": "+reason)
	}
	sort.Strings(parts)
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{
		Message: "validation failed",
		Fields:  map[string]string{field: reason},
	}
}

// NotFoundError reports a missing ticket, area, workflow, SLA or user.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// InvalidTransitionError reports a target status that is not reachable from
// the current one under the active transition policy.
type InvalidTransitionError struct {
	From TicketStatus
	To   TicketStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// MissingRequiredFieldError names the first field that must be filled before
// a ticket may enter Status.
type MissingRequiredFieldError struct {
	Field  string
	Status TicketStatus
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("field %s is required before entering %s", e.Field, e.Status)
}

// AlreadyClosedError guards transitions out of CLOSED.
type AlreadyClosedError struct {
	TicketID string
}

func (e *AlreadyClosedError) Error() string {
	return fmt.Sprintf("ticket %s is already closed", e.TicketID)
}

// AlreadyDeactivatedError guards repeated deactivation of areas and users.
type AlreadyDeactivatedError struct {
	Entity string
	ID     string
}

func (e *AlreadyDeactivatedError) Error() string {
	return fmt.Sprintf("%s %s is already deactivated", e.Entity, e.ID)
}

// UnknownStateError rejects a workflow referencing an undeclared status.
type UnknownStateError struct {
	State TicketStatus
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("unknown workflow state %q", e.State)
}

// ConcurrentModificationError reports a stale version on save.
type ConcurrentModificationError struct {
	Entity string
	ID     string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently", e.Entity, e.ID)
}

// ConflictError reports an operation that the current state of an entity forbids.
type ConflictError struct {
	Message string
	Details map[string]any
}

func (e *ConflictError) Error() string {
	return e.Message
}
