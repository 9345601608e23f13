package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Workflow is one immutable version of an area's transition graph and
// required-fields map. The newest version of an area is authoritative.
type Workflow struct {
	ID             string
	AreaID         string
	Version        int
	Transitions    TransitionGraph
	RequiredFields RequiredFields
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidateWorkflow checks the structural consistency of a workflow
// configuration independently of any ticket.
//
// A transition target is declared when it is a built-in status, a key of the
// graph, or a target of some other source state. Required-field keys must
// appear somewhere in the graph.
func ValidateWorkflow(transitions *TransitionGraph, required *RequiredFields) error {
	if transitions.Len() == 0 {
		return NewValidationError("transitions", "at least one status must be configured")
	}

	allStates := make(map[TicketStatus]struct{})
	for _, s := range transitions.States() {
		allStates[s] = struct{}{}
	}

	// sources counts the distinct source states that reference each target.
	sources := make(map[TicketStatus]int)
	for _, key := range transitions.Keys() {
		if strings.TrimSpace(string(key)) == "" {
			return NewValidationError("transitions", "status names must not be empty")
		}
		targets, _ := transitions.Next(key)
		for _, next := range targets {
			sources[next]++
		}
	}

	for _, key := range transitions.Keys() {
		targets, _ := transitions.Next(key)
		for _, next := range targets {
			if strings.TrimSpace(string(next)) == "" {
				return NewValidationError("transitions", "status names must not be empty")
			}
			if next.IsStandard() || transitions.HasKey(next) || sources[next] > 1 {
				continue
			}
			return &UnknownStateError{State: next}
		}
	}

	for _, status := range required.Keys() {
		if _, ok := allStates[status]; !ok {
			return &UnknownStateError{State: status}
		}
		for _, field := range required.For(status) {
			if !IsKnownTicketField(field) {
				return NewValidationError("requiredFields", "unknown ticket field "+field)
			}
		}
	}
	return nil
}

// NewWorkflowVersion validates the configuration and produces the version that
// supersedes previous. previous is left untouched.
func NewWorkflowVersion(areaID, actorID string, transitions TransitionGraph, required RequiredFields, previous *Workflow, now time.Time) (*Workflow, error) {
	if err := ValidateWorkflow(&transitions, &required); err != nil {
		return nil, err
	}
	version := 1
	if previous != nil {
		version = previous.Version + 1
	}
	now = now.UTC()
	return &Workflow{
		ID:             uuid.NewString(),
		AreaID:         areaID,
		Version:        version,
		Transitions:    transitions.Clone(),
		RequiredFields: required.Clone(),
		CreatedBy:      actorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
