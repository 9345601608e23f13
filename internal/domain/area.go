package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Area represents a hospital department owning its own SLA and workflow.
type Area struct {
	ID          string
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewArea builds an active area.
func NewArea(name, description string, now time.Time) (*Area, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "is required")
	}
	now = now.UTC()
	return &Area{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Deactivate marks the area inactive.
func (a *Area) Deactivate(now time.Time) error {
	if !a.Active {
		return &AlreadyDeactivatedError{Entity: "area", ID: a.ID}
	}
	a.Active = false
	a.UpdatedAt = now.UTC()
	return nil
}
