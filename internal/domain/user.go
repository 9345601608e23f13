package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role enumerates what a user may do on the service desk.
type Role string

const (
	RoleRequester Role = "REQUESTER"
	RoleAgent     Role = "AGENT"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleRequester, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// User is a requester, agent or administrator.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser builds an active user around an already hashed password.
func NewUser(name, email, passwordHash string, role Role, now time.Time) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, NewValidationError("name", "is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, NewValidationError("email", "must be a valid address")
	}
	if !role.Valid() {
		return nil, NewValidationError("role", "must be REQUESTER, AGENT or ADMIN")
	}
	now = now.UTC()
	return &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Deactivate marks the user inactive.
func (u *User) Deactivate(now time.Time) error {
	if !u.Active {
		return &AlreadyDeactivatedError{Entity: "user", ID: u.ID}
	}
	u.Active = false
	u.UpdatedAt = now.UTC()
	return nil
}
