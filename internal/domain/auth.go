package domain

// Actor identifies who performs a use case; it is what the audit trail records.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor is used for bootstrap and maintenance actions.
var SystemActor = Actor{ID: "system", Role: RoleAdmin}

// IsStaff reports whether the actor works tickets rather than files them.
func (a Actor) IsStaff() bool {
	return a.Role == RoleAgent || a.Role == RoleAdmin
}
