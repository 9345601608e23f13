package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxSLAMinutes caps response and resolution budgets at seven days.
const MaxSLAMinutes = 7 * 24 * 60

// SLA is the single current service level configuration of an area.
type SLA struct {
	ID                    string
	AreaID                string
	ResponseTimeMinutes   int
	ResolutionTimeMinutes int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ValidateSLAMinutes enforces 0 <= response <= resolution <= MaxSLAMinutes.
func ValidateSLAMinutes(responseMinutes, resolutionMinutes int) error {
	if responseMinutes < 0 {
		return NewValidationError("responseTimeMinutes", "must not be negative")
	}
	if resolutionMinutes > MaxSLAMinutes {
		return NewValidationError("resolutionTimeMinutes", "must not exceed 10080 minutes")
	}
	if responseMinutes > resolutionMinutes {
		return NewValidationError("responseTimeMinutes", "must not exceed resolutionTimeMinutes")
	}
	return nil
}

// NewSLA builds the first SLA of an area.
func NewSLA(areaID string, responseMinutes, resolutionMinutes int, now time.Time) (*SLA, error) {
	if err := ValidateSLAMinutes(responseMinutes, resolutionMinutes); err != nil {
		return nil, err
	}
	now = now.UTC()
	return &SLA{
		ID:                    uuid.NewString(),
		AreaID:                areaID,
		ResponseTimeMinutes:   responseMinutes,
		ResolutionTimeMinutes: resolutionMinutes,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// Update changes the budgets in place. Tickets created earlier keep their target.
func (s *SLA) Update(responseMinutes, resolutionMinutes int, now time.Time) error {
	if err := ValidateSLAMinutes(responseMinutes, resolutionMinutes); err != nil {
		return err
	}
	s.ResponseTimeMinutes = responseMinutes
	s.ResolutionTimeMinutes = resolutionMinutes
	s.UpdatedAt = now.UTC()
	return nil
}

// ComputeSLATarget returns createdAt plus the resolution budget, in UTC.
func ComputeSLATarget(createdAt time.Time, resolutionMinutes int) time.Time {
	return createdAt.UTC().Add(time.Duration(resolutionMinutes) * time.Minute)
}

// EvaluateBreach reports whether the ticket missed its SLA target. A resolved
// ticket is judged by its resolution time, any other ticket by now. Tickets
// without a target never breach.
func EvaluateBreach(t *Ticket, now time.Time) bool {
	if t.SLATargetAt == nil {
		return false
	}
	if t.ResolvedAt != nil {
		return t.ResolvedAt.After(*t.SLATargetAt)
	}
	return now.After(*t.SLATargetAt)
}
