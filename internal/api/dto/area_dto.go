package dto

import (
	"time"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// CreateAreaRequest payload.
type CreateAreaRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AreaResponse represents an area.
type AreaResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ConfigureSLARequest payload.
type ConfigureSLARequest struct {
	ResponseTimeMinutes   *int `json:"response_time_minutes"`
	ResolutionTimeMinutes *int `json:"resolution_time_minutes"`
}

// SLAResponse represents an area SLA.
type SLAResponse struct {
	ID                    string    `json:"id"`
	AreaID                string    `json:"area_id"`
	ResponseTimeMinutes   int       `json:"response_time_minutes"`
	ResolutionTimeMinutes int       `json:"resolution_time_minutes"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// ConfigureWorkflowRequest payload. Object key order is preserved.
type ConfigureWorkflowRequest struct {
	Transitions    domain.TransitionGraph `json:"transitions"`
	RequiredFields domain.RequiredFields  `json:"required_fields"`
}

// WorkflowResponse represents one workflow version.
type WorkflowResponse struct {
	ID             string                 `json:"id"`
	AreaID         string                 `json:"area_id"`
	Version        int                    `json:"version"`
	Transitions    domain.TransitionGraph `json:"transitions"`
	RequiredFields domain.RequiredFields  `json:"required_fields"`
	CreatedBy      string                 `json:"created_by"`
	CreatedAt      time.Time              `json:"created_at"`
}

// NewAreaResponse maps an area.
func NewAreaResponse(a *domain.Area) AreaResponse {
	return AreaResponse{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Active:      a.Active,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// NewSLAResponse maps an SLA.
func NewSLAResponse(s *domain.SLA) SLAResponse {
	return SLAResponse{
		ID:                    s.ID,
		AreaID:                s.AreaID,
		ResponseTimeMinutes:   s.ResponseTimeMinutes,
		ResolutionTimeMinutes: s.ResolutionTimeMinutes,
		UpdatedAt:             s.UpdatedAt,
	}
}

// NewWorkflowResponse maps a workflow version.
func NewWorkflowResponse(w *domain.Workflow) WorkflowResponse {
	return WorkflowResponse{
		ID:             w.ID,
		AreaID:         w.AreaID,
		Version:        w.Version,
		Transitions:    w.Transitions,
		RequiredFields: w.RequiredFields,
		CreatedBy:      w.CreatedBy,
		CreatedAt:      w.CreatedAt,
	}
}
