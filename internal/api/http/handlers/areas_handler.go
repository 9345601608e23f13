package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/dto"
	"github.com/spec-kit/servicedesk/internal/service"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// AreasHandler manages areas and their SLA.
type AreasHandler struct {
	areas *service.AreaService
	slas  *service.SLAService
}

// NewAreasHandler constructs handler.
func NewAreasHandler(areas *service.AreaService, slas *service.SLAService) *AreasHandler {
	return &AreasHandler{areas: areas, slas: slas}
}

// CreateArea POST /areas.
func (h *AreasHandler) CreateArea(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateAreaRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	area, err := h.areas.CreateArea(c.UserContext(), actor, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAreaResponse(area)})
}

// ListAreas GET /areas?active=true.
func (h *AreasHandler) ListAreas(c *fiber.Ctx) error {
	activeOnly := strings.EqualFold(c.Query("active"), "true")
	areas, err := h.areas.ListAreas(c.UserContext(), activeOnly)
	if err != nil {
		return err
	}
	items := make([]dto.AreaResponse, 0, len(areas))
	for i := range areas {
		items = append(items, dto.NewAreaResponse(&areas[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetArea GET /areas/:id.
func (h *AreasHandler) GetArea(c *fiber.Ctx) error {
	area, err := h.areas.GetArea(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAreaResponse(area)})
}

// DeactivateArea POST /areas/:id/deactivate.
func (h *AreasHandler) DeactivateArea(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	area, err := h.areas.DeactivateArea(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAreaResponse(area)})
}

// ConfigureSLA PUT /areas/:id/sla.
func (h *AreasHandler) ConfigureSLA(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ConfigureSLARequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ResponseTimeMinutes == nil || req.ResolutionTimeMinutes == nil {
		return apperrors.NewValidationError("response_time_minutes and resolution_time_minutes required", nil)
	}
	sla, err := h.slas.ConfigureSLA(c.UserContext(), actor, c.Params("id"), *req.ResponseTimeMinutes, *req.ResolutionTimeMinutes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSLAResponse(sla)})
}

// GetSLA GET /areas/:id/sla.
func (h *AreasHandler) GetSLA(c *fiber.Ctx) error {
	sla, err := h.slas.GetSLA(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSLAResponse(sla)})
}
