package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/dto"
	"github.com/spec-kit/servicedesk/internal/service"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// WorkflowsHandler manages per-area workflow configuration.
type WorkflowsHandler struct {
	workflows *service.WorkflowService
}

// NewWorkflowsHandler constructs handler.
func NewWorkflowsHandler(workflows *service.WorkflowService) *WorkflowsHandler {
	return &WorkflowsHandler{workflows: workflows}
}

// ConfigureWorkflow PUT /areas/:id/workflow.
func (h *WorkflowsHandler) ConfigureWorkflow(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ConfigureWorkflowRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"body": err.Error()})
	}
	wf, err := h.workflows.ConfigureWorkflow(c.UserContext(), actor, c.Params("id"), req.Transitions, req.RequiredFields)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkflowResponse(wf)})
}

// GetWorkflow GET /areas/:id/workflow.
func (h *WorkflowsHandler) GetWorkflow(c *fiber.Ctx) error {
	wf, err := h.workflows.GetActiveWorkflow(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkflowResponse(wf)})
}

// ListWorkflowVersions GET /areas/:id/workflow/versions.
func (h *WorkflowsHandler) ListWorkflowVersions(c *fiber.Ctx) error {
	versions, err := h.workflows.ListWorkflowVersions(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.WorkflowResponse, 0, len(versions))
	for i := range versions {
		items = append(items, dto.NewWorkflowResponse(&versions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
