package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportsHandler exposes SLA reporting.
type ReportsHandler struct {
	metrics *service.MetricsService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(metrics *service.MetricsService) *ReportsHandler {
	return &ReportsHandler{metrics: metrics}
}

// SLAMetrics GET /reports/sla?area_id=&from=&to=.
func (h *ReportsHandler) SLAMetrics(c *fiber.Ctx) error {
	query, err := parseMetricsQuery(c)
	if err != nil {
		return err
	}
	metrics, err := h.metrics.ComputeSLAMetrics(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": metrics})
}

// ExportSLAReport GET /reports/sla/export.
func (h *ReportsHandler) ExportSLAReport(c *fiber.Ctx) error {
	query, err := parseMetricsQuery(c)
	if err != nil {
		return err
	}
	data, err := h.metrics.ExportSLAReport(c.UserContext(), query)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="sla-report-%s.xlsx"`, c.Query("area_id", "all")))
	return c.Send(data)
}

func parseMetricsQuery(c *fiber.Ctx) (service.MetricsQuery, error) {
	query := service.MetricsQuery{}
	if area := c.Query("area_id"); area != "" {
		query.AreaID = &area
	}
	var err error
	if query.From, err = parseTime("from", c.Query("from")); err != nil {
		return query, err
	}
	if query.To, err = parseTime("to", c.Query("to")); err != nil {
		return query, err
	}
	return query, nil
}
