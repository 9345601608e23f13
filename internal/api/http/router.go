package http

import (
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/http/handlers"
	"github.com/spec-kit/servicedesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Areas          *handlers.AreasHandler
	Workflows      *handlers.WorkflowsHandler
	Tickets        *handlers.TicketsHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// NewApp builds the fiber application with sonic as JSON codec.
func NewApp(appName string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               appName,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
	})
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Users.Login)

	authn := cfg.AuthMiddleware.Handle
	admin := auth.RequireAdmin()
	staff := auth.RequireStaff()

	users := app.Group("/users", authn, admin)
	users.Post("/", cfg.Users.Register)
	users.Post("/:id/deactivate", cfg.Users.Deactivate)

	areas := app.Group("/areas", authn, auth.RequireAnyRole())
	areas.Post("/", admin, cfg.Areas.CreateArea)
	areas.Get("/", cfg.Areas.ListAreas)
	areas.Get("/:id", cfg.Areas.GetArea)
	areas.Post("/:id/deactivate", admin, cfg.Areas.DeactivateArea)
	areas.Put("/:id/sla", admin, cfg.Areas.ConfigureSLA)
	areas.Get("/:id/sla", cfg.Areas.GetSLA)
	areas.Put("/:id/workflow", admin, cfg.Workflows.ConfigureWorkflow)
	areas.Get("/:id/workflow", cfg.Workflows.GetWorkflow)
	areas.Get("/:id/workflow/versions", staff, cfg.Workflows.ListWorkflowVersions)

	tickets := app.Group("/tickets", authn, auth.RequireAnyRole())
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/sla", cfg.Tickets.GetTicketSLA)
	tickets.Get("/:id/history", cfg.Tickets.GetTicketHistory)
	tickets.Post("/:id/assign", staff, cfg.Tickets.AssignTicket)
	tickets.Post("/:id/transition", staff, cfg.Tickets.TransitionTicket)
	tickets.Post("/:id/close", staff, cfg.Tickets.CloseTicket)

	reports := app.Group("/reports", authn, staff)
	reports.Get("/sla", cfg.Reports.SLAMetrics)
	reports.Get("/sla/export", cfg.Reports.ExportSLAReport)
}
