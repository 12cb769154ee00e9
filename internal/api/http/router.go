package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-ticket-service/internal/api/http/handlers"
	"github.com/spec-kit/sla-ticket-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Tickets *handlers.TicketsHandler
	SLA     *handlers.SLAHandler
	Metrics *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	slaGroup := app.Group("/sla")
	slaGroup.Get("/policy", cfg.SLA.Policy)
	slaGroup.Post("/evaluate", cfg.SLA.Evaluate)
	slaGroup.Get("/summary", cfg.SLA.Summary)

	tickets := app.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/export.csv", cfg.Tickets.ExportCSV)
	tickets.Post("/bulk/status", cfg.Tickets.BulkUpdateStatus)
	tickets.Post("/bulk/assignee", cfg.Tickets.BulkAssign)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/sla", cfg.Tickets.GetTicketSLA)
	tickets.Get("/:id/activity", cfg.Tickets.ListActivity)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/priority", cfg.Tickets.UpdatePriority)
	tickets.Patch("/:id/assignee", cfg.Tickets.UpdateAssignee)
}
