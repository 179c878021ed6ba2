package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Reports *handlers.ReportsHandler
	Metrics *handlers.MetricsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	reports := app.Group("/reports")
	reports.Get("/high-priority", cfg.Reports.HighPriority)
	reports.Post("/high-priority/refresh", cfg.Reports.RefreshHighPriority)
	reports.Get("/in-progress", cfg.Reports.InProgress)

	app.Get("/metrics", cfg.Metrics.Dump)
}
