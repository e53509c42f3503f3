package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/policy-admin/internal/api/http/handlers"
	"github.com/spec-kit/policy-admin/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Applications   *handlers.ApplicationsHandler
	Documents      *handlers.DocumentsHandler
	Licenses       *handlers.LicensesHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	apps := api.Group("/applications")
	apps.Post("", cfg.Applications.Create)
	apps.Get("", cfg.Applications.List)
	apps.Get("/:id", cfg.Applications.Get)
	apps.Patch("/:id/status", auth.RequireStaff(), cfg.Applications.ChangeStatus)
	apps.Post("/:id/cancel", auth.RequireStaff(), cfg.Applications.Cancel)
	apps.Post("/:id/submit", auth.RequireStaff(), cfg.Applications.Submit)

	docs := api.Group("/document-requests")
	docs.Post("", auth.RequireStaff(), cfg.Documents.CreateRequest)
	docs.Get("", cfg.Documents.ListRequests)
	docs.Post("/:id/fulfill", cfg.Documents.FulfillRequest)

	agents := api.Group("/agents/:agentId")
	agents.Post("/licenses", auth.RequireStaff(), cfg.Licenses.CreateLicense)
	agents.Get("/licenses", cfg.Licenses.ListLicenses)
	agents.Post("/appointments", auth.RequireStaff(), cfg.Licenses.CreateAppointment)
	agents.Get("/appointments", cfg.Licenses.ListAppointments)

	api.Patch("/licenses/:id", auth.RequireStaff(), cfg.Licenses.UpdateLicense)
	api.Delete("/licenses/:id", auth.RequireStaff(), cfg.Licenses.DeleteLicense)
	api.Patch("/appointments/:id", auth.RequireStaff(), cfg.Licenses.UpdateAppointment)
	api.Delete("/appointments/:id", auth.RequireStaff(), cfg.Licenses.DeleteAppointment)

	notifications := api.Group("/notifications")
	notifications.Get("", cfg.Notifications.List)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)
}
