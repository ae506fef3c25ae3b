package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	TicketActions  *handlers.TicketActionsHandler
	SLA            *handlers.SLAHandler
	PolicyAdmin    *handlers.PolicyAdminHandler
	Notifications  *handlers.NotificationHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Get("/:id/sla-status", cfg.TicketActions.SLAStatus)
	tickets.Get("/:id/history", auth.RequireStaff(), cfg.TicketActions.History)
	tickets.Post("/:id/status", cfg.TicketActions.UpdateStatus)
	tickets.Post("/:id/assign", cfg.TicketActions.Assign)
	tickets.Post("/:id/comments", cfg.TicketActions.AddComment)

	app.Get("/notifications", cfg.AuthMiddleware.Handle, cfg.Notifications.List)

	sla := app.Group("/sla", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	sla.Get("/metrics", cfg.SLA.Metrics)
	sla.Get("/breached", cfg.SLA.Breached)
	sla.Get("/at-risk", cfg.SLA.AtRisk)

	admin := app.Group("/admin/sla", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/policies", cfg.PolicyAdmin.ListPolicies)
	admin.Post("/policies", cfg.PolicyAdmin.CreatePolicy)
	admin.Put("/policies/:id", cfg.PolicyAdmin.UpdatePolicy)
	admin.Patch("/policies/:id/active", cfg.PolicyAdmin.SetPolicyActive)
	admin.Delete("/policies/:id", cfg.PolicyAdmin.DeletePolicy)
	admin.Get("/business-hours", cfg.PolicyAdmin.BusinessHours)
	admin.Put("/business-hours", cfg.PolicyAdmin.UpdateBusinessHours)
	admin.Get("/holidays", cfg.PolicyAdmin.ListHolidays)
	admin.Post("/holidays", cfg.PolicyAdmin.AddHoliday)
	admin.Delete("/holidays/:id", cfg.PolicyAdmin.DeleteHoliday)
}
