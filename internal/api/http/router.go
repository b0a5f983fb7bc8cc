package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opsdesk/helpdesk/internal/api/http/handlers"
	"github.com/opsdesk/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Accounts       *handlers.AccountsHandler
	Tickets        *handlers.TicketsHandler
	Notifications  *handlers.NotificationsHandler
	Uploads        *handlers.UploadsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/register", cfg.Accounts.Register)
	app.Post("/token", cfg.Accounts.Token)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	protected.Post("/login", cfg.Accounts.Login)

	protected.Post("/tickets", auth.RequireCapability(auth.CapCreateTicket), cfg.Tickets.Create)
	protected.Get("/tickets/my", cfg.Tickets.ListMine)
	protected.Get("/tickets/all", auth.RequireCapability(auth.CapViewAllTickets), cfg.Tickets.ListAll)
	protected.Get("/tickets/export", auth.RequireCapability(auth.CapExportTickets), cfg.Tickets.Export)
	protected.Get("/tickets/summary-counts", auth.RequireCapability(auth.CapViewStats), cfg.Tickets.SummaryCounts)
	protected.Get("/tickets/status-summary", auth.RequireCapability(auth.CapViewStats), cfg.Tickets.StatusSummary)

	protected.Get("/ticket/:id", cfg.Tickets.Get)
	protected.Patch("/ticket/:id", cfg.Tickets.Update)
	protected.Post("/ticket/:id/add_comment", cfg.Tickets.AddComment)

	protected.Post("/upload-attachment", cfg.Uploads.Upload)

	notifications := protected.Group("/notifications")
	notifications.Get("", cfg.Notifications.List)
	notifications.Patch("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Patch("/:id/read", cfg.Notifications.MarkRead)
	notifications.Delete("/:id", cfg.Notifications.Delete)
	notifications.Delete("", cfg.Notifications.DeleteAll)

	admin := protected.Group("/admin")
	admin.Get("/users/:uid", auth.RequireCapability(auth.CapManageUsers), cfg.Admin.GetUser)
	admin.Patch("/users/:uid", auth.RequireCapability(auth.CapManageUsers), cfg.Admin.UpdateUser)
	admin.Delete("/users/:uid", auth.RequireCapability(auth.CapManageUsers), cfg.Admin.DeleteUser)
	admin.Delete("/tickets", auth.RequireCapability(auth.CapPurgeTickets), cfg.Tickets.Purge)

	api := protected.Group("/api")
	api.Get("/users", auth.RequireCapability(auth.CapManageUsers), cfg.Admin.ListUsers)
	api.Post("/clients", auth.RequireCapability(auth.CapManageClients), cfg.Admin.CreateClient)
	api.Get("/clients", auth.RequireCapability(auth.CapManageClients), cfg.Admin.ListClients)
	api.Get("/clients/:id", auth.RequireCapability(auth.CapManageClients), cfg.Admin.GetClient)
	api.Patch("/clients/:id", auth.RequireCapability(auth.CapManageClients), cfg.Admin.UpdateClient)
	api.Delete("/clients/:id", auth.RequireCapability(auth.CapManageClients), cfg.Admin.DeleteClient)
}
