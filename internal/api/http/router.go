package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/secureleak/report-service/internal/api/http/handlers"
	"github.com/secureleak/report-service/internal/auth"
	"github.com/secureleak/report-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Auth              *handlers.AuthHandler
	Reports           *handlers.ReportsHandler
	Admin             *handlers.AdminHandler
	SessionMiddleware *auth.Middleware
	Guards            *auth.Guards
}

// RegisterRoutes wires HTTP routes. The session middleware runs on every
// request so handlers and guards can read the caller identity; the
// guards decide per route what anonymous callers may reach.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.SessionMiddleware.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", cfg.Auth.Me)

	reports := app.Group("/reports")
	reports.Get("/", auth.RequireAuthenticated(), cfg.Reports.List)
	reports.Post("/", auth.RequireAuthenticated(), cfg.Reports.Create)
	// Report detail and image serving stay open to anonymous callers;
	// the visibility policy inside the service decides what they see.
	reports.Get("/:id", cfg.Reports.Get)
	reports.Patch("/:id", auth.RequireAuthenticated(), cfg.Reports.Update)
	reports.Delete("/:id", auth.RequireAuthenticated(), cfg.Reports.Delete)
	reports.Get("/:id/comments", cfg.Reports.ListComments)
	reports.Post("/:id/comments", auth.RequireAuthenticated(), cfg.Reports.AddComment)
	reports.Post("/:id/image", auth.RequireAuthenticated(), cfg.Reports.UploadImage)
	reports.Get("/:id/image/:name", cfg.Reports.GetImage)

	admin := app.Group("/admin", cfg.Guards.RequireRole(domain.RoleAdmin))
	admin.Get("/reports", cfg.Admin.ListReports)
	admin.Post("/reports/:id/status", cfg.Admin.SetReportStatus)
	admin.Delete("/reports/:id", cfg.Admin.DeleteReport)
	admin.Delete("/comments/:id", cfg.Admin.DeleteComment)
	admin.Delete("/users/:id", cfg.Admin.DeleteUser)
}
