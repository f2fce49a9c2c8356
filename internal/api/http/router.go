package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/helpdesk-triage/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-triage/internal/auth"
	"github.com/spec-kit/helpdesk-triage/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Triage         *handlers.TriageHandler
	Articles       *handlers.ArticlesHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/replies", cfg.Tickets.AddReply)
	tickets.Post("/:id/reopen", cfg.Tickets.ReopenTicket)
	tickets.Post("/:id/close", auth.RequireAgent(), cfg.Tickets.CloseTicket)

	tickets.Post("/:id/triage", auth.RequireAgent(), cfg.Triage.TriggerTriage)
	tickets.Get("/:id/suggestion", auth.RequireAgent(), cfg.Triage.GetSuggestion)
	tickets.Get("/:id/audit", auth.RequireAgent(), cfg.Triage.TicketAudit)
	tickets.Get("/:id/audit/export", auth.RequireAgent(), cfg.Triage.ExportTicketAudit)

	suggestions := app.Group("/suggestions", cfg.AuthMiddleware.Handle, auth.RequireAgent())
	suggestions.Post("/:id/accept", cfg.Triage.AcceptSuggestion)
	suggestions.Post("/:id/reject", cfg.Triage.RejectSuggestion)

	audit := app.Group("/audit", cfg.AuthMiddleware.Handle, auth.RequireAgent())
	audit.Get("/traces/:traceId", cfg.Triage.TraceAudit)

	articles := app.Group("/articles", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	articles.Get("", cfg.Articles.ListArticles)
	articles.Get("/:id", cfg.Articles.GetArticle)
	articles.Post("/:id/feedback", cfg.Articles.RecordFeedback)
	articles.Post("", auth.RequireAgent(), cfg.Articles.CreateArticle)
	articles.Put("/:id", auth.RequireAgent(), cfg.Articles.UpdateArticle)
	articles.Post("/:id/publish", auth.RequireAgent(), cfg.Articles.PublishArticle)
	articles.Post("/:id/unpublish", auth.RequireAgent(), cfg.Articles.UnpublishArticle)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/triage-config", cfg.Admin.GetTriageConfig)
	admin.Put("/triage-config", cfg.Admin.UpdateTriageConfig)
	admin.Post("/accounts", cfg.Admin.CreateAccount)
}
