package routes

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/templui/tutordesk/internal/app"
	"github.com/templui/tutordesk/internal/handler"
	"github.com/templui/tutordesk/internal/metrics"
	"github.com/templui/tutordesk/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler()
	goal := handler.NewGoalHandler(app.Store, app.Markdown)
	dashboard := handler.NewDashboardHandler(app.Store)
	settings := handler.NewSettingsHandler(app.Store)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", home.Health)
	mux.Handle("GET /metrics", metrics.Handler())

	// ============================================================================
	// GOAL API (bearer token when API_TOKEN_SECRET is set)
	// ============================================================================

	// Writes are rate limited per client IP
	rateLimiter := middleware.RateLimitMutations()

	// Queries
	mux.HandleFunc("GET /api/goals", goal.List)
	mux.HandleFunc("GET /api/goals/completed", goal.Completed)
	mux.HandleFunc("GET /api/goals/export", goal.Export)
	mux.HandleFunc("GET /api/goals/{id}", goal.Get)
	mux.HandleFunc("GET /api/dashboard", dashboard.Dashboard)

	// Mutations
	mux.HandleFunc("POST /api/goals", rateLimiter(goal.Create))
	mux.HandleFunc("PATCH /api/goals/{id}", rateLimiter(goal.Edit))
	mux.HandleFunc("POST /api/goals/{id}/progress", rateLimiter(goal.Progress))
	mux.HandleFunc("POST /api/goals/{id}/complete", rateLimiter(goal.Complete))
	mux.HandleFunc("POST /api/goals/{id}/suspend", rateLimiter(goal.Suspend))
	mux.HandleFunc("POST /api/goals/{id}/resume", rateLimiter(goal.Resume))
	mux.HandleFunc("PUT /api/goals/{id}/deadline", rateLimiter(goal.ExtendDeadline))
	mux.HandleFunc("DELETE /api/goals/{id}", rateLimiter(goal.Delete))

	// Settings
	mux.HandleFunc("GET /api/settings/sound", settings.Sound)
	mux.HandleFunc("PUT /api/settings/sound", rateLimiter(settings.UpdateSound))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	// 404
	mux.HandleFunc("/{path...}", home.NotFound)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (read by handlers)
		middleware.RequestLogging,
		middleware.Metrics,
		middleware.Feedback, // Must wrap everything that touches the goal store
		middleware.RequireToken(app.AuthService),
		middleware.WithURLPath,
	)

	// CORS wraps the chain so preflight requests never need a token
	c := cors.New(cors.Options{
		AllowedOrigins:   app.Cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "HX-Request"},
		ExposedHeaders:   []string{middleware.TriggerHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           600,
	})

	return c.Handler(handler)
}
