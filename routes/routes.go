package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/insightpulse/llm-router/app"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(120 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Service identity and health
	r.Get("/", deps.HealthHandler.HandleRoot)
	r.Get("/health", deps.HealthHandler.HandleHealth)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		r.Post("/route", deps.RouteHandler.HandleRoute)
		r.Get("/budget", deps.BudgetHandler.HandleStatus)
		r.Get("/usage", deps.UsageHandler.HandleUsage)

		// Admin surface. The guard is a no-op until ADMIN_JWT_SECRET is set.
		r.Group(func(r chi.Router) {
			r.Use(deps.AdminMiddleware.RequireAdmin)
			r.Post("/reset-budget", deps.BudgetHandler.HandleReset)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
