package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://app.ignitemediagroup.io", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Liveness only: no upstream dependency checks, so a wedged upstream
	// can't flap the orchestrator.
	r.Get("/healthz", h.Healthz)

	// Attribution reads
	r.Get("/tenants/{tenantID}/revenue/last7", h.GetRevenue)
	r.Get("/tenants/by-slug/{slug}/revenue/last7", h.GetRevenueBySlug)

	// Administrative operations
	r.Route("/admin", func(r chi.Router) {
		r.Post("/cache/clear", h.ClearCache)
		r.Post("/metric/detect", h.DetectMetric)
		r.Post("/metric/lock", h.LockMetric)
	})

	return r
}
