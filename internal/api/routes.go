package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouteDeps are the pieces SetupRoutes mounts. Metrics is optional.
type RouteDeps struct {
	Handlers    *Handlers
	Health      *HealthChecker
	Orgs        *OrgResolver
	Metrics     MetricsMiddleware
	CORSOrigins []string
}

// MetricsMiddleware instruments requests and serves the scrape endpoint.
type MetricsMiddleware interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

// SetupRoutes configures all API routes.
func SetupRoutes(d RouteDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Organization-ID"},
		MaxAge:         300,
	}))

	// Health and metrics (no organization required)
	r.Get("/health", d.Health.HandleHealth)
	r.Get("/health/live", d.Health.HandleLiveness)
	r.Get("/health/ready", d.Health.HandleReadiness)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	h := d.Handlers
	r.Route("/api", func(r chi.Router) {
		r.Use(d.Orgs.RequireOrg)

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Get("/{id}/forecast", h.ForecastCampaign)
			r.Get("/{id}/analysis", h.AnalyzeCampaign)
			r.Post("/{id}/decisions", h.DecisionSupport)
			r.Get("/{id}/content-recommendations", h.ContentRecommendations)
		})

		r.Route("/organization", func(r chi.Router) {
			r.Get("/forecast", h.ForecastOrganization)
			r.Get("/patterns", h.Patterns)
			r.Get("/posting-times", h.PostingTimes)
			r.Get("/reports", h.ReportHistory)
		})

		r.Get("/recommendations/similar", h.SimilarContent)
	})

	return r
}
