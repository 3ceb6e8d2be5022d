// Package api provides the HTTP API for Pavecast.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pavecast/pavecast/internal/api/handler"
	"github.com/pavecast/pavecast/internal/api/middleware"
	"github.com/pavecast/pavecast/internal/api/response"
	"github.com/pavecast/pavecast/internal/engine"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version      string
	BuildTime    string
	Logger       zerolog.Logger
	ServiceName  string
	Metrics      *middleware.Metrics
	RequireTLS   bool
	CacheBackend string
	Service      *engine.Service
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "pavecast-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route matches "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r, r.Method+" is not supported for "+r.URL.Path)
	})

	weatherHandler := handler.NewWeatherHandler(cfg.Service)
	opsHandler := handler.NewOpsHandler(cfg.Service, cfg.Version, cfg.BuildTime, cfg.CacheBackend)

	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min
	reportRateLimit := middleware.RateLimitByIP(middleware.ReportRateLimit)     // 30 req/min
	opsRateLimit := middleware.RateLimitByIP(middleware.OpsRateLimit)           // 5 req/min

	r.Route("/v1", func(r chi.Router) {
		r.Route("/weather", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/current", weatherHandler.GetCurrent)
			r.Get("/forecast", weatherHandler.GetForecast)
			r.Get("/alerts", weatherHandler.GetAlerts)
		})

		// Scoring is pure computation; no provider is contacted.
		r.With(standardRateLimit, middleware.RequireJSON).Post("/workability:score", weatherHandler.ScoreWorkability)

		// Site reports fan out to three upstream calls.
		r.With(reportRateLimit).Get("/sites/report", weatherHandler.GetSiteReport)

		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
			r.With(opsRateLimit).Post("/cache:invalidate", opsHandler.InvalidateCache)
		})
	})

	return r
}
