// Package router assembles the HTTP surface: the patient-facing intake
// endpoints, the admin statistics endpoint, and the operational endpoints.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/dentalstack/intake-platform/internal/http/middleware"
	"github.com/dentalstack/intake-platform/internal/intake"
	"github.com/dentalstack/intake-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	IntakeHandler      *intake.Handler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Per-IP rate limiting on the patient-facing endpoints. Zero disables.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public operational endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Tenant-scoped intake API, consumed by the booking UI.
	if cfg.IntakeHandler != nil {
		r.Group(func(tenant chi.Router) {
			tenant.Use(requireBusinessID)
			if cfg.RateLimitPerSecond > 0 {
				tenant.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
			}
			tenant.Mount("/intake", cfg.IntakeHandler.Routes())
		})
	}

	// Admin routes (protected by JWT).
	if cfg.AdminAuthSecret != "" && cfg.IntakeHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/intake/statistics", cfg.IntakeHandler.Statistics)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
