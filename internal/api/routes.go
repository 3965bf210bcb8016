// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/asfstats/internal/middleware"
)

// Handler builds the full router: middleware stack, health endpoints,
// the JSON API, CSV exports, the artifact file server and the UI.
func (s *Server) Handler() http.Handler {
	cfg := s.settings()

	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		CSP:                   middleware.DefaultCSP,

		EnableMetrics:  true,
		TracingService: "asfstats-api",
		EnableLogging:  true,

		EnableRateLimit:   true,
		RateLimitRequests: cfg.RateLimit,
		RateLimitWindow:   cfg.RateWindow,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stories", s.handleStories)
		r.Get("/authors", s.handleAuthors)
		r.Get("/authors/{author}/years", s.handleAuthorYears)
		r.Get("/pivot", s.handlePivot)
		r.Get("/top", s.handleTop)
		r.Get("/stats", s.handleStats)
		r.Get("/status", s.handleStatus)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.With(middleware.RefreshRateLimit()).Post("/refresh", s.handleRefresh)
			r.Get("/config", s.handleConfig)
			r.Post("/config/reload", s.handleConfigReload)
		})
	})

	r.Route("/export", func(r chi.Router) {
		r.Get("/stories.csv", s.handleExportStories)
		r.Get("/pivot.csv", s.handleExportPivot)
		r.Get("/totals.csv", s.handleExportTotals)
	})

	r.Handle("/files/*", http.StripPrefix("/files", s.secureFileServer()))

	if s.ui != nil {
		r.Mount("/", s.ui)
	}

	return r
}
