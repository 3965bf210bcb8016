// SPDX-License-Identifier: MIT

// Package api provides the HTTP server for the asfstats service: the
// JSON API over the story catalog, CSV exports, the hardened file
// server for published artifacts and the health endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/ManuGH/asfstats/internal/cache"
	"github.com/ManuGH/asfstats/internal/config"
	"github.com/ManuGH/asfstats/internal/health"
	"github.com/ManuGH/asfstats/internal/jobs"
	"github.com/ManuGH/asfstats/internal/log"
	"github.com/ManuGH/asfstats/internal/store"
)

// RefreshRunner triggers catalog refreshes and reports the last
// outcome. Implemented by jobs.Runner.
type RefreshRunner interface {
	Run(ctx context.Context) (*jobs.Status, error)
	Status() jobs.Status
	Running() bool
}

// ConfigReloader re-reads configuration from disk and yields the
// result. Implemented by config.Holder.
type ConfigReloader interface {
	Reload(ctx context.Context) error
	Get() config.Settings
}

// Options bundles the collaborators a Server needs. Cache, UI and
// Reloader are optional.
type Options struct {
	Config   config.Settings
	Store    *store.Store
	Runner   RefreshRunner
	Cache    cache.Cache
	Health   *health.Manager
	UI       http.Handler
	Reloader ConfigReloader
}

// Server is the HTTP API server for asfstats.
type Server struct {
	mu  sync.RWMutex
	cfg config.Settings

	store    *store.Store
	runner   RefreshRunner
	cache    cache.Cache
	health   *health.Manager
	ui       http.Handler
	reloader ConfigReloader

	startTime time.Time
}

// New builds a Server from its collaborators. The configuration passed
// here seeds the router; live values (token, data dir) are read per
// request so reloads take effect without a restart.
func New(opts Options) *Server {
	s := &Server{
		cfg:       opts.Config,
		store:     opts.Store,
		runner:    opts.Runner,
		cache:     opts.Cache,
		health:    opts.Health,
		ui:        opts.UI,
		reloader:  opts.Reloader,
		startTime: time.Now(),
	}
	if s.cache == nil {
		s.cache = cache.NewNoOpCache()
	}
	return s
}

// settings returns the current configuration snapshot.
func (s *Server) settings() config.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ApplySettings swaps the active configuration after a reload. Values
// baked into the router at construction time (rate limits, listen
// addresses) need a restart to change; handleConfigReload reports
// that to the caller.
func (s *Server) ApplySettings(cfg config.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// serveCachedJSON serves a pre-marshaled aggregate from the cache,
// building and caching it on miss. The refresh job clears the cache
// when the catalog changes, so entries never outlive the data they
// were derived from.
func (s *Server) serveCachedJSON(w http.ResponseWriter, r *http.Request, key string, build func(ctx context.Context) (any, error)) {
	if body, ok := s.cache.Get(key); ok {
		recordAggregateCacheHit()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
		return
	}
	recordAggregateCacheMiss()

	v, err := build(r.Context())
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "aggregate.build_failed").
			Str("key", key).
			Msg("aggregate query failed")
		respondInternalError(w, r)
		return
	}

	body, err := json.Marshal(v)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "aggregate.encode_failed").
			Str("key", key).
			Msg("failed to encode aggregate")
		respondInternalError(w, r)
		return
	}

	s.cache.Set(key, body, s.settings().CacheTTL)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
