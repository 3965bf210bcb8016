// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/ManuGH/asfstats/internal/config"
	"github.com/ManuGH/asfstats/internal/log"
)

// handleConfig returns the active configuration with secrets masked.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.settings()
	if cfg.APIToken != "" {
		cfg.APIToken = "***"
	}
	if cfg.RedisPassword != "" {
		cfg.RedisPassword = "***"
	}
	writeJSON(w, http.StatusOK, cfg)
}

type reloadResponse struct {
	RestartRequired bool `json:"restart_required"`
}

// handleConfigReload re-reads the configuration from disk and applies
// it. The response tells the caller whether the change only takes full
// effect after a restart.
func (s *Server) handleConfigReload(w http.ResponseWriter, r *http.Request) {
	if s.reloader == nil {
		respondError(w, r, http.StatusNotImplemented, apiError{Code: "unavailable", Message: "Config reload not available"})
		return
	}

	oldCfg := s.settings()

	if err := s.reloader.Reload(r.Context()); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "config")
		logger.Warn().
			Err(err).
			Str("event", "config.reload_failed").
			Msg("config reload failed")
		respondBadRequest(w, r, "configuration did not validate")
		return
	}

	newCfg := s.reloader.Get()
	s.ApplySettings(newCfg)

	writeJSON(w, http.StatusOK, reloadResponse{
		RestartRequired: reloadRequiresRestart(oldCfg, newCfg),
	})
}

// reloadRequiresRestart reports whether any setting changed that is
// baked in at startup: listen addresses, storage paths and backend
// selections all are.
func reloadRequiresRestart(oldCfg, newCfg config.Settings) bool {
	return oldCfg.Listen != newCfg.Listen ||
		oldCfg.MetricsListen != newCfg.MetricsListen ||
		oldCfg.DataDir != newCfg.DataDir ||
		oldCfg.DBPath != newCfg.DBPath ||
		oldCfg.PageCacheBackend != newCfg.PageCacheBackend ||
		oldCfg.PageCacheDir != newCfg.PageCacheDir ||
		oldCfg.CacheBackend != newCfg.CacheBackend ||
		oldCfg.RedisAddr != newCfg.RedisAddr ||
		oldCfg.RateLimit != newCfg.RateLimit ||
		oldCfg.RateWindow != newCfg.RateWindow
}
