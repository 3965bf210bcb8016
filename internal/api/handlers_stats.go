// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ManuGH/asfstats/internal/jobs"
	"github.com/ManuGH/asfstats/internal/stats"
)

// defaultTopN matches the stacked-chart default in the UI.
const defaultTopN = 5

// maxTopN bounds the number of distinct top-N cache entries.
const maxTopN = 100

func (s *Server) handlePivot(w http.ResponseWriter, r *http.Request) {
	s.serveCachedJSON(w, r, "pivot", func(ctx context.Context) (any, error) {
		matrix, err := s.store.YearMatrix(ctx)
		if err != nil {
			return nil, err
		}
		return stats.BuildPivot(matrix), nil
	})
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	n := defaultTopN
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			respondBadRequest(w, r, "n must be a positive integer")
			return
		}
		n = v
	}
	if n > maxTopN {
		n = maxTopN
	}

	s.serveCachedJSON(w, r, fmt.Sprintf("top:%d", n), func(ctx context.Context) (any, error) {
		matrix, err := s.store.YearMatrix(ctx)
		if err != nil {
			return nil, err
		}
		return stats.BuildPivot(matrix).Top(n), nil
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.serveCachedJSON(w, r, "stats", func(ctx context.Context) (any, error) {
		return s.store.Stats(ctx)
	})
}

type statusResponse struct {
	jobs.Status
	Running       bool   `json:"running"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// handleStatus reports the last refresh outcome plus process-level
// info. Never cached: Running must reflect the in-flight state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:        s.runner.Status(),
		Running:       s.runner.Running(),
		Version:       s.settings().Version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}
