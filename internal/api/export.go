// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/ManuGH/asfstats/internal/catalog"
	"github.com/ManuGH/asfstats/internal/log"
	"github.com/ManuGH/asfstats/internal/stats"
	"github.com/ManuGH/asfstats/internal/store"
)

// handleExportStories streams the full catalog as CSV in the
// goldenstories.csv column layout, straight from the store rather than
// the published artifact so it reflects the current catalog even if
// the artifact write is pending.
func (s *Server) handleExportStories(w http.ResponseWriter, r *http.Request) {
	stories, err := s.store.Stories(r.Context(), store.Filter{})
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "export.query_failed").
			Msg("story export query failed")
		respondInternalError(w, r)
		return
	}

	setCSVDownloadHeaders(w, catalog.ArtifactName)
	if err := catalog.WriteCSV(w, stories); err != nil {
		// Headers are gone; all we can do is log.
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "export.write_failed").
			Msg("story export write failed")
	}
}

func (s *Server) handleExportPivot(w http.ResponseWriter, r *http.Request) {
	matrix, err := s.store.YearMatrix(r.Context())
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "export.query_failed").
			Msg("pivot export query failed")
		respondInternalError(w, r)
		return
	}

	setCSVDownloadHeaders(w, "pivot.csv")
	if err := stats.WritePivotCSV(w, stats.BuildPivot(matrix)); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "export.write_failed").
			Msg("pivot export write failed")
	}
}

func (s *Server) handleExportTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.store.AuthorTotals(r.Context())
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "export.query_failed").
			Msg("totals export query failed")
		respondInternalError(w, r)
		return
	}

	setCSVDownloadHeaders(w, "totals.csv")
	if err := stats.WriteTotalsCSV(w, totals); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "export.write_failed").
			Msg("totals export write failed")
	}
}
