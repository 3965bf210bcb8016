// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/asfstats/internal/catalog"
	"github.com/ManuGH/asfstats/internal/log"
	"github.com/ManuGH/asfstats/internal/stats"
	"github.com/ManuGH/asfstats/internal/store"
)

type storiesResponse struct {
	Count   int             `json:"count"`
	Stories []catalog.Story `json:"stories"`
}

type authorsResponse struct {
	Count   int      `json:"count"`
	Authors []string `json:"authors"`
}

// handleStories serves the story listing, optionally filtered by
// author and year. Filtered results are not cached; the listing is a
// single indexed query either way.
func (s *Server) handleStories(w http.ResponseWriter, r *http.Request) {
	f := store.Filter{Author: r.URL.Query().Get("author")}
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			respondBadRequest(w, r, "year must be an integer")
			return
		}
		f.Year = year
	}

	stories, err := s.store.Stories(r.Context(), f)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "stories.query_failed").
			Msg("story query failed")
		respondInternalError(w, r)
		return
	}
	if stories == nil {
		stories = []catalog.Story{}
	}

	writeJSON(w, http.StatusOK, storiesResponse{Count: len(stories), Stories: stories})
}

func (s *Server) handleAuthors(w http.ResponseWriter, r *http.Request) {
	s.serveCachedJSON(w, r, "authors", func(ctx context.Context) (any, error) {
		authors, err := s.store.Authors(ctx)
		if err != nil {
			return nil, err
		}
		if authors == nil {
			authors = []string{}
		}
		return authorsResponse{Count: len(authors), Authors: authors}, nil
	})
}

// handleAuthorYears serves one author's story count per era year,
// zero-filled, the shape the per-author chart plots directly.
func (s *Server) handleAuthorYears(w http.ResponseWriter, r *http.Request) {
	author := chi.URLParam(r, "author")
	if dec, err := url.PathUnescape(author); err == nil {
		author = dec
	}

	byYear, err := s.store.AuthorYearCounts(r.Context(), author)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "author_years.query_failed").
			Msg("author year query failed")
		respondInternalError(w, r)
		return
	}
	if len(byYear) == 0 {
		respondNotFound(w, r, "no stories recorded for this author")
		return
	}

	writeJSON(w, http.StatusOK, stats.BuildSeries(author, byYear))
}
