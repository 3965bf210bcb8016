// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ManuGH/asfstats/internal/asfpage"
	"github.com/ManuGH/asfstats/internal/jobs"
	"github.com/ManuGH/asfstats/internal/log"
)

// refreshTimeout bounds one HTTP-triggered refresh end to end.
const refreshTimeout = 5 * time.Minute

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	// Detach from the request context so a client disconnect does not
	// cancel the refresh mid-replace. Trace and request id survive.
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), refreshTimeout)
	defer cancel()

	clientGone := make(chan struct{})
	go func() {
		<-r.Context().Done()
		if r.Context().Err() == context.Canceled {
			logger.Info().Msg("client disconnected during refresh (job continues)")
			close(clientGone)
		}
	}()

	start := time.Now()
	st, err := s.runner.Run(jobCtx)
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, jobs.ErrBusy) {
			logger.Warn().
				Str("event", "refresh.conflict").
				Str("method", r.Method).
				Msg("refresh already in progress")
			w.Header().Set("Retry-After", "30")
			respondError(w, r, http.StatusConflict, errRefreshBusy)
			return
		}

		logger.Error().
			Err(err).
			Str("event", "refresh.failed").
			Str("method", r.Method).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("refresh failed")
		// Details stay in the log; the client gets a generic error.
		if isUpstreamError(err) {
			respondError(w, r, http.StatusBadGateway, errUpstream)
			return
		}
		respondInternalError(w, r)
		return
	}

	select {
	case <-clientGone:
		logger.Info().
			Str("event", "refresh.success").
			Int("stories", st.Stories).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("refresh completed despite client disconnect")
	default:
		logger.Info().
			Str("event", "refresh.success").
			Int("stories", st.Stories).
			Int("issues", st.Issues).
			Int("authors", st.Authors).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("refresh completed successfully")
	}

	writeJSON(w, http.StatusAccepted, st)
}

// isUpstreamError reports whether a refresh failure was the listing
// page's fault rather than ours, so the API can answer 502 instead of
// 500.
func isUpstreamError(err error) bool {
	return errors.Is(err, asfpage.ErrUnavailable) ||
		errors.Is(err, asfpage.ErrStatus) ||
		errors.Is(err, asfpage.ErrTimeout) ||
		errors.Is(err, asfpage.ErrTooLarge)
}
