// SPDX-License-Identifier: MIT

package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/ManuGH/asfstats/internal/log"
)

// extractToken retrieves the API token from the request, preferring
// the Authorization header over the legacy X-API-Token header. Query
// parameters are never consulted: tokens in URLs end up in proxy logs
// and browser history.
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return r.Header.Get("X-API-Token")
}

// authorizeToken compares tokens in constant time to prevent timing
// attacks. Empty tokens never authorize.
func authorizeToken(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// authMiddleware enforces API token authentication on mutating
// endpoints. With no token configured access is denied (fail closed),
// so forgetting to set ASF_API_TOKEN cannot silently expose them.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.settings().APIToken

		logger := log.WithComponentFromContext(r.Context(), "auth")

		if token == "" {
			logger.Error().Str("event", "auth.fail_closed").Msg("ASF_API_TOKEN not set, denying access")
			respondError(w, r, http.StatusUnauthorized, errUnauthorized)
			return
		}

		reqToken := extractToken(r)
		if reqToken == "" {
			logger.Warn().Str("event", "auth.missing_token").Msg("authorization header missing")
			respondError(w, r, http.StatusUnauthorized, errUnauthorized)
			return
		}

		if !authorizeToken(reqToken, token) {
			logger.Warn().Str("event", "auth.invalid_token").Msg("invalid api token")
			respondError(w, r, http.StatusUnauthorized, errUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
