// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ManuGH/asfstats/internal/log"
)

// apiError is the wire shape inside the error envelope. Message is
// client-safe text; internal error details stay in the log.
type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// Well-known API errors.
var (
	errUnauthorized = apiError{Code: "unauthorized", Message: "Authentication required"}
	errRefreshBusy  = apiError{Code: "conflict", Message: "A refresh operation is already in progress"}
	errUpstream     = apiError{Code: "bad_gateway", Message: "Upstream listing fetch failed"}
	errInternal     = apiError{Code: "internal", Message: "An unexpected error occurred"}
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes the JSON error envelope, stamping the request id
// from the context so clients can quote it when reporting problems.
func respondError(w http.ResponseWriter, r *http.Request, status int, e apiError) {
	e.RequestID = log.RequestIDFromContext(r.Context())
	writeJSON(w, status, errorResponse{Error: e})
}

func respondBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	respondError(w, r, http.StatusBadRequest, apiError{Code: "bad_request", Message: message})
}

func respondNotFound(w http.ResponseWriter, r *http.Request, message string) {
	respondError(w, r, http.StatusNotFound, apiError{Code: "not_found", Message: message})
}

func respondInternalError(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusInternalServerError, errInternal)
}

// setCSVDownloadHeaders marks the response as a CSV attachment.
func setCSVDownloadHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
