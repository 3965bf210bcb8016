// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ManuGH/asfstats/internal/config"
)

func newFileServerHandler(t *testing.T, dataDir string) http.Handler {
	t.Helper()
	cfg := config.Defaults()
	cfg.Version = "test"
	cfg.DataDir = dataDir
	srv := New(Options{Config: cfg})
	return http.StripPrefix("/files", srv.secureFileServer())
}

func TestSecureFileServer_PathTraversal(t *testing.T) {
	handler := newFileServerHandler(t, t.TempDir())

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{
			name:       "Simple dot-dot traversal",
			path:       "/files/../etc/passwd",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "URL-encoded dot-dot",
			path:       "/files/%2e%2e/etc/passwd",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "Double-encoded dot-dot",
			path:       "/files/%252e%252e/etc/passwd",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "Backslash traversal",
			path:       "/files/..\\..\\etc\\passwd",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "Overlong UTF-8 dot",
			path:       "/files/%c0%ae%c0%ae/etc/passwd",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "Encoded NUL byte",
			path:       "/files/goldenstories.csv%00.txt",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "Directory listing attempt",
			path:       "/files/",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "Valid file request",
			path:       "/files/goldenstories.csv",
			wantStatus: http.StatusNotFound, // File doesn't exist, but path is valid
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %v, want %v", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestSecureFileServer_SymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.csv")
	if err := os.WriteFile(secret, []byte("Year,Month\n"), 0600); err != nil {
		t.Fatalf("failed to create secret file: %v", err)
	}

	dataDir := t.TempDir()
	if err := os.Symlink(secret, filepath.Join(dataDir, "link.csv")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	handler := newFileServerHandler(t, dataDir)

	req := httptest.NewRequest(http.MethodGet, "/files/link.csv", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("symlink escaping the data dir: status = %v, want %v", w.Code, http.StatusForbidden)
	}
}

func TestSecureFileServer_ETagCaching(t *testing.T) {
	tmpDir := t.TempDir()
	testContent := "Year,Month,Title,Published As,Author\n1939,July,Black Destroyer,\"van Vogt, A. E.\",\"van Vogt, A. E.\"\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "goldenstories.csv"), []byte(testContent), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	handler := newFileServerHandler(t, tmpDir)

	// First request - get ETag
	req1 := httptest.NewRequest(http.MethodGet, "/files/goldenstories.csv", nil)
	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, req1)

	if w1.Code != http.StatusOK {
		t.Fatalf("First request failed with status %v", w1.Code)
	}

	etag := w1.Header().Get("ETag")
	if etag == "" {
		t.Fatal("Expected ETag header in response")
	}
	if !strings.HasPrefix(etag, `W/"`) {
		t.Errorf("Expected weak ETag, got %q", etag)
	}

	// Second request with If-None-Match - should return 304
	req2 := httptest.NewRequest(http.MethodGet, "/files/goldenstories.csv", nil)
	req2.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)

	if w2.Code != http.StatusNotModified {
		t.Errorf("Expected 304 Not Modified with matching ETag, got %v", w2.Code)
	}

	cacheControl := w1.Header().Get("Cache-Control")
	if !strings.Contains(cacheControl, "max-age") {
		t.Errorf("Expected Cache-Control with max-age, got %q", cacheControl)
	}
}

func TestSecureFileServer_RangeRequests(t *testing.T) {
	tmpDir := t.TempDir()
	testContent := "Year,Month,Title,Published As,Author\n1941,May,Universe,\"Heinlein, Robert A.\",\"Heinlein, Robert A.\"\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "goldenstories.csv"), []byte(testContent), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	handler := newFileServerHandler(t, tmpDir)

	tests := []struct {
		name        string
		rangeHeader string
		wantStatus  int
		wantBody    string
	}{
		{
			name:       "No Range header - full content",
			wantStatus: http.StatusOK,
			wantBody:   testContent,
		},
		{
			name:        "Range: bytes=0-9 - first 10 bytes",
			rangeHeader: "bytes=0-9",
			wantStatus:  http.StatusPartialContent,
			wantBody:    testContent[:10],
		},
		{
			name:        "Range: bytes=10- - from byte 10 to end",
			rangeHeader: "bytes=10-",
			wantStatus:  http.StatusPartialContent,
			wantBody:    testContent[10:],
		},
		{
			name:        "Invalid Range header",
			rangeHeader: "bytes=invalid",
			wantStatus:  http.StatusRequestedRangeNotSatisfiable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/files/goldenstories.csv", nil)
			if tt.rangeHeader != "" {
				req.Header.Set("Range", tt.rangeHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %v, want %v", w.Code, tt.wantStatus)
			}
			if w.Code == http.StatusPartialContent && w.Header().Get("Content-Range") == "" {
				t.Error("Expected Content-Range header for partial content")
			}
			if tt.wantBody != "" && (w.Code == http.StatusOK || w.Code == http.StatusPartialContent) {
				if body := w.Body.String(); body != tt.wantBody {
					t.Errorf("Body = %q, want %q", body, tt.wantBody)
				}
			}
		})
	}
}

func TestSecureFileServer_ContentType(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "goldenstories.csv"), []byte("Year,Month\n"), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	handler := newFileServerHandler(t, tmpDir)

	req := httptest.NewRequest(http.MethodGet, "/files/goldenstories.csv", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Request failed with status %v", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("Content-Type = %q, want %q", ct, "text/csv; charset=utf-8")
	}
}

func TestSecureFileServer_MethodNotAllowed(t *testing.T) {
	handler := newFileServerHandler(t, t.TempDir())

	methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/files/goldenstories.csv", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Method %s: status = %v, want %v", method, w.Code, http.StatusMethodNotAllowed)
			}
		})
	}
}

func TestSecureFileServer_HeadRequest(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "goldenstories.csv"), []byte("Year,Month\n"), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	handler := newFileServerHandler(t, tmpDir)

	req := httptest.NewRequest(http.MethodHead, "/files/goldenstories.csv", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("HEAD request: status = %v, want %v", w.Code, http.StatusOK)
	}
	if w.Body.Len() != 0 {
		t.Errorf("HEAD request should have empty body, got %d bytes", w.Body.Len())
	}
}
