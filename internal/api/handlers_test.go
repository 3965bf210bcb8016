// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/asfstats/internal/cache"
	"github.com/ManuGH/asfstats/internal/catalog"
	"github.com/ManuGH/asfstats/internal/config"
	"github.com/ManuGH/asfstats/internal/health"
	"github.com/ManuGH/asfstats/internal/jobs"
	"github.com/ManuGH/asfstats/internal/stats"
	"github.com/ManuGH/asfstats/internal/store"
)

var testStories = []catalog.Story{
	{Year: 1939, Month: "July", Title: "Black Destroyer", PublishedAs: "van Vogt, A. E.", Author: "van Vogt, A. E."},
	{Year: 1939, Month: "July", Title: "Trends", PublishedAs: "Asimov, Isaac", Author: "Asimov, Isaac"},
	{Year: 1941, Month: "May", Title: "Universe", PublishedAs: "Heinlein, Robert A.", Author: "Heinlein, Robert A."},
	{Year: 1941, Month: "September", Title: "Nightfall", PublishedAs: "Asimov, Isaac", Author: "Asimov, Isaac"},
	{Year: 1942, Month: "April", Title: "Beyond This Horizon", PublishedAs: "MacDonald, Anson", Author: "Heinlein, Robert A."},
}

type fakeRunner struct {
	st      jobs.Status
	err     error
	running bool
	calls   int
}

func (f *fakeRunner) Run(ctx context.Context) (*jobs.Status, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	st := f.st
	return &st, nil
}

func (f *fakeRunner) Status() jobs.Status { return f.st }
func (f *fakeRunner) Running() bool       { return f.running }

// newTestServer builds a Server over a seeded store. mutate can swap
// collaborators before construction.
func newTestServer(t *testing.T, mutate func(*Options)) (*Server, http.Handler) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.ReplaceAll(context.Background(), testStories); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	cfg := config.Defaults()
	cfg.Version = "test"
	cfg.DataDir = t.TempDir()

	opts := Options{
		Config: cfg,
		Store:  st,
		Runner: &fakeRunner{},
		Health: health.NewManager("test"),
	}
	if mutate != nil {
		mutate(&opts)
	}

	srv := New(opts)
	return srv, srv.Handler()
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHandleStories(t *testing.T) {
	_, handler := newTestServer(t, nil)

	tests := []struct {
		name      string
		target    string
		wantCode  int
		wantCount int
	}{
		{"all stories", "/api/stories", http.StatusOK, 5},
		{"filter by year", "/api/stories?year=1939", http.StatusOK, 2},
		{"filter by author", "/api/stories?author=Asimov%2C+Isaac", http.StatusOK, 2},
		{"filter by author and year", "/api/stories?author=Asimov%2C+Isaac&year=1941", http.StatusOK, 1},
		{"unknown author", "/api/stories?author=Nobody", http.StatusOK, 0},
		{"invalid year", "/api/stories?year=first", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			resp := decodeJSON[storiesResponse](t, w)
			if resp.Count != tt.wantCount {
				t.Errorf("count = %d, want %d", resp.Count, tt.wantCount)
			}
			if len(resp.Stories) != tt.wantCount {
				t.Errorf("len(stories) = %d, want %d", len(resp.Stories), tt.wantCount)
			}
		})
	}
}

func TestHandleStories_ListingOrder(t *testing.T) {
	_, handler := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/stories?year=1939", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := decodeJSON[storiesResponse](t, w)
	if len(resp.Stories) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(resp.Stories))
	}
	if resp.Stories[0].Title != "Black Destroyer" {
		t.Errorf("first story = %q, want listing order preserved", resp.Stories[0].Title)
	}
}

func TestHandleAuthors(t *testing.T) {
	_, handler := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/authors", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp := decodeJSON[authorsResponse](t, w)
	want := []string{"Asimov, Isaac", "Heinlein, Robert A.", "van Vogt, A. E."}
	if resp.Count != len(want) {
		t.Fatalf("count = %d, want %d", resp.Count, len(want))
	}
	for i, author := range want {
		if resp.Authors[i] != author {
			t.Errorf("authors[%d] = %q, want %q", i, resp.Authors[i], author)
		}
	}
}

func TestHandleAuthorYears(t *testing.T) {
	_, handler := newTestServer(t, nil)

	target := "/api/authors/" + url.PathEscape("Heinlein, Robert A.") + "/years"
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	series := decodeJSON[stats.Series](t, w)
	if series.Author != "Heinlein, Robert A." {
		t.Errorf("author = %q", series.Author)
	}
	if len(series.Years) != len(catalog.Years()) {
		t.Fatalf("expected zero-filled era years, got %d", len(series.Years))
	}
	counts := make(map[int]int, len(series.Years))
	for i, year := range series.Years {
		counts[year] = series.Counts[i]
	}
	if counts[1941] != 1 || counts[1942] != 1 || counts[1939] != 0 {
		t.Errorf("unexpected counts: 1941=%d 1942=%d 1939=%d", counts[1941], counts[1942], counts[1939])
	}
}

func TestHandleAuthorYears_UnknownAuthor(t *testing.T) {
	_, handler := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/authors/Nobody/years", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	resp := decodeJSON[errorResponse](t, w)
	if resp.Error.Code != "not_found" {
		t.Errorf("error code = %q, want not_found", resp.Error.Code)
	}
	if resp.Error.RequestID == "" {
		t.Error("expected request id in error envelope")
	}
}

func TestHandlePivot(t *testing.T) {
	_, handler := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/pivot", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	pivot := decodeJSON[stats.Pivot](t, w)
	if len(pivot.Years) != len(catalog.Years()) {
		t.Fatalf("years = %d, want full era", len(pivot.Years))
	}
	if len(pivot.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(pivot.Rows))
	}
	// Asimov and Heinlein tie at 2; alphabetical tie-break puts Asimov first.
	if pivot.Rows[0].Author != "Asimov, Isaac" || pivot.Rows[0].Total != 2 {
		t.Errorf("first row = %q (%d)", pivot.Rows[0].Author, pivot.Rows[0].Total)
	}
	if pivot.Rows[2].Author != "van Vogt, A. E." || pivot.Rows[2].Total != 1 {
		t.Errorf("last row = %q (%d)", pivot.Rows[2].Author, pivot.Rows[2].Total)
	}
}

func TestHandleTop(t *testing.T) {
	_, handler := newTestServer(t, nil)

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantRows int
	}{
		{"default n", "/api/top", http.StatusOK, 3}, // only 3 authors seeded
		{"explicit n", "/api/top?n=2", http.StatusOK, 2},
		{"n larger than rows", "/api/top?n=50", http.StatusOK, 3},
		{"zero n", "/api/top?n=0", http.StatusBadRequest, 0},
		{"negative n", "/api/top?n=-3", http.StatusBadRequest, 0},
		{"non-numeric n", "/api/top?n=five", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			pivot := decodeJSON[stats.Pivot](t, w)
			if len(pivot.Rows) != tt.wantRows {
				t.Errorf("rows = %d, want %d", len(pivot.Rows), tt.wantRows)
			}
		})
	}
}

func TestHandleStats(t *testing.T) {
	_, handler := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	got := decodeJSON[store.Stats](t, w)
	want := store.Stats{Years: 3, Issues: 4, Stories: 5, Authors: 3}
	if got != want {
		t.Errorf("stats = %+v, want %+v", got, want)
	}
}

func TestHandleStatus(t *testing.T) {
	lastRun := time.Date(2026, 8, 25, 4, 0, 0, 0, time.UTC)
	runner := &fakeRunner{
		st: jobs.Status{
			LastRun: lastRun,
			Stories: 3235,
			Issues:  255,
			Authors: 700,
			Source:  jobs.SourceUpstream,
		},
		running: true,
	}
	_, handler := newTestServer(t, func(o *Options) { o.Runner = runner })

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if resp["stories"] != float64(3235) {
		t.Errorf("stories = %v", resp["stories"])
	}
	if resp["running"] != true {
		t.Errorf("running = %v, want true", resp["running"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
	if _, ok := resp["uptime_seconds"]; !ok {
		t.Error("expected uptime_seconds field")
	}
	if resp["source"] != jobs.SourceUpstream {
		t.Errorf("source = %v, want upstream", resp["source"])
	}
}

func TestAggregateCaching(t *testing.T) {
	mem := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { _ = mem.Close() })

	_, handler := newTestServer(t, func(o *Options) { o.Cache = mem })

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/pivot", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, w.Code)
		}
	}

	st := mem.Stats()
	if st.Hits != 1 {
		t.Errorf("cache hits = %d, want 1", st.Hits)
	}
	if st.Misses != 1 {
		t.Errorf("cache misses = %d, want 1", st.Misses)
	}

	// A cleared cache (what the refresh job does) forces a rebuild.
	mem.Clear()
	req := httptest.NewRequest(http.MethodGet, "/api/pivot", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("post-clear request: status = %d", w.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	_, handler := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("/healthz status = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("/readyz status = %d, want 200", w.Code)
	}
}
