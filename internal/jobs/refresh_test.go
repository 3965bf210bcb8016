// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ManuGH/asfstats/internal/asfpage"
	"github.com/ManuGH/asfstats/internal/catalog"
)

const listingHTML = `<html><body><p>
July 1939<br>
Black Destroyer (A. E. van Vogt)<br>
Greater Than Gods (C. L. Moore)<br>
Trends (Isaac Asimov)<br>
August 1939<br>
Life-Line (Robert A. Heinlein)<br>
Misfit (Robert A. Heinlein)<br>
The Blue Giraffe (L. Sprague de Camp)<br>
</p></body></html>`

type fakeFetcher struct {
	url   string
	body  []byte
	err   error
	calls int
	block chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([]byte, error) {
	f.calls++
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

func (f *fakeFetcher) URL() string { return f.url }

type fakeStore struct {
	stories []catalog.Story
	err     error
}

func (s *fakeStore) ReplaceAll(ctx context.Context, stories []catalog.Story) error {
	if s.err != nil {
		return s.err
	}
	s.stories = stories
	return nil
}

type fakePages struct {
	entries map[string][]byte
	getErr  error
	setErr  error
}

func (p *fakePages) Get(ctx context.Context, url string) ([]byte, bool, error) {
	if p.getErr != nil {
		return nil, false, p.getErr
	}
	body, ok := p.entries[url]
	return body, ok, nil
}

func (p *fakePages) Set(ctx context.Context, url string, body []byte) error {
	if p.setErr != nil {
		return p.setErr
	}
	if p.entries == nil {
		p.entries = make(map[string][]byte)
	}
	p.entries[url] = body
	return nil
}

type fakeCache struct{ clears int }

func (c *fakeCache) Clear() { c.clears++ }

func testDeps(t *testing.T) (Config, Deps, *fakeFetcher, *fakeStore, *fakeCache) {
	t.Helper()
	fetcher := &fakeFetcher{url: "http://listing.test/origpage.html", body: []byte(listingHTML)}
	store := &fakeStore{}
	cache := &fakeCache{}
	cfg := Config{DataDir: t.TempDir()}
	deps := Deps{Fetcher: fetcher, Store: store, Cache: cache}
	return cfg, deps, fetcher, store, cache
}

func TestRefresh(t *testing.T) {
	cfg, deps, _, store, cache := testDeps(t)

	st, err := Refresh(context.Background(), cfg, deps)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if st.Stories != 6 || st.Issues != 2 || st.Authors != 5 || st.Skipped != 0 {
		t.Errorf("status = %+v, want 6 stories / 2 issues / 5 authors / 0 skipped", st)
	}
	if st.Source != SourceUpstream {
		t.Errorf("source = %q, want %q", st.Source, SourceUpstream)
	}
	if st.LastRun.IsZero() {
		t.Error("LastRun not set")
	}
	if cache.clears != 1 {
		t.Errorf("aggregate cache cleared %d times, want 1", cache.clears)
	}

	want := []catalog.Story{
		{Year: 1939, Month: "July", Title: "Black Destroyer", PublishedAs: "van Vogt, A. E.", Author: "van Vogt, A. E."},
		{Year: 1939, Month: "July", Title: "Greater Than Gods", PublishedAs: "Moore, C. L.", Author: "Moore, C. L."},
		{Year: 1939, Month: "July", Title: "Trends", PublishedAs: "Asimov, Isaac", Author: "Asimov, Isaac"},
		{Year: 1939, Month: "August", Title: "Life-Line", PublishedAs: "Heinlein, Robert A.", Author: "Heinlein, Robert A."},
		{Year: 1939, Month: "August", Title: "Misfit", PublishedAs: "Heinlein, Robert A.", Author: "Heinlein, Robert A."},
		{Year: 1939, Month: "August", Title: "The Blue Giraffe", PublishedAs: "de Camp, L. Sprague", Author: "de Camp, L. Sprague"},
	}
	if diff := cmp.Diff(want, store.stories); diff != "" {
		t.Errorf("stored catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshWritesArtifact(t *testing.T) {
	cfg, deps, _, store, _ := testDeps(t)

	if _, err := Refresh(context.Background(), cfg, deps); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	f, err := os.Open(filepath.Join(cfg.DataDir, catalog.ArtifactName))
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer f.Close()

	got, err := catalog.ReadCSV(f)
	if err != nil {
		t.Fatalf("parse artifact: %v", err)
	}
	if diff := cmp.Diff(store.stories, got); diff != "" {
		t.Errorf("artifact differs from stored catalog (-want +got):\n%s", diff)
	}
}

func TestRefreshServesFromPageCache(t *testing.T) {
	cfg, deps, fetcher, _, _ := testDeps(t)
	pages := &fakePages{}
	deps.Pages = pages

	st, err := Refresh(context.Background(), cfg, deps)
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if st.Source != SourceUpstream || fetcher.calls != 1 {
		t.Fatalf("first refresh: source=%q calls=%d, want upstream/1", st.Source, fetcher.calls)
	}

	st, err = Refresh(context.Background(), cfg, deps)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if st.Source != SourceCache {
		t.Errorf("second refresh source = %q, want %q", st.Source, SourceCache)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher called %d times, want 1 (second run should hit the cache)", fetcher.calls)
	}
}

func TestRefreshPageCacheFailuresDegrade(t *testing.T) {
	cfg, deps, fetcher, _, _ := testDeps(t)
	deps.Pages = &fakePages{getErr: errors.New("backend down"), setErr: errors.New("backend down")}

	st, err := Refresh(context.Background(), cfg, deps)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if st.Source != SourceUpstream || fetcher.calls != 1 {
		t.Errorf("cache trouble should fall back to upstream, got source=%q calls=%d", st.Source, fetcher.calls)
	}
}

func TestRefreshAppliesAliases(t *testing.T) {
	cfg, deps, _, store, _ := testDeps(t)

	spellings := filepath.Join(cfg.DataDir, "Spelling.csv")
	writeFile(t, spellings, "Name,Spellings\n\"van Vogt, A. E.\",vogt\n")
	pennames := filepath.Join(cfg.DataDir, "PenNames.csv")
	writeFile(t, pennames, "Author,Pen Names\n\"Heinlein, Robert A.\",\"MacDonald, Anson|Saunders, Caleb\"\n")
	cfg.SpellingsPath = spellings
	cfg.PenNamesPath = pennames

	deps.Fetcher = &fakeFetcher{
		url: "http://listing.test/origpage.html",
		body: []byte(`<html><body>
July 1941<br>
Solution Unsatisfactory (Anson MacDonald)<br>
The Seesaw (A. E. Van Vogt)<br>
</body></html>`),
	}

	if _, err := Refresh(context.Background(), cfg, deps); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	want := []catalog.Story{
		{Year: 1941, Month: "July", Title: "Solution Unsatisfactory", PublishedAs: "MacDonald, Anson", Author: "Heinlein, Robert A."},
		{Year: 1941, Month: "July", Title: "The Seesaw", PublishedAs: "van Vogt, A. E.", Author: "van Vogt, A. E."},
	}
	if diff := cmp.Diff(want, store.stories); diff != "" {
		t.Errorf("alias chain mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshMissingAliasFileIsIdentity(t *testing.T) {
	cfg, deps, _, store, _ := testDeps(t)
	cfg.SpellingsPath = filepath.Join(cfg.DataDir, "does-not-exist.csv")
	cfg.PenNamesPath = filepath.Join(cfg.DataDir, "also-missing.csv")

	if _, err := Refresh(context.Background(), cfg, deps); err != nil {
		t.Fatalf("Refresh with missing alias files: %v", err)
	}
	if len(store.stories) != 6 {
		t.Errorf("stored %d stories, want 6", len(store.stories))
	}
	for _, s := range store.stories {
		if s.PublishedAs != s.Author {
			t.Errorf("identity normalization expected, got %q -> %q", s.PublishedAs, s.Author)
		}
	}
}

func TestRefreshMalformedAliasFile(t *testing.T) {
	cfg, deps, _, _, _ := testDeps(t)
	bad := filepath.Join(cfg.DataDir, "Spelling.csv")
	writeFile(t, bad, "Name,Spellings\nonly-one-column\n")
	cfg.SpellingsPath = bad

	_, err := Refresh(context.Background(), cfg, deps)
	if err == nil {
		t.Fatal("expected error for malformed alias file")
	}
	if !strings.Contains(err.Error(), "spellings") {
		t.Errorf("error %q should name the failing map", err)
	}
}

func TestRefreshErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config, deps *Deps)
		wantMsg string
	}{
		{
			name:    "fetch failure",
			mutate:  func(cfg *Config, deps *Deps) { deps.Fetcher.(*fakeFetcher).err = errors.New("connection refused") },
			wantMsg: "fetch listing",
		},
		{
			name:    "store failure",
			mutate:  func(cfg *Config, deps *Deps) { deps.Store.(*fakeStore).err = errors.New("disk full") },
			wantMsg: "replace catalog",
		},
		{
			name:    "nil fetcher",
			mutate:  func(cfg *Config, deps *Deps) { deps.Fetcher = nil },
			wantMsg: "page fetcher is nil",
		},
		{
			name:    "nil store",
			mutate:  func(cfg *Config, deps *Deps) { deps.Store = nil },
			wantMsg: "catalog store is nil",
		},
		{
			name:    "empty data dir",
			mutate:  func(cfg *Config, deps *Deps) { cfg.DataDir = "" },
			wantMsg: "data directory is empty",
		},
		{
			name:    "bad scheme",
			mutate:  func(cfg *Config, deps *Deps) { deps.Fetcher.(*fakeFetcher).url = "ftp://listing.test/x" },
			wantMsg: "unsupported listing URL scheme",
		},
		{
			name:    "missing host",
			mutate:  func(cfg *Config, deps *Deps) { deps.Fetcher.(*fakeFetcher).url = "http:///origpage.html" },
			wantMsg: "missing host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, deps, _, _, _ := testDeps(t)
			tt.mutate(&cfg, &deps)

			_, err := Refresh(context.Background(), cfg, deps)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestRefreshNoIssuesOnPage(t *testing.T) {
	cfg, deps, fetcher, _, _ := testDeps(t)
	fetcher.body = []byte("<html><body>Nothing to see here</body></html>")

	_, err := Refresh(context.Background(), cfg, deps)
	if !errors.Is(err, asfpage.ErrNoIssues) {
		t.Fatalf("err = %v, want ErrNoIssues", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
