// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"time"

	"github.com/ManuGH/asfstats/internal/catalog"
)

// PageFetcher loads the raw listing page from upstream.
type PageFetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
	URL() string
}

// PageCache keeps fetched listing bodies between refreshes so repeated
// runs do not hammer the upstream page.
type PageCache interface {
	Get(ctx context.Context, url string) ([]byte, bool, error)
	Set(ctx context.Context, url string, body []byte) error
}

// CatalogStore persists the parsed and normalized catalog.
type CatalogStore interface {
	ReplaceAll(ctx context.Context, stories []catalog.Story) error
}

// AggregateCache holds derived aggregates that become stale when the
// catalog changes.
type AggregateCache interface {
	Clear()
}

// Config holds configuration for refresh operations.
type Config struct {
	DataDir       string
	SpellingsPath string
	PenNamesPath  string
}

// Deps bundles the collaborators a refresh needs. Pages and Cache are
// optional, Clock defaults to time.Now.
type Deps struct {
	Fetcher PageFetcher
	Pages   PageCache
	Store   CatalogStore
	Cache   AggregateCache
	Clock   func() time.Time
}

// Status represents the current state of the refresh job.
type Status struct {
	LastRun time.Time `json:"last_run"`
	Stories int       `json:"stories"`
	Issues  int       `json:"issues"`
	Authors int       `json:"authors"`
	Skipped int       `json:"skipped"`
	Source  string    `json:"source"`
	Error   string    `json:"error,omitempty"`
}

// Listing body sources reported in Status.Source.
const (
	SourceUpstream = "upstream"
	SourceCache    = "cache"
)
