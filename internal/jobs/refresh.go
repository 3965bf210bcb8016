// Package jobs runs the refresh pipeline that turns the upstream issue
// listing into the catalog: fetch page, parse, normalize bylines,
// replace the store rows and publish the CSV artifact.
package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/asfstats/internal/asfpage"
	"github.com/ManuGH/asfstats/internal/catalog"
	"github.com/ManuGH/asfstats/internal/log"
	"github.com/ManuGH/asfstats/internal/metrics"
	"github.com/ManuGH/asfstats/internal/normalize"
)

// Refresh performs the complete refresh cycle: fetch listing → parse →
// normalize bylines → replace catalog → write goldenstories.csv.
func Refresh(ctx context.Context, cfg Config, deps Deps) (*Status, error) {
	logger := log.WithComponentFromContext(ctx, "jobs")
	logger.Info().Str("event", "refresh.start").Msg("starting refresh")

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	if err := validate(cfg, deps); err != nil {
		metrics.IncRefreshFailure("config")
		return nil, err
	}

	body, source, err := fetchListing(ctx, deps, logger)
	if err != nil {
		metrics.IncRefreshFailure("fetch")
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	metrics.IncListingFetch(source)

	listing, err := asfpage.ParseListing(bytes.NewReader(body))
	if err != nil {
		metrics.IncRefreshFailure("parse")
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	norm, err := loadNormalizer(cfg, logger)
	if err != nil {
		metrics.IncRefreshFailure("aliases")
		return nil, err
	}

	stories := make([]catalog.Story, 0, len(listing.Stories))
	authors := make(map[string]struct{}, 256)
	for _, raw := range listing.Stories {
		publishedAs, author := norm.Normalize(raw.Byline)
		stories = append(stories, catalog.Story{
			Year:        raw.Year,
			Month:       raw.Month,
			Title:       raw.Title,
			PublishedAs: publishedAs,
			Author:      author,
		})
		authors[author] = struct{}{}
	}

	if err := deps.Store.ReplaceAll(ctx, stories); err != nil {
		metrics.IncRefreshFailure("store")
		return nil, fmt.Errorf("replace catalog: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		metrics.IncRefreshFailure("artifact")
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	artifactPath := filepath.Join(cfg.DataDir, catalog.ArtifactName)
	if err := writeCSV(ctx, artifactPath, stories); err != nil {
		metrics.IncRefreshFailure("artifact")
		return nil, fmt.Errorf("write artifact: %w", err)
	}
	logger.Info().
		Str("event", "artifact.write").
		Str(log.FieldPath, artifactPath).
		Int(log.FieldStories, len(stories)).
		Msg("artifact written")

	if deps.Cache != nil {
		deps.Cache.Clear()
		logger.Debug().Str("event", "cache.invalidate").Msg("aggregate cache cleared")
	}

	status := &Status{
		LastRun: clock(),
		Stories: len(stories),
		Issues:  listing.Issues,
		Authors: len(authors),
		Skipped: listing.Skipped,
		Source:  source,
	}
	metrics.RecordCatalogCounts(status.Stories, status.Issues, status.Authors, status.Skipped)
	metrics.RecordLastRefresh(status.LastRun)

	logger.Info().
		Str("event", "refresh.success").
		Str(log.FieldSource, source).
		Int(log.FieldStories, status.Stories).
		Int(log.FieldIssues, status.Issues).
		Int(log.FieldAuthors, status.Authors).
		Int(log.FieldSkipped, status.Skipped).
		Msg("refresh completed")
	return status, nil
}

// fetchListing serves the page body from the page cache when present,
// otherwise loads it upstream and fills the cache. Cache trouble is
// logged and degrades to an upstream fetch.
func fetchListing(ctx context.Context, deps Deps, logger zerolog.Logger) ([]byte, string, error) {
	pageURL := deps.Fetcher.URL()

	if deps.Pages != nil {
		body, found, err := deps.Pages.Get(ctx, pageURL)
		switch {
		case err != nil:
			logger.Warn().
				Err(err).
				Str("event", "pagecache.get_failed").
				Str(log.FieldURL, pageURL).
				Msg("page cache lookup failed")
		case found:
			logger.Debug().
				Str("event", "pagecache.hit").
				Str(log.FieldURL, pageURL).
				Msg("listing served from page cache")
			return body, SourceCache, nil
		}
	}

	body, err := deps.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, "", err
	}

	if deps.Pages != nil {
		if err := deps.Pages.Set(ctx, pageURL, body); err != nil {
			logger.Warn().
				Err(err).
				Str("event", "pagecache.set_failed").
				Str(log.FieldURL, pageURL).
				Msg("page cache store failed")
		}
	}
	return body, SourceUpstream, nil
}

// loadNormalizer builds the byline normalizer from the configured alias
// files. A missing file is not fatal: that map acts as identity so the
// service keeps working before the alias data is deployed.
func loadNormalizer(cfg Config, logger zerolog.Logger) (normalize.Normalizer, error) {
	spellings, err := loadAliasFile(cfg.SpellingsPath, "spellings", logger)
	if err != nil {
		return normalize.Normalizer{}, err
	}
	pennames, err := loadAliasFile(cfg.PenNamesPath, "pennames", logger)
	if err != nil {
		return normalize.Normalizer{}, err
	}
	return normalize.Normalizer{Spellings: spellings, PenNames: pennames}, nil
}

func loadAliasFile(path, name string, logger zerolog.Logger) (*normalize.AliasMap, error) {
	if path == "" {
		return nil, nil
	}
	m, err := normalize.LoadAliasMap(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn().
			Str("event", "aliases.missing").
			Str("map", name).
			Str(log.FieldPath, path).
			Msg("alias file missing, names pass through unchanged")
		metrics.RecordAliasEntries(name, 0)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s aliases: %w", name, err)
	}
	metrics.RecordAliasEntries(name, m.Len())
	logger.Info().
		Str("event", "aliases.loaded").
		Str("map", name).
		Int("entries", m.Len()).
		Int("aliases", m.Aliases()).
		Msg("alias map loaded")
	return m, nil
}

func validate(cfg Config, deps Deps) error {
	if deps.Fetcher == nil {
		return fmt.Errorf("page fetcher is nil")
	}
	if deps.Store == nil {
		return fmt.Errorf("catalog store is nil")
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("data directory is empty")
	}

	listingURL := deps.Fetcher.URL()
	u, err := url.Parse(listingURL)
	if err != nil {
		return fmt.Errorf("invalid listing URL %q: %w", listingURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported listing URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("listing URL %q is missing host", listingURL)
	}
	return nil
}
