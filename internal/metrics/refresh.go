// SPDX-License-Identifier: MIT

// Package metrics holds the Prometheus collectors for the refresh
// pipeline and the catalog it produces.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asfstats_refresh_total",
		Help: "Refresh runs by outcome",
	}, []string{"outcome"}) // outcome=success|failure|busy

	refreshFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asfstats_refresh_failures_total",
		Help: "Refresh failures by stage",
	}, []string{"stage"}) // stage=config|fetch|parse|aliases|store|artifact

	refreshDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "asfstats_refresh_duration_seconds",
		Help:    "Time spent on a full refresh cycle",
		Buckets: prometheus.DefBuckets,
	})

	listingFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asfstats_listing_fetch_total",
		Help: "Listing page loads by source",
	}, []string{"source"}) // source=upstream|cache

	storiesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "asfstats_stories_total",
		Help: "Stories in the catalog after the last refresh",
	})

	issuesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "asfstats_issues_total",
		Help: "Issues seen in the listing during the last refresh",
	})

	authorsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "asfstats_authors_total",
		Help: "Distinct authors in the catalog after the last refresh",
	})

	skippedLines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "asfstats_listing_skipped_lines",
		Help: "Listing lines that matched no known shape in the last refresh",
	})

	aliasEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "asfstats_alias_entries",
		Help: "Loaded alias map entries",
	}, []string{"map"}) // map=spellings|pennames

	lastRefreshTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "asfstats_last_refresh_timestamp_seconds",
		Help: "Unix time of the last successful refresh",
	})
)

func RecordRefreshOutcome(outcome string) { refreshTotal.WithLabelValues(outcome).Inc() }
func IncRefreshFailure(stage string)      { refreshFailuresTotal.WithLabelValues(stage).Inc() }
func IncListingFetch(source string)       { listingFetchTotal.WithLabelValues(source).Inc() }

func ObserveRefreshDuration(d time.Duration) {
	refreshDurationSeconds.Observe(d.Seconds())
}

func RecordCatalogCounts(stories, issues, authors, skipped int) {
	storiesTotal.Set(float64(stories))
	issuesTotal.Set(float64(issues))
	authorsTotal.Set(float64(authors))
	skippedLines.Set(float64(skipped))
}

func RecordAliasEntries(name string, n int) {
	aliasEntries.WithLabelValues(name).Set(float64(n))
}

func RecordLastRefresh(t time.Time) {
	lastRefreshTimestamp.Set(float64(t.Unix()))
}
