// SPDX-License-Identifier: MIT

package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fileRequestsDeniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asfstats_file_requests_denied_total",
		Help: "Number of file requests denied for security reasons",
	}, []string{"reason"})

	fileRequestsAllowedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asfstats_file_requests_allowed_total",
		Help: "Number of file requests allowed",
	})

	fileCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asfstats_file_cache_hits_total",
		Help: "Number of file requests served as 304 Not Modified",
	})

	fileCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asfstats_file_cache_misses_total",
		Help: "Number of file requests resulting in 200 OK (content served)",
	})

	aggregateCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asfstats_aggregate_cache_hits_total",
		Help: "Number of aggregate API responses served from cache",
	})

	aggregateCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asfstats_aggregate_cache_misses_total",
		Help: "Number of aggregate API responses rebuilt from the store",
	})
)

func recordFileRequestAllowed() {
	fileRequestsAllowedTotal.Inc()
}

func recordFileRequestDenied(reason string) {
	fileRequestsDeniedTotal.WithLabelValues(reason).Inc()
}

func recordFileCacheHit() {
	fileCacheHitsTotal.Inc()
}

func recordFileCacheMiss() {
	fileCacheMissesTotal.Inc()
}

func recordAggregateCacheHit() {
	aggregateCacheHitsTotal.Inc()
}

func recordAggregateCacheMiss() {
	aggregateCacheMissesTotal.Inc()
}
