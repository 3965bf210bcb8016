// Package fetchcache caches the raw listing page between refreshes, so
// close-together refresh triggers do not hammer the hobbyist server the
// page lives on.
package fetchcache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "asfstats",
		Subsystem: "pagecache",
		Name:      "hits_total",
		Help:      "Listing page cache hits",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "asfstats",
		Subsystem: "pagecache",
		Name:      "misses_total",
		Help:      "Listing page cache misses",
	})
)

// Cache stores raw page bytes by URL with a TTL.
type Cache interface {
	// Get returns the cached body for url, or found=false when absent or
	// expired.
	Get(ctx context.Context, url string) (body []byte, found bool, err error)
	Set(ctx context.Context, url string, body []byte) error
	Close() error
}

// Config selects and tunes a cache backend.
type Config struct {
	Backend string        // "badger", "memory", "none" or "" (memory)
	Dir     string        // badger data directory
	TTL     time.Duration // entry lifetime, default 1h
}

// New creates a page cache for the configured backend.
func New(cfg Config) (Cache, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return newMemoryCache(ttl), nil
	case "badger":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("fetchcache: badger backend requires a directory")
		}
		return newBadgerCache(cfg.Dir, ttl)
	case "none":
		return noopCache{}, nil
	default:
		return nil, fmt.Errorf("fetchcache: unknown backend %q", cfg.Backend)
	}
}

// noopCache disables page caching; every refresh hits the upstream.
type noopCache struct{}

func (noopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (noopCache) Set(context.Context, string, []byte) error { return nil }

func (noopCache) Close() error { return nil }

type memoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	body    []byte
	expires time.Time
}

func newMemoryCache(ttl time.Duration) *memoryCache {
	return &memoryCache{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (c *memoryCache) Get(_ context.Context, url string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[url]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expires) {
		cacheMisses.Inc()
		return nil, false, nil
	}
	cacheHits.Inc()
	return e.body, true, nil
}

func (c *memoryCache) Set(_ context.Context, url string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(body))
	copy(buf, body)
	c.entries[url] = memoryEntry{body: buf, expires: time.Now().Add(c.ttl)}
	return nil
}

func (c *memoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
	return nil
}
