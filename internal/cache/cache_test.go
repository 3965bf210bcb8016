// SPDX-License-Identifier: MIT

package cache

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSet(t *testing.T) {
	cache := NewMemoryCache(0) // No cleanup for this test
	defer func() { _ = cache.Close() }()

	cache.Set("pivot:g1", []byte(`{"rows":[]}`), 5*time.Minute)

	val, ok := cache.Get("pivot:g1")
	require.True(t, ok, "expected to find pivot:g1")
	assert.Equal(t, []byte(`{"rows":[]}`), val)

	_, ok = cache.Get("nonexistent")
	assert.False(t, ok, "expected not to find nonexistent key")
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := NewMemoryCache(0)
	defer func() { _ = cache.Close() }()

	cache.Set("shortlived", []byte("value"), 50*time.Millisecond)

	val, ok := cache.Get("shortlived")
	require.True(t, ok)
	assert.Equal(t, []byte("value"), val)

	time.Sleep(100 * time.Millisecond)

	_, ok = cache.Get("shortlived")
	assert.False(t, ok, "expected key to be expired")
}

func TestMemoryCache_Delete(t *testing.T) {
	cache := NewMemoryCache(0)
	defer func() { _ = cache.Close() }()

	cache.Set("key1", []byte("value1"), 5*time.Minute)

	_, ok := cache.Get("key1")
	require.True(t, ok)

	cache.Delete("key1")

	_, ok = cache.Get("key1")
	assert.False(t, ok, "expected key1 to be deleted")
}

func TestMemoryCache_Clear(t *testing.T) {
	cache := NewMemoryCache(0)
	defer func() { _ = cache.Close() }()

	cache.Set("key1", []byte("value1"), 5*time.Minute)
	cache.Set("key2", []byte("value2"), 5*time.Minute)

	cache.Clear()

	assert.Equal(t, 0, cache.Stats().CurrentSize)
}

func TestMemoryCache_Stats(t *testing.T) {
	cache := NewMemoryCache(0)
	defer func() { _ = cache.Close() }()

	cache.Set("k1", []byte("v1"), 5*time.Minute)
	cache.Get("k1")      // hit
	cache.Get("k1")      // hit
	cache.Get("missing") // miss

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestMemoryCache_Janitor(t *testing.T) {
	cache := NewMemoryCache(20 * time.Millisecond)
	defer func() { _ = cache.Close() }()

	cache.Set("shortlived", []byte("value"), 10*time.Millisecond)
	time.Sleep(80 * time.Millisecond)

	stats := cache.Stats()
	assert.Equal(t, 0, stats.CurrentSize, "janitor should evict expired entries")
	assert.GreaterOrEqual(t, stats.Evictions, int64(1))
}

func TestMemoryCache_CopiesValue(t *testing.T) {
	cache := NewMemoryCache(0)
	defer func() { _ = cache.Close() }()

	buf := []byte("original")
	cache.Set("key", buf, 5*time.Minute)
	buf[0] = 'X'

	val, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, []byte("original"), val)
}

func TestNoOpCache(t *testing.T) {
	cache := NewNoOpCache()

	cache.Set("key", []byte("value"), 5*time.Minute)
	_, ok := cache.Get("key")
	assert.False(t, ok, "noop cache never stores")
	assert.NoError(t, cache.Close())
}

func TestNewFactory(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default is memory", Config{}, false},
		{"memory", Config{Backend: "memory"}, false},
		{"none", Config{Backend: "none"}, false},
		{"unknown", Config{Backend: "memcached"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg, zerolog.Nop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_ = c.Close()
		})
	}
}
