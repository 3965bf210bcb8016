// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/asfstats/internal/log"
)

// ParseString reads a string from environment variable or returns default value.
// It logs the source (environment or default) for observability.
func ParseString(key, defaultValue string) string {
	logger := log.WithComponent("config")
	if value, exists := os.LookupEnv(key); exists {
		lowerKey := strings.ToLower(key)
		switch {
		case strings.Contains(lowerKey, "token") || strings.Contains(lowerKey, "password"):
			// For sensitive vars, just log that it was set
			logger.Debug().
				Str("key", key).
				Str("source", "environment").
				Bool("sensitive", true).
				Msg("using environment variable")
		case value == "":
			logger.Debug().
				Str("key", key).
				Str("default", defaultValue).
				Str("source", "default").
				Msg("using default value (environment variable is empty)")
			return defaultValue
		default:
			logger.Debug().
				Str("key", key).
				Str("value", value).
				Str("source", "environment").
				Msg("using environment variable")
		}
		return value
	}
	logger.Debug().
		Str("key", key).
		Str("default", defaultValue).
		Str("source", "default").
		Msg("using default value")
	return defaultValue
}

// ParseInt reads an integer from environment variable or returns default value.
// It validates the input and falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().
			Str("key", key).
			Int("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Int("value", i).
		Str("source", "environment").
		Msg("using environment variable")
	return i
}

// ParseInt64 reads an int64 from environment variable or returns default value.
func ParseInt64(key string, defaultValue int64) int64 {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().
			Str("key", key).
			Int64("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Int64("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Int64("value", i).
		Str("source", "environment").
		Msg("using environment variable")
	return i
}

// ParseDuration reads a duration from environment variable in Go duration format (e.g. "5s").
// It falls back to default on parse errors or empty variables and logs the choice.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().
			Str("key", key).
			Dur("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Dur("default", defaultValue).
			Msg("invalid duration in environment variable, using default")
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Dur("value", d).
		Str("source", "environment").
		Msg("using environment variable")
	return d
}

// ParseBool reads a boolean from environment variable or returns default value.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().
			Str("key", key).
			Bool("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		logger.Debug().
			Str("key", key).
			Bool("value", true).
			Str("source", "environment").
			Msg("using environment variable")
		return true
	case "false", "0", "no":
		logger.Debug().
			Str("key", key).
			Bool("value", false).
			Str("source", "environment").
			Msg("using environment variable")
		return false
	default:
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Bool("default", defaultValue).
			Msg("invalid boolean in environment variable, using default")
		return defaultValue
	}
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().
			Str("key", key).
			Float64("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Float64("default", defaultValue).
			Msg("invalid float in environment variable, using default")
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Float64("value", f).
		Str("source", "environment").
		Msg("using environment variable")
	return f
}

// mergeEnvConfig applies ASF_* environment variables on top of the
// current configuration (highest precedence).
func (l *Loader) mergeEnvConfig(cfg *Settings) {
	cfg.LogLevel = ParseString("ASF_LOG_LEVEL", cfg.LogLevel)

	cfg.Listen = ParseString("ASF_LISTEN", cfg.Listen)
	cfg.MetricsListen = ParseString("ASF_METRICS_LISTEN", cfg.MetricsListen)

	cfg.DataDir = ParseString("ASF_DATA_DIR", cfg.DataDir)
	cfg.DBPath = ParseString("ASF_DB_PATH", cfg.DBPath)
	cfg.SpellingsPath = ParseString("ASF_SPELLINGS_FILE", cfg.SpellingsPath)
	cfg.PenNamesPath = ParseString("ASF_PENNAMES_FILE", cfg.PenNamesPath)

	cfg.ListingURL = ParseString("ASF_LISTING_URL", cfg.ListingURL)
	cfg.FetchTimeout = ParseDuration("ASF_FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.FetchMaxBytes = ParseInt64("ASF_FETCH_MAX_BYTES", cfg.FetchMaxBytes)
	cfg.FetchRate = ParseFloat("ASF_FETCH_RATE", cfg.FetchRate)
	cfg.FetchBurst = ParseInt("ASF_FETCH_BURST", cfg.FetchBurst)

	cfg.RefreshOnStart = ParseBool("ASF_REFRESH_ON_START", cfg.RefreshOnStart)
	cfg.RefreshSchedule = ParseString("ASF_REFRESH_SCHEDULE", cfg.RefreshSchedule)

	cfg.PageCacheBackend = ParseString("ASF_PAGECACHE_BACKEND", cfg.PageCacheBackend)
	cfg.PageCacheDir = ParseString("ASF_PAGECACHE_DIR", cfg.PageCacheDir)
	cfg.PageCacheTTL = ParseDuration("ASF_PAGECACHE_TTL", cfg.PageCacheTTL)

	cfg.CacheBackend = ParseString("ASF_CACHE_BACKEND", cfg.CacheBackend)
	cfg.CacheTTL = ParseDuration("ASF_CACHE_TTL", cfg.CacheTTL)
	cfg.RedisAddr = ParseString("ASF_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = ParseString("ASF_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = ParseInt("ASF_REDIS_DB", cfg.RedisDB)

	cfg.APIToken = ParseString("ASF_API_TOKEN", cfg.APIToken)
	cfg.RateLimit = ParseInt("ASF_RATE_LIMIT", cfg.RateLimit)
	cfg.RateWindow = ParseDuration("ASF_RATE_WINDOW", cfg.RateWindow)
	cfg.RequestTimeout = ParseDuration("ASF_REQUEST_TIMEOUT", cfg.RequestTimeout)

	cfg.OTelEnabled = ParseBool("ASF_OTEL_ENABLED", cfg.OTelEnabled)
	cfg.OTelEndpoint = ParseString("ASF_OTEL_ENDPOINT", cfg.OTelEndpoint)
	cfg.OTelProtocol = ParseString("ASF_OTEL_PROTOCOL", cfg.OTelProtocol)
	cfg.OTelSampleRatio = ParseFloat("ASF_OTEL_SAMPLE_RATIO", cfg.OTelSampleRatio)
	cfg.OTelInsecure = ParseBool("ASF_OTEL_INSECURE", cfg.OTelInsecure)
}
