// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML config file shape. Durations are strings in Go
// duration format ("30s"). Absent fields keep the current value, so
// pointer types mark optional booleans and numbers.
type FileConfig struct {
	Listen        string `yaml:"listen,omitempty"`
	MetricsListen string `yaml:"metricsListen,omitempty"`
	LogLevel      string `yaml:"logLevel,omitempty"`
	DataDir       string `yaml:"dataDir,omitempty"`

	Listing   ListingConfig   `yaml:"listing,omitempty"`
	Aliases   AliasConfig     `yaml:"aliases,omitempty"`
	Refresh   RefreshConfig   `yaml:"refresh,omitempty"`
	PageCache PageCacheConfig `yaml:"pageCache,omitempty"`
	Cache     CacheConfig     `yaml:"cache,omitempty"`
	Store     StoreConfig     `yaml:"store,omitempty"`
	API       APIConfig       `yaml:"api,omitempty"`
	OTel      OTelConfig      `yaml:"otel,omitempty"`
}

type ListingConfig struct {
	URL      string  `yaml:"url,omitempty"`
	Timeout  string  `yaml:"timeout,omitempty"` // e.g. "30s"
	MaxBytes int64   `yaml:"maxBytes,omitempty"`
	Rate     float64 `yaml:"rate,omitempty"`
	Burst    int     `yaml:"burst,omitempty"`
}

type AliasConfig struct {
	Spellings string `yaml:"spellings,omitempty"`
	PenNames  string `yaml:"penNames,omitempty"`
}

type RefreshConfig struct {
	OnStart  *bool  `yaml:"onStart,omitempty"`
	Schedule string `yaml:"schedule,omitempty"` // cron expression or "off"
}

type PageCacheConfig struct {
	Backend string `yaml:"backend,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
	TTL     string `yaml:"ttl,omitempty"`
}

type CacheConfig struct {
	Backend string      `yaml:"backend,omitempty"`
	TTL     string      `yaml:"ttl,omitempty"`
	Redis   RedisConfig `yaml:"redis,omitempty"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       *int   `yaml:"db,omitempty"`
}

type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

type APIConfig struct {
	Token          string `yaml:"token,omitempty"`
	RateLimit      int    `yaml:"rateLimit,omitempty"`
	RateWindow     string `yaml:"rateWindow,omitempty"`
	RequestTimeout string `yaml:"requestTimeout,omitempty"`
}

type OTelConfig struct {
	Enabled     *bool    `yaml:"enabled,omitempty"`
	Endpoint    string   `yaml:"endpoint,omitempty"`
	Protocol    string   `yaml:"protocol,omitempty"`
	SampleRatio *float64 `yaml:"sampleRatio,omitempty"`
	Insecure    *bool    `yaml:"insecure,omitempty"`
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

// mergeFileConfig applies set file fields on top of the defaults.
// Malformed durations in the file are errors, not fallbacks: a config
// file is deliberate in a way an environment variable may not be.
func (l *Loader) mergeFileConfig(cfg *Settings, fc *FileConfig) error {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, v, field string) error {
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		*dst = d
		return nil
	}

	setString(&cfg.Listen, fc.Listen)
	setString(&cfg.MetricsListen, fc.MetricsListen)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.DataDir, fc.DataDir)

	setString(&cfg.ListingURL, fc.Listing.URL)
	if err := setDuration(&cfg.FetchTimeout, fc.Listing.Timeout, "listing.timeout"); err != nil {
		return err
	}
	if fc.Listing.MaxBytes > 0 {
		cfg.FetchMaxBytes = fc.Listing.MaxBytes
	}
	if fc.Listing.Rate > 0 {
		cfg.FetchRate = fc.Listing.Rate
	}
	if fc.Listing.Burst > 0 {
		cfg.FetchBurst = fc.Listing.Burst
	}

	setString(&cfg.SpellingsPath, fc.Aliases.Spellings)
	setString(&cfg.PenNamesPath, fc.Aliases.PenNames)

	if fc.Refresh.OnStart != nil {
		cfg.RefreshOnStart = *fc.Refresh.OnStart
	}
	setString(&cfg.RefreshSchedule, fc.Refresh.Schedule)

	setString(&cfg.PageCacheBackend, fc.PageCache.Backend)
	setString(&cfg.PageCacheDir, fc.PageCache.Dir)
	if err := setDuration(&cfg.PageCacheTTL, fc.PageCache.TTL, "pageCache.ttl"); err != nil {
		return err
	}

	setString(&cfg.CacheBackend, fc.Cache.Backend)
	if err := setDuration(&cfg.CacheTTL, fc.Cache.TTL, "cache.ttl"); err != nil {
		return err
	}
	setString(&cfg.RedisAddr, fc.Cache.Redis.Addr)
	setString(&cfg.RedisPassword, fc.Cache.Redis.Password)
	if fc.Cache.Redis.DB != nil {
		cfg.RedisDB = *fc.Cache.Redis.DB
	}

	setString(&cfg.DBPath, fc.Store.Path)

	setString(&cfg.APIToken, fc.API.Token)
	if fc.API.RateLimit > 0 {
		cfg.RateLimit = fc.API.RateLimit
	}
	if err := setDuration(&cfg.RateWindow, fc.API.RateWindow, "api.rateWindow"); err != nil {
		return err
	}
	if err := setDuration(&cfg.RequestTimeout, fc.API.RequestTimeout, "api.requestTimeout"); err != nil {
		return err
	}

	if fc.OTel.Enabled != nil {
		cfg.OTelEnabled = *fc.OTel.Enabled
	}
	setString(&cfg.OTelEndpoint, fc.OTel.Endpoint)
	setString(&cfg.OTelProtocol, fc.OTel.Protocol)
	if fc.OTel.SampleRatio != nil {
		cfg.OTelSampleRatio = *fc.OTel.SampleRatio
	}
	if fc.OTel.Insecure != nil {
		cfg.OTelInsecure = *fc.OTel.Insecure
	}

	return nil
}
