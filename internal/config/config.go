// SPDX-License-Identifier: MIT

// Package config loads and validates the service configuration with
// strict precedence: environment variables over config file over
// defaults.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ManuGH/asfstats/internal/validate"
)

// DefaultListingURL is the page the catalog is built from.
const DefaultListingURL = "https://brucewatkins.org/sciencefiction/data/origpage.html"

// ScheduleOff disables the refresh schedule when used as the schedule
// value ("off" in the file or ASF_REFRESH_SCHEDULE).
const ScheduleOff = "off"

// Settings is the resolved runtime configuration.
type Settings struct {
	Version  string
	LogLevel string

	Listen        string
	MetricsListen string

	DataDir       string
	DBPath        string
	SpellingsPath string
	PenNamesPath  string

	ListingURL    string
	FetchTimeout  time.Duration
	FetchMaxBytes int64
	FetchRate     float64
	FetchBurst    int

	RefreshOnStart  bool
	RefreshSchedule string

	PageCacheBackend string
	PageCacheDir     string
	PageCacheTTL     time.Duration

	CacheBackend  string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	APIToken       string
	RateLimit      int
	RateWindow     time.Duration
	RequestTimeout time.Duration

	OTelEnabled     bool
	OTelEndpoint    string
	OTelProtocol    string
	OTelSampleRatio float64
	OTelInsecure    bool
}

// Defaults returns the built-in configuration. Paths derived from
// DataDir (DBPath, PageCacheDir, alias files) stay empty here and are
// resolved by Load once DataDir is final.
func Defaults() Settings {
	return Settings{
		LogLevel: "info",

		Listen:        ":8080",
		MetricsListen: ":9090",

		DataDir: "./data",

		ListingURL:    DefaultListingURL,
		FetchTimeout:  30 * time.Second,
		FetchMaxBytes: 8 << 20,
		FetchRate:     1,
		FetchBurst:    2,

		RefreshOnStart:  true,
		RefreshSchedule: "0 4 * * *",

		PageCacheBackend: "badger",
		PageCacheTTL:     24 * time.Hour,

		CacheBackend: "memory",
		CacheTTL:     15 * time.Minute,
		RedisAddr:    "localhost:6379",

		RateLimit:      100,
		RateWindow:     time.Minute,
		RequestTimeout: 30 * time.Second,

		OTelEndpoint:    "localhost:4317",
		OTelProtocol:    "grpc",
		OTelSampleRatio: 1,
		OTelInsecure:    true,
	}
}

// ScheduleEnabled reports whether a cron refresh schedule is configured.
func (s Settings) ScheduleEnabled() bool {
	return s.RefreshSchedule != "" && s.RefreshSchedule != ScheduleOff
}

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order is parse file (strict), apply env, resolve derived paths,
// validate.
func (l *Loader) Load() (Settings, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := l.mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	// DataDir must be absolute before derived paths are anchored to it.
	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "asfstats.db")
	}
	if cfg.PageCacheDir == "" {
		cfg.PageCacheDir = filepath.Join(cfg.DataDir, "pagecache")
	}
	if cfg.SpellingsPath == "" {
		cfg.SpellingsPath = filepath.Join(cfg.DataDir, "Spelling.csv")
	}
	if cfg.PenNamesPath == "" {
		cfg.PenNamesPath = filepath.Join(cfg.DataDir, "PenNames.csv")
	}

	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates a Settings using the centralized validation package
func Validate(cfg Settings) error {
	v := validate.New()

	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError("LogLevel", err.Error(), cfg.LogLevel)
	}

	v.ListenAddr("Listen", cfg.Listen)
	v.ListenAddr("MetricsListen", cfg.MetricsListen)

	v.WritableDirectory("DataDir", cfg.DataDir, false)
	v.NotEmpty("DBPath", cfg.DBPath)

	v.URL("ListingURL", cfg.ListingURL, []string{"http", "https"})
	v.Positive("FetchTimeout", int(cfg.FetchTimeout/time.Millisecond))
	if cfg.FetchMaxBytes <= 0 {
		v.AddError("FetchMaxBytes", "must be positive", cfg.FetchMaxBytes)
	}
	if cfg.FetchRate <= 0 {
		v.AddError("FetchRate", "must be positive", cfg.FetchRate)
	}
	v.Positive("FetchBurst", cfg.FetchBurst)

	if cfg.ScheduleEnabled() {
		if _, err := cron.ParseStandard(cfg.RefreshSchedule); err != nil {
			v.AddError("RefreshSchedule", fmt.Sprintf("invalid cron expression: %v", err), cfg.RefreshSchedule)
		}
	}

	v.OneOf("PageCacheBackend", cfg.PageCacheBackend, []string{"memory", "badger", "none"})
	if cfg.PageCacheBackend == "badger" {
		v.NotEmpty("PageCacheDir", cfg.PageCacheDir)
	}
	if cfg.PageCacheTTL <= 0 {
		v.AddError("PageCacheTTL", "must be positive", cfg.PageCacheTTL)
	}

	v.OneOf("CacheBackend", cfg.CacheBackend, []string{"memory", "redis", "none"})
	if cfg.CacheBackend == "redis" {
		v.NotEmpty("RedisAddr", cfg.RedisAddr)
		v.NonNegative("RedisDB", cfg.RedisDB)
	}
	if cfg.CacheTTL <= 0 {
		v.AddError("CacheTTL", "must be positive", cfg.CacheTTL)
	}

	v.Positive("RateLimit", cfg.RateLimit)
	if cfg.RateWindow <= 0 {
		v.AddError("RateWindow", "must be positive", cfg.RateWindow)
	}
	if cfg.RequestTimeout <= 0 {
		v.AddError("RequestTimeout", "must be positive", cfg.RequestTimeout)
	}

	if cfg.OTelEnabled {
		v.NotEmpty("OTelEndpoint", cfg.OTelEndpoint)
		v.OneOf("OTelProtocol", cfg.OTelProtocol, []string{"grpc", "http"})
		if cfg.OTelSampleRatio < 0 || cfg.OTelSampleRatio > 1 {
			v.AddError("OTelSampleRatio", "must be between 0 and 1", cfg.OTelSampleRatio)
		}
	}

	if !v.IsValid() {
		return v.Err()
	}
	return nil
}
