// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/ManuGH/asfstats/internal/api"
	"github.com/ManuGH/asfstats/internal/asfpage"
	"github.com/ManuGH/asfstats/internal/cache"
	"github.com/ManuGH/asfstats/internal/catalog"
	"github.com/ManuGH/asfstats/internal/config"
	"github.com/ManuGH/asfstats/internal/daemon"
	"github.com/ManuGH/asfstats/internal/fetchcache"
	"github.com/ManuGH/asfstats/internal/health"
	"github.com/ManuGH/asfstats/internal/jobs"
	"github.com/ManuGH/asfstats/internal/log"
	"github.com/ManuGH/asfstats/internal/store"
	"github.com/ManuGH/asfstats/internal/telemetry"
	"github.com/ManuGH/asfstats/internal/version"
	"github.com/ManuGH/asfstats/internal/webui"
)

// initialRefreshTimeout bounds the optional refresh that runs before
// the servers come up, so a dead upstream cannot stall startup.
const initialRefreshTimeout = 5 * time.Minute

// resolveConfigPath picks the config file: an explicit -config flag
// wins, otherwise ${ASF_DATA_DIR}/config.yaml is used when it exists.
func resolveConfigPath(explicit string) (string, bool) {
	if p := strings.TrimSpace(explicit); p != "" {
		return p, true
	}
	dataDir := strings.TrimSpace(config.ParseString("ASF_DATA_DIR", config.Defaults().DataDir))
	if dataDir == "" {
		return "", false
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath, false
	}
	return "", false
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runHealthcheckCLI(os.Args[2:]))
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		os.Exit(0)
	}

	ctx := daemon.WaitForShutdown()

	effectiveConfigPath, explicit := resolveConfigPath(*configPath)

	// Precedence: ENV > file > defaults. Load also validates.
	loader := config.NewLoader(effectiveConfigPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		log.Configure(log.Config{Level: "info", Service: "asfstats", Version: version.Version})
		logger := log.WithComponent("daemon")
		logger.Error().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
		os.Exit(2)
	}

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: "asfstats",
		Version: version.Version,
	})
	logger := log.WithComponent("daemon")

	switch {
	case explicit:
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file").
			Str("path", effectiveConfigPath).
			Msg("loaded configuration from file")
	case effectiveConfigPath != "":
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file(auto)").
			Str("path", effectiveConfigPath).
			Msg("loaded configuration from file")
	default:
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Error().
			Err(err).
			Str("event", "startup.check_failed").
			Msg("startup checks failed, verify configuration and permissions")
		os.Exit(2)
	}

	logger.Info().
		Str("event", "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", cfg.Listen).
		Msg("starting asfstats")

	schedule := cfg.RefreshSchedule
	if !cfg.ScheduleEnabled() {
		schedule = "off"
	}
	logger.Info().Msgf("→ Listing: %s", cfg.ListingURL)
	logger.Info().Msgf("→ Data dir: %s", cfg.DataDir)
	logger.Info().Msgf("→ Schedule: %s", schedule)
	logger.Info().Msgf("→ Page cache: %s", cfg.PageCacheBackend)
	logger.Info().Msgf("→ Aggregate cache: %s", cfg.CacheBackend)
	if cfg.APIToken != "" {
		logger.Info().Msg("→ API token: configured")
	} else {
		logger.Warn().
			Msg("→ API token: NOT configured. Refresh and config endpoints deny all requests until ASF_API_TOKEN is set.")
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.OTelEnabled,
		ServiceName:    "asfstats",
		ServiceVersion: version.Version,
		Protocol:       cfg.OTelProtocol,
		Endpoint:       cfg.OTelEndpoint,
		SampleRatio:    cfg.OTelSampleRatio,
		Insecure:       cfg.OTelInsecure,
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "telemetry.init_failed").
			Msg("failed to initialize telemetry")
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "store.open_failed").
			Str("path", cfg.DBPath).
			Msg("failed to open catalog store")
	}

	pages, err := fetchcache.New(fetchcache.Config{
		Backend: cfg.PageCacheBackend,
		Dir:     cfg.PageCacheDir,
		TTL:     cfg.PageCacheTTL,
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "pagecache.init_failed").
			Msg("failed to open page cache")
	}

	aggregates, err := cache.New(cache.Config{
		Backend:  cfg.CacheBackend,
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, log.WithComponent("cache"))
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "cache.init_failed").
			Msg("failed to open aggregate cache")
	}

	pageOpts := asfpage.Options{
		URL:        cfg.ListingURL,
		Timeout:    cfg.FetchTimeout,
		MaxBytes:   cfg.FetchMaxBytes,
		RatePerSec: rate.Limit(cfg.FetchRate),
		Burst:      cfg.FetchBurst,
	}
	if cfg.OTelEnabled {
		pageOpts.Transport = otelhttp.NewTransport(http.DefaultTransport)
	}
	page := asfpage.New(pageOpts)

	runner := jobs.NewRunner(
		jobs.Config{
			DataDir:       cfg.DataDir,
			SpellingsPath: cfg.SpellingsPath,
			PenNamesPath:  cfg.PenNamesPath,
		},
		jobs.Deps{
			Fetcher: page,
			Pages:   pages,
			Store:   st,
			Cache:   aggregates,
		},
	)

	healthMgr := health.NewManager(version.Version)
	healthMgr.RegisterChecker(health.NewDataDirChecker(cfg.DataDir))
	healthMgr.RegisterChecker(health.NewFileChecker("artifact", filepath.Join(cfg.DataDir, catalog.ArtifactName)))
	healthMgr.RegisterChecker(health.NewStoreChecker(st))
	healthMgr.RegisterChecker(health.NewPageChecker(page))
	healthMgr.RegisterChecker(health.NewLastRunChecker(func() (time.Time, string) {
		s := runner.Status()
		return s.LastRun, s.Error
	}))

	ui, err := webui.New(webui.Options{Store: st, Version: version.Version})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "webui.init_failed").
			Msg("failed to build web UI")
	}

	holder := config.NewHolder(cfg, config.NewLoader(effectiveConfigPath, version.Version), effectiveConfigPath)

	srv := api.New(api.Options{
		Config:   cfg,
		Store:    st,
		Runner:   runner,
		Cache:    aggregates,
		Health:   healthMgr,
		UI:       ui.Routes(),
		Reloader: holder,
	})

	mgr, err := daemon.NewManager(cfg, daemon.Deps{
		Logger:         logger,
		APIHandler:     srv.Handler(),
		MetricsHandler: promhttp.Handler(),
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "manager.creation_failed").
			Msg("failed to create daemon manager")
	}

	// Hooks run in reverse order: telemetry flushes first, the store
	// closes last.
	mgr.RegisterShutdownHook("store", func(context.Context) error { return st.Close() })
	mgr.RegisterShutdownHook("page-cache", func(context.Context) error { return pages.Close() })
	mgr.RegisterShutdownHook("aggregate-cache", func(context.Context) error { return aggregates.Close() })
	mgr.RegisterShutdownHook("config-watcher", func(context.Context) error { holder.Stop(); return nil })
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)

	if cfg.RefreshOnStart {
		logger.Info().Str("event", "refresh.initial").Msg("performing initial catalog refresh")
		refreshCtx, cancel := context.WithTimeout(ctx, initialRefreshTimeout)
		if status, err := runner.Run(refreshCtx); err != nil {
			logger.Error().Err(err).Msg("initial catalog refresh failed")
			logger.Warn().Msg("→ Catalog stays empty until a refresh succeeds (POST /api/refresh)")
		} else {
			logger.Info().
				Int("stories", status.Stories).
				Int("issues", status.Issues).
				Int("authors", status.Authors).
				Str("source", status.Source).
				Msg("initial catalog refresh completed")
		}
		cancel()
	} else {
		logger.Info().Msg("initial refresh disabled (ASF_REFRESH_ON_START=false)")
	}

	app := daemon.NewApp(logger, mgr, holder, srv, runner)
	if err := app.Run(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.failed").
			Msg("daemon failed")
	}

	logger.Info().Msg("server exiting")
}
