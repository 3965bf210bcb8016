// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/asfstats/internal/config"
	"github.com/ManuGH/asfstats/internal/log"
)

// PerformStartupChecks validates the environment and dependencies before starting the server.
func PerformStartupChecks(ctx context.Context, cfg config.Settings) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("Running pre-flight startup checks...")

	// 1. Data Directory Permissions
	if err := checkDataDir(logger, cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}

	// 2. Targeted Validations
	if err := checkTargetedValidations(logger, cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger.Info().Msg("✅ All startup checks passed")
	return nil
}

func checkDataDir(logger zerolog.Logger, path string) error {
	// Check if directory exists
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	// Check write permissions by creating a temp file
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Msg("✓ Data directory is writable")
	return nil
}

// checkTargetedValidations performs runtime-critical validations
func checkTargetedValidations(logger zerolog.Logger, cfg config.Settings) error {
	// a. Listen Addresses (Parseable)
	if err := checkListenAddr(cfg.Listen); err != nil {
		return fmt.Errorf("invalid API listen address %q: %w", cfg.Listen, err)
	}
	logger.Info().Str("addr", cfg.Listen).Msg("✓ API listen address is valid")

	if cfg.MetricsListen != "" {
		if err := checkListenAddr(cfg.MetricsListen); err != nil {
			return fmt.Errorf("invalid metrics listen address %q: %w", cfg.MetricsListen, err)
		}
		logger.Info().Str("addr", cfg.MetricsListen).Msg("✓ Metrics listen address is valid")
	}

	// b. Listing URL (Syntax + Scheme)
	if cfg.ListingURL == "" {
		logger.Warn().Msg("listing URL not configured; refresh will fail until one is set")
	} else {
		u, err := url.Parse(cfg.ListingURL)
		if err != nil {
			return fmt.Errorf("invalid listing URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("listing URL scheme must be http or https, got: %s", u.Scheme)
		}
		logger.Info().Str("url", cfg.ListingURL).Msg("✓ Listing URL is valid")
	}

	// c. Alias files (optional: missing means names pass through unchanged)
	checkAliasFile(logger, "spellings", cfg.SpellingsPath)
	checkAliasFile(logger, "pen names", cfg.PenNamesPath)

	// d. Page cache directory (badger backend needs a writable home)
	if cfg.PageCacheBackend == "badger" {
		if cfg.PageCacheDir == "" {
			return fmt.Errorf("page cache backend is badger but no cache directory is configured")
		}
		if err := os.MkdirAll(cfg.PageCacheDir, 0750); err != nil {
			return fmt.Errorf("failed to ensure page cache directory (%s): %w", cfg.PageCacheDir, err)
		}
		logger.Info().Str("path", cfg.PageCacheDir).Msg("✓ Page cache directory ready")
	}

	// e. Durability warning when the data dir lives under temp
	tempDir := filepath.Clean(os.TempDir())
	dataDir := filepath.Clean(cfg.DataDir)
	if tempDir != "." && (dataDir == tempDir || strings.HasPrefix(dataDir, tempDir+string(filepath.Separator))) {
		logger.Warn().
			Str("data_dir", cfg.DataDir).
			Msg("data directory is under temp; the story database and cached pages may be lost on reboot")
	}

	return nil
}

func checkListenAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

func checkAliasFile(logger zerolog.Logger, kind, path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			logger.Warn().
				Str("path", path).
				Msgf("%s file not found; author names pass through unchanged", kind)
			return
		}
		logger.Warn().Err(err).Str("path", path).Msgf("cannot read %s file", kind)
		return
	}
	logger.Info().Str("path", path).Msgf("✓ %s file found", kind)
}
