// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/asfstats/internal/api"
	"github.com/ManuGH/asfstats/internal/config"
	"github.com/ManuGH/asfstats/internal/jobs"
)

// scheduledRefreshTimeout bounds a refresh the daemon triggers itself,
// matching the budget the API grants a manual trigger.
const scheduledRefreshTimeout = 5 * time.Minute

// RefreshRunner triggers catalog refreshes for the scheduler and the
// alias file watcher.
type RefreshRunner interface {
	Run(ctx context.Context) (*jobs.Status, error)
}

// App owns the long-lived runtime: watchers, reload wiring and the
// refresh schedule. Server management is delegated to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	holder       *config.Holder
	server       *api.Server
	runner       RefreshRunner
	reloadSignal os.Signal
}

// NewApp creates the runtime orchestrator. holder, server and runner
// may be nil; the corresponding subsystems are then skipped.
func NewApp(logger zerolog.Logger, manager Manager, holder *config.Holder, server *api.Server, runner RefreshRunner) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		holder:       holder,
		server:       server,
		runner:       runner,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run starts the background subsystems and blocks until ctx is
// cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// The config watcher is best-effort: startup must not fail because
	// the file cannot be watched.
	if a.holder != nil {
		if err := a.holder.StartWatcher(ctx); err != nil {
			a.logger.Warn().
				Err(err).
				Str("event", "config.watcher_start_failed").
				Msg("failed to start config watcher")
		}
	}

	// Push every successful config swap into the running server.
	if a.holder != nil && a.server != nil {
		applyCh := make(chan config.Settings, 1)
		a.holder.RegisterListener(applyCh)

		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case cfg := <-applyCh:
					a.server.ApplySettings(cfg)
				}
			}
		})
	}

	// SIGHUP triggers a manual reload.
	if a.holder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str("event", "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")

					if err := a.holder.Reload(context.Background()); err != nil {
						a.logger.Warn().
							Err(err).
							Str("event", "config.reload_failed").
							Msg("config reload failed")
					}
				}
			}
		})
	}

	// Cron-driven refresh schedule.
	if a.runner != nil && a.holder != nil {
		if cfg := a.holder.Get(); cfg.ScheduleEnabled() {
			spec := cfg.RefreshSchedule
			g.Go(func() error { return a.runSchedule(ctx, spec) })
		}
	}

	// Alias file changes rebuild the catalog with the new mappings.
	if a.runner != nil && a.holder != nil {
		cfg := a.holder.Get()
		paths := []string{cfg.SpellingsPath, cfg.PenNamesPath}
		g.Go(func() error {
			a.watchAliasFiles(ctx, paths)
			return nil
		})
	}

	// Main server lifecycle.
	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

// runSchedule runs the cron scheduler until ctx is cancelled, then
// waits for an in-flight scheduled job within the shutdown budget.
func (a *App) runSchedule(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { a.triggerRefresh(ctx, "schedule") }); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}

	a.logger.Info().
		Str("event", "schedule.started").
		Str("schedule", spec).
		Msg("refresh schedule active")
	c.Start()

	<-ctx.Done()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(defaultShutdownTimeout):
		a.logger.Warn().
			Str("event", "schedule.stop_timeout").
			Msg("scheduled refresh still running at shutdown deadline")
	}
	return nil
}

// triggerRefresh runs one refresh on behalf of a daemon-owned trigger.
// A concurrent run is not an error; the trigger is simply skipped.
func (a *App) triggerRefresh(ctx context.Context, trigger string) {
	jobCtx, cancel := context.WithTimeout(ctx, scheduledRefreshTimeout)
	defer cancel()

	start := time.Now()
	st, err := a.runner.Run(jobCtx)
	switch {
	case errors.Is(err, jobs.ErrBusy):
		a.logger.Debug().
			Str("trigger", trigger).
			Msg("refresh already running, trigger skipped")
	case err != nil:
		a.logger.Error().
			Err(err).
			Str("event", "refresh.trigger_failed").
			Str("trigger", trigger).
			Dur("duration", time.Since(start)).
			Msg("triggered refresh failed")
	default:
		a.logger.Info().
			Str("event", "refresh.trigger_complete").
			Str("trigger", trigger).
			Int("stories", st.Stories).
			Int("issues", st.Issues).
			Int("authors", st.Authors).
			Str("source", st.Source).
			Dur("duration", time.Since(start)).
			Msg("triggered refresh completed")
	}
}

// WaitForShutdown returns a context cancelled by SIGINT or SIGTERM.
func WaitForShutdown() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}
