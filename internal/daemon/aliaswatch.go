// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchAliasFiles triggers a refresh when a spelling or pen-name file
// changes, so the catalog is rebuilt with the new mappings (the listing
// body usually comes straight from the page cache). Best-effort: if
// watching fails the daemon keeps running without it.
func (a *App) watchAliasFiles(ctx context.Context, paths []string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		a.logger.Warn().
			Err(err).
			Str("event", "alias.watcher_unavailable").
			Msg("alias file watcher unavailable")
		return
	}
	defer func() { _ = watcher.Close() }()

	// Watch the parent directories: editors and atomic writers replace
	// the file, which silently drops a direct file watch.
	watched := make(map[string]struct{})
	dirs := make(map[string]struct{})
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		watched[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			a.logger.Warn().
				Err(err).
				Str("path", dir).
				Str("event", "alias.watch_failed").
				Msg("cannot watch alias file directory")
		}
	}
	if len(watched) == 0 {
		return
	}

	a.logger.Info().
		Str("event", "alias.watcher_started").
		Int("files", len(watched)).
		Msg("watching alias files for changes")

	var debounceTimer *time.Timer
	const debounce = 500 * time.Millisecond
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := watched[abs]; !ok {
				continue
			}

			a.logger.Info().
				Str("event", "alias.file_changed").
				Str("path", abs).
				Str("op", event.Op.String()).
				Msg("alias file changed, scheduling refresh")

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounce, func() {
				a.triggerRefresh(ctx, "alias-change")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			a.logger.Error().
				Err(err).
				Str("event", "alias.watcher_error").
				Msg("alias watcher error")
		}
	}
}
