package gate

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Loader re-reads the configuration and compiles a fresh rule set.
type Loader func() (*Rules, error)

// Watch reloads the gate's rules whenever the config file changes, until
// ctx is cancelled. Editors replace files with rename-write sequences, so
// the parent directory is watched and events are debounced before reload.
func Watch(ctx context.Context, g *Gate, configPath string, load Loader, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(configPath)
	if err := w.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(configPath)

	logger.Info("gate: watching rules file", slog.String("path", target))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("gate: rules watcher stopped")
			return nil

		case <-reloadCh:
			rules, err := load()
			if err != nil {
				logger.Warn("gate: rules reload failed, keeping previous rules",
					slog.String("error", err.Error()))
				continue
			}
			g.Swap(rules)
			logger.Info("gate: rules reloaded")

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("gate: watcher error", slog.String("error", err.Error()))
		}
	}
}
