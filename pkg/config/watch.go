package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 200 * time.Millisecond

// WatchOptions tunes Watch. The zero value is usable.
type WatchOptions struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watch reloads filename whenever it changes on disk and passes every
// successfully loaded and validated configuration to onChange. newTarget
// returns the value to decode into (typically a fresh default config).
// A file that fails to load is logged and skipped. Watch blocks until ctx
// is cancelled.
//
// The parent directory is watched rather than the file itself so that
// editors replacing the file by rename are still observed.
func Watch[T any](ctx context.Context, filename string, newTarget func() *T, onChange func(*T), opts WatchOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	abs, err := filepath.Abs(filename)
	if err != nil {
		return fmt.Errorf("config: watch %s: %w", filename, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch %s: %w", filename, err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config: watch %s: %w", filename, err)
	}
	logger.Info("watcher: started", slog.String("file", abs))

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			fire = nil
			target := newTarget()
			if err := Load(abs, target); err != nil {
				logger.Warn("watcher: config reload failed, keeping current config",
					slog.String("file", abs),
					slog.String("error", err.Error()))
				continue
			}
			logger.Info("watcher: config reloaded", slog.String("file", abs))
			onChange(target)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
