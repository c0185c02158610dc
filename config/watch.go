package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jonwraymond/rigorexec/logging"
)

// DefaultDebounce collapses the burst of events editors produce on save.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Debounce time.Duration
	Logger   logging.Logger
}

// Watch reloads path whenever it is written, created, renamed or removed
// and passes the result to fn. A reload that fails to parse or validate is
// passed as an error and the previous configuration stays in force. So is
// a file that has been renamed away or deleted: that is reported as
// ErrMissing rather than as the defaults Load would return.
//
// Watch blocks until ctx is done and then returns nil. The parent directory
// is watched so that atomic replace-by-rename saves are seen.
func Watch(ctx context.Context, path string, fn func(*Config, error), opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := logging.OrNop(opts.Logger)

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Debug("watching config", "path", abs)

	timer := time.NewTimer(opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			timer.Reset(opts.Debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)

		case <-timer.C:
			cfg, err := loadExisting(abs)
			if err != nil {
				logger.Warn("config reload failed", "path", abs, "error", err)
			} else {
				logger.Info("config reloaded", "path", abs, "rigor_level", cfg.RigorLevel)
			}
			fn(cfg, err)
		}
	}
}

// loadExisting is Load for a file that must exist.
func loadExisting(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, fmt.Errorf("stat config: %w", err)
	}
	return Load(path)
}
