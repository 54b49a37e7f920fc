package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// defaultDebounce absorbs the burst of filesystem events editors emit
// when rewriting a file.
const defaultDebounce = 250 * time.Millisecond

// Watcher reloads the config file when it changes on disk and hands the
// validated result to a callback. Malformed or invalid rewrites are
// logged and skipped; the previous configuration stays in effect.
type Watcher struct {
	path     string
	log      *zap.Logger
	onChange func(*Config)
	debounce time.Duration
}

// NewWatcher creates a watcher for path. onChange runs on the watcher
// goroutine after every successful reload.
func NewWatcher(path string, log *zap.Logger, onChange func(*Config)) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("watcher requires a config path")
	}
	if onChange == nil {
		return nil, fmt.Errorf("watcher requires an onChange callback")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		path:     path,
		log:      log,
		onChange: onChange,
		debounce: defaultDebounce,
	}, nil
}

// Watch blocks until ctx is cancelled, reloading the config after each
// change. The parent directory is watched rather than the file itself
// because editors typically replace the file, which would break a direct
// watch.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.log.Info("watching config file", zap.String("path", w.path))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			pending = time.After(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("config watch error", zap.Error(err))

		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.log.Warn("config reload failed, keeping previous configuration",
			zap.String("path", w.path),
			zap.Error(err))
		return
	}
	w.log.Info("config reloaded", zap.String("path", w.path))
	w.onChange(cfg)
}
