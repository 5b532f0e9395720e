package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"go.viam.com/scenemotion/logging"
)

const reloadDelay = 100 * time.Millisecond

// Watcher re-reads a config file whenever it changes on disk.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	logger   logging.Logger
	onChange func(*Config)
	debounce func(func())
}

// NewWatcher watches the config file at path. The directory is watched so that editors which
// replace the file are noticed too.
func NewWatcher(path string, logger logging.Logger, onChange func(*Config)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		//nolint:errcheck
		fsw.Close()
		return nil, err
	}
	return &Watcher{
		path:     abs,
		fsw:      fsw,
		logger:   logger,
		onChange: onChange,
		debounce: debounce.New(reloadDelay),
	}, nil
}

// Run delivers reloads until ctx is done. Invalid edits are logged and skipped.
func (w *Watcher) Run(ctx context.Context) {
	defer func() {
		//nolint:errcheck
		w.fsw.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("config watcher error", "error", err)
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			w.debounce(func() { w.reload(ctx) })
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	cfg, err := Read(w.path, w.logger)
	if err != nil {
		w.logger.Warnw("ignoring invalid config change", "path", w.path, "error", err)
		return
	}
	w.logger.Infow("config changed", "path", w.path)
	w.onChange(cfg)
}
