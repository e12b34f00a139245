package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/foliolens/foliolens/model"
	"github.com/fsnotify/fsnotify"
)

// registryDebounce is how long to wait after a change before reloading,
// so editors that write in multiple steps trigger a single reload.
const registryDebounce = 500 * time.Millisecond

// RegistryWatcher reloads the model registry when its config file changes.
type RegistryWatcher struct {
	path     string
	registry *model.Registry
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	pendingMu sync.Mutex
	pending   bool
}

// NewRegistryWatcher creates a watcher for the registry file at path.
// Reloaded configuration is merged into registry in place, so holders of
// the registry pick up changes without restarting.
func NewRegistryWatcher(path string, registry *model.Registry, logger *slog.Logger) (*RegistryWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &RegistryWatcher{
		path:     path,
		registry: registry,
		watcher:  fsw,
		logger:   logger,
	}, nil
}

// Start begins watching. The parent directory is watched rather than the
// file itself so atomic rename-into-place saves are seen.
func (w *RegistryWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Model registry watcher started", "path", w.path)
	return nil
}

// Stop stops the watcher.
func (w *RegistryWatcher) Stop() error {
	return w.watcher.Close()
}

// processEvents handles fsnotify events with debouncing.
func (w *RegistryWatcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(registryDebounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.pendingMu.Lock()
			w.pending = true
			w.pendingMu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Registry watcher error", "error", err)

		case <-ticker.C:
			w.pendingMu.Lock()
			dirty := w.pending
			w.pending = false
			w.pendingMu.Unlock()

			if dirty {
				w.reload()
			}
		}
	}
}

// reload re-reads the registry file and merges it into the live registry.
// A broken file leaves the previous configuration in place.
func (w *RegistryWatcher) reload() {
	loaded, err := model.LoadFromFile(w.path)
	if err != nil {
		w.logger.Warn("Model registry reload failed, keeping previous configuration",
			"path", w.path,
			"error", err)
		return
	}

	if err := loaded.Validate(); err != nil {
		w.logger.Warn("Model registry reload produced invalid configuration, keeping previous",
			"path", w.path,
			"error", err)
		return
	}

	w.registry.MergeFromConfig(loaded.ToConfig())
	w.logger.Info("Model registry reloaded", "path", w.path)
}
