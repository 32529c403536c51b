// Package watch reports batches of file changes under the scan roots.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for more changes before
// reporting a batch.
const DefaultDebounce = 500 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	Roots    []string
	Debounce time.Duration
	// SkipDir reports directory base names that are never watched.
	SkipDir func(name string) bool
	// Relevant reports whether a changed file should trigger a batch.
	Relevant func(path string) bool
}

// Watcher collects fsnotify events and hands debounced batches to a callback.
type Watcher struct {
	cfg     Config
	fsw     *fsnotify.Watcher
	logger  *slog.Logger
	pending map[string]fsnotify.Op
}

// New creates a Watcher with watches on every directory under cfg.Roots.
func New(cfg Config, logger *slog.Logger) (*Watcher, error) {
	if len(cfg.Roots) == 0 {
		return nil, errors.New("watch: no roots")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.SkipDir == nil {
		cfg.SkipDir = func(string) bool { return false }
	}
	if cfg.Relevant == nil {
		cfg.Relevant = func(string) bool { return true }
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		cfg:     cfg,
		fsw:     fsw,
		logger:  logger,
		pending: make(map[string]fsnotify.Op),
	}
	for _, root := range cfg.Roots {
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// addRecursive watches root and every directory below it. A file root is
// watched directly.
func (w *Watcher) addRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.fsw.Add(root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.cfg.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		w.logger.Debug("watching directory", "path", path)
		return nil
	})
}

// Run delivers batches of changed paths to onChange until ctx is done or
// onChange fails. Paths in a batch are sorted.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, changed []string) error) error {
	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(event) {
				timer.Reset(w.cfg.Debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-timer.C:
			if len(w.pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(w.pending))
			for p := range w.pending {
				batch = append(batch, p)
			}
			slices.Sort(batch)
			clear(w.pending)

			if err := onChange(ctx, batch); err != nil {
				return err
			}
		}
	}
}

// handle records one event and reports whether it belongs in a batch.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.cfg.SkipDir(filepath.Base(event.Name)) {
				if err := w.addRecursive(event.Name); err != nil {
					w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
				}
			}
			return false
		}
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	if !w.cfg.Relevant(event.Name) {
		return false
	}

	w.pending[event.Name] |= event.Op
	w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
	return true
}
