package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/stencilworks/stencil/internal/config"
	"github.com/stencilworks/stencil/internal/logger"
)

var log = logger.ForComponent("watch")

// Recomposer is invoked after a debounced batch of template changes. The
// changed paths are informational; a recomposition always rebuilds the whole
// target from the template roots.
type Recomposer func(changed []string)

// Watcher observes the template and modules trees and triggers a
// recomposition when their contents change. It exists for template authors:
// edit the template, see the scaffolded target refresh.
type Watcher struct {
	config    config.WatchConfig
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	recompose Recomposer
	mu        sync.Mutex
	flushMu   sync.Mutex
	running   bool
	cancel    context.CancelFunc
}

func New(cfg config.WatchConfig, recompose Recomposer) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		config:    cfg,
		fsWatcher: fsWatcher,
		recompose: recompose,
	}
	w.debouncer = NewDebouncer(cfg.DebounceWindow, cfg.MaxBatchSize, w.onFlush)

	return w, nil
}

// AddRoot watches a directory tree recursively.
func (w *Watcher) AddRoot(path string) error {
	log.Info("watching template root", "path", path)

	if err := w.fsWatcher.Add(path); err != nil {
		return err
	}
	return w.walkAndAdd(path)
}

func (w *Watcher) walkAndAdd(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		log.Debug("failed to read directory", "path", path, "error", err)
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		fullPath := filepath.Join(path, entry.Name())
		if w.shouldIgnore(fullPath) {
			continue
		}

		if err := w.fsWatcher.Add(fullPath); err != nil {
			log.Debug("failed to watch directory", "path", fullPath, "error", err)
			continue
		}
		w.walkAndAdd(fullPath)
	}

	return nil
}

func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	go w.handleEvents(ctx)
	return nil
}

func (w *Watcher) handleEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if w.shouldIgnore(event.Name) {
				continue
			}

			log.Debug("template event", "path", event.Name, "op", event.Op.String())

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.fsWatcher.Add(event.Name); err == nil {
						w.walkAndAdd(event.Name)
					}
					continue
				}
			}

			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.debouncer.Add(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warn("watcher error", "error", err)
		}
	}
}

// onFlush serializes recompositions. Timer and max-batch flushes arrive on
// different goroutines, and the target tree must only ever have one run
// mutating it.
func (w *Watcher) onFlush(paths []string) {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	log.Info("template changed, recomposing", "files", len(paths))
	if w.recompose != nil {
		w.recompose(paths)
	}
}

func (w *Watcher) shouldIgnore(path string) bool {
	basename := filepath.Base(path)
	if strings.HasPrefix(basename, ".") && basename != "." {
		return true
	}

	for _, pattern := range w.config.IgnorePatterns {
		if match, _ := doublestar.Match(pattern, filepath.ToSlash(path)); match {
			return true
		}
	}

	return false
}

func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.cancel()
	w.mu.Unlock()

	w.debouncer.Stop()
	return w.fsWatcher.Close()
}
