// Package watch reports changes in registry and storage directories so
// resolution caches can be invalidated.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher collects file system events and invokes callback once changes
// settle down for debounce period.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	notify   func(paths []string)
	log      *zap.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

func New(debounce time.Duration, notify func(paths []string), log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create watcher: %w", err)
	}
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		notify:   notify,
		log:      log.Named("watch"),
		pending:  make(map[string]struct{}),
	}, nil
}

// Add watches directory with all its subdirectories. Directories created
// later are picked up automatically.
func (w *Watcher) Add(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("unable to watch %s: %w", path, err)
		}
		w.log.Debug("Watching", zap.String("dir", path))
		return nil
	})
}

// Run processes events until ctx is done or watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.event(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				// changes were lost, report everything
				w.touch(".")
				continue
			}
			w.log.Warn("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) event(ev fsnotify.Event) {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return
	}
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		// temporary files of atomic writes, final rename is reported
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := w.Add(ev.Name); err != nil {
				w.log.Warn("Unable to watch new directory", zap.String("dir", ev.Name), zap.Error(err))
			}
		}
	}
	w.touch(ev.Name)
}

func (w *Watcher) touch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	clear(w.pending)
	w.timer = nil
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	slices.Sort(paths)
	w.log.Debug("Changes detected", zap.Strings("paths", paths))
	w.notify(paths)
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
	return w.fsw.Close()
}
