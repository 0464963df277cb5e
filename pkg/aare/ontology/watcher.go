package ontology

import (
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches an ontology directory with fsnotify and calls
// Registry.Reload() on create/write/remove/rename events, debounced to
// absorb editor save bursts, grounded in C360Studio-semspec's
// sourceingester.DocWatcher debounce pattern. This realizes §4.4's
// "(optional)" reload() operation as an automatic, filesystem-driven
// trigger in addition to the manual Reload() call.
type Watcher struct {
	registry Registry
	fsw      *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration

	pendingMu sync.Mutex
	dirty     bool
}

const defaultDebounce = 250 * time.Millisecond

// NewWatcher creates a Watcher over dir's tree. Run reloads registry
// at most once per debounce interval (0 uses the default 250ms), on the
// first interval tick after a .json change was seen. A nil logger is
// replaced by a no-op logger.
func NewWatcher(registry Registry, dir string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := addRecursive(fsw, dir); err != nil {
		fsw.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{registry: registry, fsw: fsw, logger: logger, debounce: debounce}, nil
}

// Run blocks, watching for filesystem events and reloading the
// registry, until stop is closed.
func (w *Watcher) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
				continue
			}
			w.pendingMu.Lock()
			w.dirty = true
			w.pendingMu.Unlock()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("ontology watcher error", zap.Error(err))
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	dirty := w.dirty
	w.dirty = false
	w.pendingMu.Unlock()
	if !dirty {
		return
	}
	if err := w.registry.Reload(); err != nil {
		w.logger.Warn("ontology reload failed", zap.Error(err))
	} else {
		w.logger.Info("ontology registry reloaded")
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error { return w.fsw.Close() }

func addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}
