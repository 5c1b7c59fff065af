package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"nsntrace/internal/errors"
	"nsntrace/internal/trace"
)

// DefaultDebounce is how long a Watcher waits after the last change before
// reloading. Editors often write a file in several steps.
const DefaultDebounce = 250 * time.Millisecond

// ReloadCallback is called after every reload attempt with the decoded file
// (nil if it could not be loaded) and the reload error.
type ReloadCallback func(*File, error)

// Watcher re-applies a configuration file to a registry whenever the file
// changes on disk.
type Watcher struct {
	path     string
	reg      *trace.Registry
	log      *zap.SugaredLogger
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	stopped   bool
	callbacks []ReloadCallback
}

// NewWatcher watches path. The containing directory is watched rather than
// the file, so replacing the file with a rename is noticed too.
func NewWatcher(path string, reg *trace.Registry, log *zap.SugaredLogger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Invalidf("configuration path %s: %v", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, errors.Wrapf(err, "watch %s", filepath.Dir(abs))
	}
	return &Watcher{
		path:     abs,
		reg:      reg,
		log:      log,
		watcher:  fw,
		debounce: DefaultDebounce,
	}, nil
}

// SetDebounce changes the debounce period. Call before Run.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// OnReload registers a callback run after each reload.
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Reload loads the file and applies it to the registry now.
func (w *Watcher) Reload() (*File, error) {
	f, err := LoadFile(w.path)
	if err == nil {
		err = f.Apply(w.reg)
	}
	if err != nil {
		w.log.Warnw("trace configuration reload failed", "path", w.path, "error", err)
	} else {
		w.log.Infow("trace configuration reloaded", "path", w.path)
	}

	w.mu.Lock()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()
	for _, cb := range callbacks {
		cb(f, err)
	}
	return f, err
}

// Run handles file events until ctx is cancelled, then releases the
// underlying watcher. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.log.Debugw("trace configuration changed", "path", w.path, "op", event.Op.String())
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("trace configuration watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		stopped := w.stopped
		w.mu.Unlock()
		if !stopped {
			_, _ = w.Reload()
		}
	})
}

func (w *Watcher) stop() {
	w.mu.Lock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	if err := w.watcher.Close(); err != nil {
		w.log.Warnw("close trace configuration watcher", "error", err)
	}
}

// Watch applies the file at path to reg once and then again after every
// change until ctx is cancelled. Only failing to set up the watch is an
// error; reload failures are logged.
func Watch(ctx context.Context, path string, reg *trace.Registry, log *zap.SugaredLogger) error {
	w, err := NewWatcher(path, reg, log)
	if err != nil {
		return err
	}
	// a missing or broken file is logged and picked up once fixed
	_, _ = w.Reload()
	return w.Run(ctx)
}
