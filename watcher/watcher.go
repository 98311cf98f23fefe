// Package watcher invalidates cached categories when their local data files change.
package watcher

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events a single file write produces.
const DefaultDebounce = 250 * time.Millisecond

// Invalidator drops whatever is cached from a data file.
type Invalidator interface {
	InvalidateFile(file string)
}

// Watcher monitors the data directory for changed data files.
type Watcher struct {
	dir      string
	target   Invalidator
	logger   *zap.Logger
	debounce time.Duration

	fw       *fsnotify.Watcher
	mu       sync.Mutex
	timers   map[string]*time.Timer
	stop     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a watcher on dir. Call Start to begin processing events.
func New(dir string, target Invalidator, logger *zap.Logger, debounce time.Duration) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		dir:      dir,
		target:   target,
		logger:   logger.Named("watcher"),
		debounce: debounce,
		fw:       fw,
		timers:   make(map[string]*time.Timer),
		stop:     make(chan struct{}),
	}, nil
}

func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.eventLoop()
	w.logger.Info("watching data directory", zap.String("dir", w.dir))
}

// Stop ends the event loop and cancels pending invalidations.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.fw.Close()
		w.wg.Wait()

		w.mu.Lock()
		for name, t := range w.timers {
			t.Stop()
			delete(w.timers, name)
		}
		w.mu.Unlock()
	})
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || !strings.EqualFold(filepath.Ext(base), ".json") {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.stop:
		return
	default:
	}

	if t, ok := w.timers[base]; ok {
		t.Stop()
	}
	w.timers[base] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, base)
		w.mu.Unlock()

		w.logger.Debug("data file changed", zap.String("file", base), zap.String("op", event.Op.String()))
		w.target.InvalidateFile(base)
	})
}
