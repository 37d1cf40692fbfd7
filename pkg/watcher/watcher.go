// Package watcher re-renders sandbox files as soon as they change.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sameehj/dataworks/pkg/sandbox"
)

const defaultDebounce = 300 * time.Millisecond

// Converter is the work run for a changed file. ConvertMarkdown satisfies it.
type Converter interface {
	Matches(name string) bool
	Convert(box *sandbox.IO, name string) error
}

// Watcher observes the top level of the sandbox root. Bursts of events for
// one file collapse into a single conversion after the debounce delay.
type Watcher struct {
	box       *sandbox.IO
	converter Converter
	delay     time.Duration
	watcher   *fsnotify.Watcher
	mu        sync.Mutex
	debounce  map[string]*time.Timer
	ready     chan struct{}
	readyOnce sync.Once
	logger    *slog.Logger
}

func New(box *sandbox.IO, converter Converter, delay time.Duration) *Watcher {
	if delay <= 0 {
		delay = defaultDebounce
	}
	return &Watcher{
		box:       box,
		converter: converter,
		delay:     delay,
		debounce:  make(map[string]*time.Timer),
		ready:     make(chan struct{}),
	}
}

func (w *Watcher) SetLogger(logger *slog.Logger) {
	w.logger = logger
}

// Ready is closed once the root is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Start blocks until ctx is done or the event stream closes.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.box.Ensure(); err != nil {
		return err
	}
	root, err := w.box.Path(".")
	if err != nil {
		return fmt.Errorf("resolve sandbox root: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher
	if err := w.watcher.Add(root); err != nil {
		_ = w.watcher.Close()
		return fmt.Errorf("watch %s: %w", root, err)
	}
	w.readyOnce.Do(func() { close(w.ready) })
	w.logInfo("watcher_started", "root", root)
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			_ = w.watcher.Close()
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !shouldConvert(event) {
				continue
			}
			name := filepath.Base(event.Name)
			if w.converter.Matches(name) {
				w.schedule(name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logError("watcher_error", "error", err)
		}
	}
}

func shouldConvert(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.debounce[name]; ok {
		timer.Stop()
	}
	w.debounce[name] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.debounce, name)
		w.mu.Unlock()

		if err := w.converter.Convert(w.box, name); err != nil {
			w.logError("sandbox_convert_failed", "path", name, "error", err)
			return
		}
		w.logInfo("sandbox_changed", "path", name)
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for name, timer := range w.debounce {
		timer.Stop()
		delete(w.debounce, name)
	}
}

func (w *Watcher) logInfo(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Info(msg, args...)
	}
}

func (w *Watcher) logError(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Error(msg, args...)
	}
}
