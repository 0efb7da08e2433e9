// Package watch imports files dropped into inbox directories.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driving"
	"github.com/custodia-labs/filer-cli/internal/logger"
)

// DefaultSettle is how long a file must stay unmodified before import.
const DefaultSettle = 2 * time.Second

// partialSuffixes mark downloads and editor files that are still being written.
var partialSuffixes = []string{".part", ".crdownload", ".download", ".tmp", ".swp", "~"}

// Watcher enqueues files created in the watched directories.
// Subdirectories are not watched.
type Watcher struct {
	queue  driving.ImportQueue
	dirs   []string
	settle time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle overrides DefaultSettle.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// New creates a watcher for dirs.
func New(queue driving.ImportQueue, dirs []string, opts ...Option) *Watcher {
	w := &Watcher{
		queue:  queue,
		dirs:   dirs,
		settle: DefaultSettle,
		timers: make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. It returns once pending imports
// started by the watcher have been handed to the queue.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.dirs) == 0 {
		return errors.New("no watch directories configured")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		logger.Info("watching directory", "dir", dir)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer w.stop(cancel)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if path, ok := candidate(ev); ok {
				w.schedule(ctx, path)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

// candidate reports whether ev may introduce a file worth importing.
func candidate(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return "", false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return "", false
	}
	lower := strings.ToLower(name)
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return "", false
		}
	}
	return ev.Name, true
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.enqueue(ctx, path)
	})
}

func (w *Watcher) enqueue(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}

	w.mu.Lock()
	if w.stopped || ctx.Err() != nil {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()

	logger.Info("inbox file detected", "path", path)
	completion := w.queue.Enqueue(domain.ImportRequest{Path: path, Origin: domain.OriginWatch})

	go func() {
		defer w.wg.Done()
		select {
		case <-completion.Done():
			res := completion.Result()
			if res.Outcome == domain.OutcomeError {
				logger.Warn("inbox import failed", "path", path, "message", res.Message, "error", res.Err)
				return
			}
			logger.Info("inbox import finished", "path", path, "outcome", res.Outcome, "message", res.Message)
		case <-ctx.Done():
		}
	}()
}

// stop cancels the watch context and pending timers, then waits for result
// loggers. Timers firing afterwards enqueue nothing.
func (w *Watcher) stop(cancel context.CancelFunc) {
	cancel()
	w.mu.Lock()
	w.stopped = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
