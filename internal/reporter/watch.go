package reporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/vulnforge/internal/analyze"
)

// debounceDefault is the quiet period after the last write to a new report.
const debounceDefault = 200 * time.Millisecond

// pollDefault is the polling interval when fsnotify is unavailable.
const pollDefault = 2 * time.Second

// Watcher calls a handler once for every new report that appears in a
// reports directory. Reports present when Run starts are ignored.
type Watcher struct {
	dir      string
	handle   func(path string)
	poll     bool
	interval time.Duration
	debounce time.Duration

	mu   sync.Mutex
	seen map[string]bool
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, handle func(path string)) *Watcher {
	return &Watcher{
		dir:      dir,
		handle:   handle,
		interval: pollDefault,
		debounce: debounceDefault,
		seen:     make(map[string]bool),
	}
}

// WithPolling switches to directory polling at the given interval.
func (w *Watcher) WithPolling(interval time.Duration) *Watcher {
	w.poll = true
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}
	existing, err := List(w.dir)
	if err != nil {
		return err
	}
	for _, r := range existing {
		w.seen[r.Name] = true
	}

	if w.poll {
		return w.runPoll(ctx)
	}
	return w.runFS(ctx)
}

func (w *Watcher) runFS(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch dir: %w", err)
	}
	slog.Info("watching for new reports", "mode", "fsnotify", "dir", w.dir)

	pending := make(map[string]*time.Timer)
	var pmu sync.Mutex

	for {
		select {
		case <-ctx.Done():
			pmu.Lock()
			for _, t := range pending {
				t.Stop()
			}
			pmu.Unlock()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !analyze.IsReportName(filepath.Base(event.Name)) {
				continue
			}

			path := event.Name
			pmu.Lock()
			if t, exists := pending[path]; exists {
				t.Stop()
			}
			pending[path] = time.AfterFunc(w.debounce, func() {
				pmu.Lock()
				delete(pending, path)
				pmu.Unlock()
				if ctx.Err() == nil {
					w.deliver(path)
				}
			})
			pmu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) runPoll(ctx context.Context) error {
	slog.Info("watching for new reports", "mode", "poll", "dir", w.dir, "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			reports, err := List(w.dir)
			if err != nil {
				slog.Warn("list reports", "error", err)
				continue
			}
			// oldest first so handlers see reports in creation order
			for i := len(reports) - 1; i >= 0; i-- {
				w.deliver(reports[i].Path)
			}
		}
	}
}

// deliver invokes the handler at most once per report name.
func (w *Watcher) deliver(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	name := filepath.Base(path)
	if w.seen[name] {
		return
	}
	w.seen[name] = true
	w.handle(path)
}
