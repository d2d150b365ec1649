package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/BerylCAtieno/document-assistant/internal/extractor"
	"github.com/BerylCAtieno/document-assistant/internal/utils"
)

// DefaultSettle is how long a file must go without writes before it is picked up.
const DefaultSettle = 500 * time.Millisecond

// Handler processes one settled inbox file.
type Handler func(ctx context.Context, path string)

// InboxWatcher hands every supported file dropped into a directory to a
// Handler, one file at a time.
type InboxWatcher struct {
	watcher   *fsnotify.Watcher
	dir       string
	settle    time.Duration
	paceDelay time.Duration
	logger    *utils.Logger
}

func NewInboxWatcher(dir string, paceDelay time.Duration, logger *utils.Logger) (*InboxWatcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve inbox directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create inbox directory: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &InboxWatcher{
		watcher:   w,
		dir:       abs,
		settle:    DefaultSettle,
		paceDelay: paceDelay,
		logger:    logger,
	}, nil
}

func (w *InboxWatcher) Dir() string {
	return w.dir
}

// Run blocks until ctx is done. Files already present when Run starts are
// processed first.
func (w *InboxWatcher) Run(ctx context.Context, handle Handler) error {
	defer w.watcher.Close()

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	pending := make(map[string]time.Time)

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to scan inbox: %w", err)
	}
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if !e.IsDir() && w.accepts(path) {
			pending[path] = time.Time{}
		}
	}

	w.logger.Info("Watching inbox", "dir", w.dir, "queued", len(pending))

	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	processed := 0
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.accepts(event.Name) {
				continue
			}

			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				pending[event.Name] = time.Now()
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				delete(pending, event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Inbox watcher error", "error", err)

		case now := <-ticker.C:
			for _, path := range settled(pending, now, w.settle) {
				delete(pending, path)

				info, err := os.Stat(path)
				if err != nil || !info.Mode().IsRegular() {
					continue
				}

				if processed > 0 && !w.pace(ctx) {
					return nil
				}
				w.logger.Info("Processing inbox file", "path", path)
				handle(ctx, path)
				processed++
			}
		}
	}
}

func (w *InboxWatcher) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || filepath.Dir(path) != w.dir {
		return false
	}
	return extractor.IsSupported(filepath.Ext(base))
}

func (w *InboxWatcher) pace(ctx context.Context) bool {
	if w.paceDelay <= 0 {
		return true
	}

	timer := time.NewTimer(w.paceDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// settled returns the pending paths whose last write is older than settle, sorted by name.
func settled(pending map[string]time.Time, now time.Time, settle time.Duration) []string {
	var ready []string
	for path, last := range pending {
		if now.Sub(last) >= settle {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)
	return ready
}
