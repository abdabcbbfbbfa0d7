package hotreload

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher converts raw filesystem notifications into a debounced, ordered
// stream of changed paths. A single save can generate several notifications
// for one path; events inside the debounce window coalesce into one. Events
// for distinct paths are emitted in first-observed order, so two genuinely
// distinct edits to the same path are never reordered.
type Watcher struct {
	fsw     *fsnotify.Watcher
	out     chan string
	window  time.Duration
	exclude func(path string) bool
	logger  *slog.Logger
}

// NewWatcher watches root (recursively) for source file changes.
func NewWatcher(root string, window time.Duration, exclude func(path string) bool, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{
		fsw:     fsw,
		out:     make(chan string, 64),
		window:  window,
		exclude: exclude,
		logger:  logger,
	}
	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees degrade to unwatched, they never abort
			// the session.
			w.logger.Warn("skipping unwatchable path", "path", path, "error", err)
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if w.exclude(path) {
			return fs.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Events returns the debounced change stream. The channel closes when Run
// returns.
func (w *Watcher) Events() <-chan string {
	return w.out
}

// Run pumps filesystem notifications until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.out)
	defer w.fsw.Close()

	type pending struct {
		path string
		last time.Time
	}
	var queue []*pending
	index := make(map[string]*pending)

	ticker := time.NewTicker(w.window / 2)
	defer ticker.Stop()

	flush := func() {
		now := time.Now()
		kept := queue[:0]
		for _, p := range queue {
			if now.Sub(p.last) < w.window {
				kept = append(kept, p)
				continue
			}
			delete(index, p.path)
			select {
			case w.out <- p.path:
			case <-ctx.Done():
				return
			}
		}
		queue = kept
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		case <-ticker.C:
			flush()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				// New directories need their own watches.
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() && !w.exclude(ev.Name) {
					_ = w.addRecursive(ev.Name)
					continue
				}
			}
			if !w.interesting(ev) {
				continue
			}
			if p, ok := index[ev.Name]; ok {
				p.last = time.Now()
				continue
			}
			p := &pending{path: ev.Name, last: time.Now()}
			index[ev.Name] = p
			queue = append(queue, p)
		}
	}
}

func (w *Watcher) interesting(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	if w.exclude(ev.Name) {
		return false
	}
	return strings.HasSuffix(ev.Name, ".go") && !strings.HasSuffix(ev.Name, "_test.go")
}
