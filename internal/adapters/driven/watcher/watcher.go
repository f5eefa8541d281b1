// Package watcher reports changes to the corpus files while a long-running
// command is serving. The index is built once, so a change means the stored
// chunks no longer match the document on disk.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docchat/internal/logger"
)

// ChangeKind describes what happened to a watched file.
type ChangeKind int

const (
	// Modified means the file was written or recreated.
	Modified ChangeKind = iota
	// Removed means the file was deleted or renamed away.
	Removed
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is one observed change to a watched file.
type Change struct {
	Path string
	Kind ChangeKind
}

// DefaultQuietPeriod suppresses repeated events for the same file.
const DefaultQuietPeriod = 500 * time.Millisecond

// Watcher watches a fixed set of files. Parent directories are watched
// rather than the files themselves so that editors which save by renaming a
// temporary file are still seen.
type Watcher struct {
	fs    *fsnotify.Watcher
	files map[string]bool
	quiet time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

// New starts watching paths. Relative paths are made absolute.
func New(paths []string) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("watcher: no paths to watch")
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		fs:    fs,
		files: make(map[string]bool, len(paths)),
		quiet: DefaultQuietPeriod,
		last:  make(map[string]time.Time),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fs.Close()
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fs.Add(dir); err != nil {
			_ = fs.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run delivers changes to onChange until ctx is done or the watcher is
// closed. It returns nil when ctx ends.
func (w *Watcher) Run(ctx context.Context, onChange func(Change)) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			change, ok := w.handle(event, time.Now())
			if ok {
				onChange(change)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("document watcher: %v", err)
		}
	}
}

// handle filters an event down to a change of a watched file.
func (w *Watcher) handle(event fsnotify.Event, now time.Time) (Change, bool) {
	path := filepath.Clean(event.Name)
	if !w.files[path] {
		return Change{}, false
	}
	kind, ok := classify(event.Op)
	if !ok {
		return Change{}, false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, seen := w.last[path]; seen && now.Sub(prev) < w.quiet {
		return Change{}, false
	}
	w.last[path] = now
	return Change{Path: path, Kind: kind}, true
}

func classify(op fsnotify.Op) (ChangeKind, bool) {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return Removed, true
	case op.Has(fsnotify.Write), op.Has(fsnotify.Create):
		return Modified, true
	default:
		return 0, false
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
