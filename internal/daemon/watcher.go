package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SourceWatcher monitors the source tree and fires a deploy trigger after
// a quiet period. Rapid bursts of filesystem events (editor saves, asset
// copies) collapse into a single trigger. Paths listed as exclusions are
// never watched and never fire: the generator's output directory and the
// run history database live inside the watched root, and reacting to the
// pipeline's own writes would schedule a deploy per deploy, forever.
type SourceWatcher struct {
	root     string
	debounce time.Duration
	onChange func(trigger string)
	excludes []string
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
}

// NewSourceWatcher creates a watcher over the source tree root. Each
// exclude names a file or directory subtree whose events are ignored.
func NewSourceWatcher(root string, debounce time.Duration, onChange func(string), excludes ...string) (*SourceWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("resolve source root: %w", err)
	}

	absExcludes := make([]string, 0, len(excludes))
	for _, ex := range excludes {
		if ex == "" {
			continue
		}
		absEx, err := filepath.Abs(ex)
		if err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("resolve exclusion %s: %w", ex, err)
		}
		absExcludes = append(absExcludes, absEx)
	}

	return &SourceWatcher{
		root:     absRoot,
		debounce: debounce,
		onChange: onChange,
		excludes: absExcludes,
		watcher:  watcher,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins monitoring. Subdirectories are watched recursively;
// directories created later are added as they appear.
func (w *SourceWatcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	go w.loop(ctx)
	slog.Info("Watching source tree", "root", w.root, "debounce", w.debounce)
	return nil
}

// Stop ends monitoring.
func (w *SourceWatcher) Stop() {
	close(w.stopChan)
	_ = w.watcher.Close()
}

func (w *SourceWatcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.excluded(path) {
			return filepath.SkipDir
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// excluded reports whether path is an excluded entry or lives under one.
// A bare prefix match past a dash also covers sidecar files (sqlite
// journal/WAL next to the history database).
func (w *SourceWatcher) excluded(path string) bool {
	for _, ex := range w.excludes {
		if path == ex ||
			strings.HasPrefix(path, ex+string(filepath.Separator)) ||
			strings.HasPrefix(path, ex+"-") {
			return true
		}
	}
	return false
}

func (w *SourceWatcher) loop(ctx context.Context) {
	var timer *time.Timer
	fire := func() {
		w.onChange("watch")
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if w.excluded(event.Name) {
				continue
			}
			// Newly created directories need their own watch.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						slog.Warn("Failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			slog.Debug("Source change detected", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", "error", err)
		}
	}
}
