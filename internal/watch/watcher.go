package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 500 * time.Millisecond

// imageExtensions are the file types the watcher reacts to.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Watcher watches a directory and invokes a callback for each image file
// written into it. Rapid successive writes to the same file are debounced.
type Watcher struct {
	dir      string
	onImage  func(path string)
	watcher  *fsnotify.Watcher
	handled  atomic.Uint32
	mu       sync.Mutex
	pending  map[string]*time.Timer
	stopOnce sync.Once
}

// New creates a Watcher for dir and starts watching.
func New(dir string, onImage func(path string)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	w := &Watcher{
		dir:     dir,
		onImage: onImage,
		watcher: fsWatcher,
		pending: map[string]*time.Timer{},
	}

	go w.watch()

	return w, nil
}

// watch dispatches filesystem events until the watcher is closed.
func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !imageExtensions[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}

			w.schedule(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			slog.Error("Watcher error", "error", err)
		}
	}
}

// schedule arms (or re-arms) the debounce timer for one file.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}

	w.pending[path] = time.AfterFunc(debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		count := w.handled.Add(1)
		slog.Info("Image detected", "path", path, "count", count)
		w.onImage(path)
	})
}

// HandledCount returns how many images the watcher has dispatched.
func (w *Watcher) HandledCount() uint32 {
	return w.handled.Load()
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		err = w.watcher.Close()
	})
	return err
}
