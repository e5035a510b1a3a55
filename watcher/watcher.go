// Package watcher notifies the supervisor when the configuration file may
// have changed (spec §4.I). It never parses the file itself — that
// judgment call belongs entirely to the reload protocol in engine.
package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/amiable-dev/midimon/logging"
)

// DefaultDebounce is the fixed coalescing window spec §4.I specifies.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a config file's parent directory (to survive editors
// that replace-on-save rather than write-in-place) and emits at most one
// reload request per debounce window.
type Watcher struct {
	path     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
	reload   chan struct{}
	done     chan struct{}
}

// New starts watching path's parent directory. The caller consumes
// Reload() and must call Close when done.
func New(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: new: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watcher: watch %s: %w", dir, err)
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		fsw:      fsw,
		reload:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Reload delivers at most one pending signal per debounce window; the
// engine treats it as "go re-read the config," never as a batch of
// discrete change descriptions.
func (w *Watcher) Reload() <-chan struct{} { return w.reload }

func (w *Watcher) run() {
	log := logging.Get(logging.Watcher)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-w.done:
			timer.Stop()
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if pending && !timer.Stop() {
				<-timer.C
			}
			pending = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("watcher error", "error", err)

		case <-timer.C:
			pending = false
			select {
			case w.reload <- struct{}{}:
			default:
				// A reload is already pending; coalesce.
			}
		}
	}
}

// Close stops the watcher and releases the underlying fsnotify handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
