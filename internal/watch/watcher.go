// Package watch reports storage changes (media inserted or removed, volumes
// mounted) so open menus can be refreshed.
package watch

import (
	"fmt"
	"os"
	"sync"
	"time"

	"recoveryctl/internal/log"

	"github.com/fsnotify/fsnotify"
)

// Change is a coalesced storage change
type Change struct {
	Path      string
	Op        fsnotify.Op
	Timestamp time.Time
}

// Watcher monitors directories with fsnotify
type Watcher struct {
	directories []string

	// Holds at most one pending change; later changes are folded into it
	changes chan Change

	stopChan  chan struct{}
	fsWatcher *fsnotify.Watcher

	mutex   sync.RWMutex
	running bool
}

// New creates a new directory watcher using fsnotify
func New() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		directories: []string{},
		changes:     make(chan Change, 1),
		stopChan:    make(chan struct{}),
		fsWatcher:   fsWatcher,
	}, nil
}

// AddDirectory adds a directory to watch
func (w *Watcher) AddDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	for _, existing := range w.directories {
		if existing == dir {
			return nil
		}
	}
	w.directories = append(w.directories, dir)
	log.LogWithFields(log.F("directory", dir)).Debug("watching directory")
	return nil
}

// AddDirectories adds every directory that can be watched and returns how
// many were added. Missing directories are skipped with a warning.
func (w *Watcher) AddDirectories(dirs []string) int {
	added := 0
	for _, dir := range dirs {
		if err := w.AddDirectory(dir); err != nil {
			log.LogWithFields(log.F("directory", dir), log.F("error", err.Error())).Warn("not watching directory")
			continue
		}
		added++
	}
	return added
}

// Changes delivers storage changes. The channel is closed by Stop.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// relevant reports whether op changes what a menu would list
func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}

func (w *Watcher) notify(c Change) {
	select {
	case w.changes <- c:
	default:
		// A change is already pending
	}
}

// Start begins watching
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.stopChan = make(chan struct{})
	stop := w.stopChan
	w.mutex.Unlock()

	go func() {
		defer close(w.changes)
		for {
			select {
			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}
				if !relevant(event.Op) {
					continue
				}
				log.LogWithFields(log.F("path", event.Name), log.F("op", event.Op.String())).Debug("storage changed")
				w.notify(Change{Path: event.Name, Op: event.Op, Timestamp: time.Now()})

			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				log.LogWithFields(log.F("error", err.Error())).Error("fsnotify watcher error")

			case <-stop:
				return
			}
		}
	}()

	log.Debug("watcher started")
	return nil
}

// Stop halts watching and closes the change channel
func (w *Watcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.running {
		w.fsWatcher.Close()
		return
	}
	close(w.stopChan)
	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithFields(log.F("error", err.Error())).Error("error closing fsnotify watcher")
	}
	w.running = false
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// Directories returns the directories being watched
func (w *Watcher) Directories() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	out := make([]string, len(w.directories))
	copy(out, w.directories)
	return out
}

// Forward calls fn for every change until the watcher stops
func (w *Watcher) Forward(fn func(Change)) {
	go func() {
		for c := range w.changes {
			fn(c)
		}
	}()
}
