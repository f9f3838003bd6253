package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ChangeOp is the kind of change seen on the config file.
type ChangeOp int

const (
	// OpWrite means the file was created or rewritten.
	OpWrite ChangeOp = iota
	// OpRemove means the file was removed or renamed away.
	OpRemove
)

func (op ChangeOp) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Change is one event on the watched config file.
type Change struct {
	Path string
	Op   ChangeOp
}

// Watcher reports changes to a single config file.
//
// It watches the parent directory rather than the file itself, so editors
// that save by writing a temp file and renaming it over the original are
// still seen.
type Watcher struct {
	watcher *fsnotify.Watcher
	changes chan Change
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	path    string
}

// NewWatcher creates a Watcher. Call Start to begin receiving changes.
func NewWatcher() (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		watcher: watcher,
		changes: make(chan Change, 16),
		errors:  make(chan error, 4),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching path.
func (w *Watcher) Start(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	w.path = abs
	w.running = true
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop stops watching and closes the Changes and Errors channels.
// It is safe to call on a watcher that was never started.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		close(w.done)
	}
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	if wasRunning {
		w.wg.Wait()
		close(w.changes)
		close(w.errors)
	}
	return nil
}

// Changes returns the channel of config file changes.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// IsRunning returns true if the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			change, ok := w.convert(event)
			if !ok {
				continue
			}
			select {
			case w.changes <- change:
			case <-w.done:
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

// convert keeps only events for the watched file.
func (w *Watcher) convert(event fsnotify.Event) (Change, bool) {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != w.path {
		return Change{}, false
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		return Change{Path: name, Op: OpWrite}, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return Change{Path: name, Op: OpRemove}, true
	}
	return Change{}, false
}
