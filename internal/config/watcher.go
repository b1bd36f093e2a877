package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration file when it changes on disk.
// It watches the file's parent directory rather than the file itself, so
// editors that replace the file by rename are still observed.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	configs chan *Config
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewWatcher creates a watcher for the configuration file at path.
// The watcher must be started with Start() before it will emit configs.
func NewWatcher(path string) (*Watcher, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: fsw,
		path:    expanded,
		configs: make(chan *Config, 1),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the configuration file's directory.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", dir, err)
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// Stop stops watching and cleans up resources. It blocks until the event
// processing goroutine has exited.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.wg.Wait()

	close(w.configs)
	close(w.errors)

	return nil
}

// Configs returns the channel that emits freshly loaded configurations.
// This channel is closed when the watcher is stopped.
func (w *Watcher) Configs() <-chan *Config {
	return w.configs
}

// Errors returns the channel that emits reload errors. A malformed config
// file is reported here; the previous configuration stays in effect.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// processEvents converts file system events on the config file into
// reloaded configurations.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isConfigEvent(event) {
				continue
			}

			cfg, err := Load(w.path)
			if err != nil {
				select {
				case w.errors <- err:
				case <-w.done:
					return
				}
				continue
			}

			// Only the latest config matters; drop a stale pending one.
			select {
			case <-w.configs:
			default:
			}
			select {
			case w.configs <- cfg:
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

// isConfigEvent reports whether the event is a write, create or rename of
// the watched config file.
func (w *Watcher) isConfigEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// IsRunning returns true if the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
