// Package watcher monitors the entries file and tells connected browsers
// when it changes.
//
// The parent directory is watched rather than the file itself so that
// editors that save by rename are still seen. Bursts of events are
// debounced into a single "changed" event broadcast to SSE clients.
package watcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the file must be quiet before a change is
// broadcast.
const DefaultDebounce = 250 * time.Millisecond

// Event represents a watcher event sent to SSE clients.
type Event struct {
	Type      string `json:"type"` // "changed"
	File      string `json:"file"`
	Timestamp string `json:"timestamp"`
}

// Watcher monitors one file.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger

	// SSE clients
	mu      sync.Mutex
	clients map[chan Event]struct{}

	stopOnce sync.Once
	stopCh   chan struct{}
	fsw      *fsnotify.Watcher
}

// New creates a Watcher for the file at path.
func New(path string, logger *slog.Logger) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		logger:   logger,
		clients:  make(map[chan Event]struct{}),
		stopCh:   make(chan struct{}),
	}
}

// Start begins watching. Call Stop() to clean up.
func (w *Watcher) Start() error {
	if w.path == "" || w.path == "." {
		return errors.New("watch path is empty")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return fmt.Errorf("watch dir %s: %w", dir, err)
	}
	w.fsw = fsw

	w.logger.Info("entries watcher started", "file", w.path)
	go w.loop()
	return nil
}

// Stop shuts down the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.fsw != nil {
			w.fsw.Close()
		}
	})
}

// Subscribe returns a channel that receives watcher events.
func (w *Watcher) Subscribe() chan Event {
	ch := make(chan Event, 16)
	w.mu.Lock()
	w.clients[ch] = struct{}{}
	w.mu.Unlock()
	return ch
}

// Unsubscribe removes an SSE client.
func (w *Watcher) Unsubscribe(ch chan Event) {
	w.mu.Lock()
	delete(w.clients, ch)
	w.mu.Unlock()
	close(ch)
}

func (w *Watcher) broadcast(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.clients {
		select {
		case ch <- ev:
		default:
			// Client buffer full: drop rather than block
		}
	}
}

func (w *Watcher) loop() {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)

		case <-fire:
			fire = nil
			w.logger.Debug("entries file changed", "file", w.path)
			w.broadcast(Event{
				Type:      "changed",
				File:      filepath.Base(w.path),
				Timestamp: time.Now().Format(time.RFC3339),
			})
		}
	}
}

// SSEHandler returns an HTTP handler for Server-Sent Events.
func (w *Watcher) SSEHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		flusher, ok := rw.(http.Flusher)
		if !ok {
			http.Error(rw, "streaming not supported", http.StatusInternalServerError)
			return
		}

		rw.Header().Set("Content-Type", "text/event-stream")
		rw.Header().Set("Cache-Control", "no-cache")
		rw.Header().Set("Connection", "keep-alive")

		ch := w.Subscribe()
		defer w.Unsubscribe(ch)

		// Send initial connected event
		fmt.Fprintf(rw, "data: {\"type\":\"connected\"}\n\n")
		flusher.Flush()

		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				data, _ := json.Marshal(ev)
				fmt.Fprintf(rw, "data: %s\n\n", data)
				flusher.Flush()
			case <-r.Context().Done():
				return
			case <-w.stopCh:
				return
			}
		}
	}
}
