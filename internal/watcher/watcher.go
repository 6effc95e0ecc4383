// Package watcher monitors workspace markdown files for external
// changes and drives re-indexing.
//
// The watcher polls: it rescans the watched directories on an interval
// and compares mtime, size, and content checksum against the previous
// scan. Polling is slower than native notification but behaves the
// same on every platform and filesystem.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/specdex/specdex/internal/metrics"
)

// EventType classifies a file change.
type EventType string

const (
	EventCreated  EventType = "created"
	EventModified EventType = "modified"
	EventDeleted  EventType = "deleted"
)

// Event describes one observed change to a markdown file.
type Event struct {
	Type      EventType `json:"type"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s: %s", strings.ToUpper(string(e.Type)), e.Path)
}

// Handler receives events. Handlers run on the watcher goroutine, in
// occurrence order; a slow handler delays the next poll.
type Handler func(Event)

type fileState struct {
	size     int64
	mtime    time.Time
	checksum string
}

// Watcher is a polling file watcher over one or more directories.
type Watcher struct {
	interval time.Duration
	log      zerolog.Logger
	metrics  *metrics.Metrics

	mu       sync.Mutex
	paths    []string
	states   map[string]fileState
	handlers []Handler
	running  bool
	stop     chan struct{}
	done     chan struct{}
}

// New creates a watcher. A zero interval defaults to one second. The
// metrics may be nil.
func New(interval time.Duration, log zerolog.Logger, m *metrics.Metrics) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{
		interval: interval,
		log:      log,
		metrics:  m,
		states:   make(map[string]fileState),
	}
}

// AddHandler registers an event handler.
func (w *Watcher) AddHandler(h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Watch adds a directory to the watch set and runs an initial scan so
// pre-existing files do not surface as created events later.
func (w *Watcher) Watch(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving watch path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("watch path does not exist: %s: %w", abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch path is not a directory: %s", abs)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.paths {
		if p == abs {
			return nil
		}
	}
	w.paths = append(w.paths, abs)
	w.seed(abs)
	return nil
}

// seed records current file states without emitting events.
// Caller holds w.mu.
func (w *Watcher) seed(dir string) {
	for path, state := range scanTree(dir) {
		w.states[path] = state
	}
}

// Start launches the polling loop. It returns immediately; the loop
// stops when ctx is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	stop, done := w.stop, w.done
	w.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				w.Poll()
			}
		}
	}()
}

// Stop halts the polling loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stop)
	done := w.done
	w.mu.Unlock()
	<-done
}

// Poll runs one scan pass over all watched directories, emitting
// events for every change since the previous pass. Exported so callers
// can force a scan without waiting for the ticker.
func (w *Watcher) Poll() {
	w.mu.Lock()
	paths := append([]string{}, w.paths...)
	handlers := append([]Handler{}, w.handlers...)
	w.mu.Unlock()

	if w.metrics != nil {
		w.metrics.WatcherScansTotal.Inc()
	}

	current := make(map[string]fileState)
	for _, dir := range paths {
		for path, state := range scanTree(dir) {
			current[path] = state
		}
	}

	w.mu.Lock()
	var events []Event
	now := time.Now()

	for _, path := range sortedPaths(current) {
		state := current[path]
		prev, seen := w.states[path]
		switch {
		case !seen:
			events = append(events, Event{
				Type: EventCreated, Path: path,
				SizeBytes: state.size, Checksum: state.checksum, Timestamp: now,
			})
		case !state.mtime.Equal(prev.mtime) || state.checksum != prev.checksum:
			events = append(events, Event{
				Type: EventModified, Path: path,
				SizeBytes: state.size, Checksum: state.checksum, Timestamp: now,
			})
		}
		w.states[path] = state
	}

	for _, path := range sortedPaths(w.states) {
		if _, ok := current[path]; !ok {
			events = append(events, Event{Type: EventDeleted, Path: path, Timestamp: now})
			delete(w.states, path)
		}
	}
	w.mu.Unlock()

	for _, ev := range events {
		if w.metrics != nil {
			w.metrics.WatcherEventsTotal.WithLabelValues(string(ev.Type)).Inc()
		}
		w.log.Debug().Str("type", string(ev.Type)).Str("path", ev.Path).Msg("file event")
		for _, h := range handlers {
			h(ev)
		}
	}
}

func sortedPaths(m map[string]fileState) []string {
	out := make([]string, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// scanTree walks a directory collecting the state of every markdown
// file. Unreadable entries are skipped.
func scanTree(dir string) map[string]fileState {
	states := make(map[string]fileState)
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		states[path] = fileState{
			size:     info.Size(),
			mtime:    info.ModTime(),
			checksum: checksumFile(path),
		}
		return nil
	})
	return states
}

func checksumFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}
