package watcher

import (
	"sync"
	"time"
)

// Debouncer rate-limits modify events per path. The first event for a
// path is emitted immediately; repeats arriving within the window are
// dropped. Editors that write a file several times per save therefore
// trigger one indexing run right away, and a file saved continuously is
// still indexed at least once per window.
type Debouncer struct {
	window time.Duration
	emit   func(FileEvent)

	mu      sync.Mutex
	last    map[string]time.Time
	stopped bool
}

// NewDebouncer creates a debouncer that drops per-path repeats arriving
// within the window of the last accepted event.
func NewDebouncer(window time.Duration, emit func(FileEvent)) *Debouncer {
	return &Debouncer{
		window: window,
		emit:   emit,
		last:   make(map[string]time.Time),
	}
}

// Add emits the event unless one for the same path was accepted less
// than the window ago.
func (d *Debouncer) Add(event FileEvent) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	now := time.Now()
	if accepted, ok := d.last[event.Path]; ok && now.Sub(accepted) < d.window {
		d.mu.Unlock()
		return
	}
	d.last[event.Path] = now
	d.mu.Unlock()

	d.emit(event)
}

// Forget clears a path's acceptance record. Used when a file is deleted
// so a quick recreate is not held back by the old entry.
func (d *Debouncer) Forget(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.last, path)
}

// Stop makes the debouncer drop every event from now on.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.last = make(map[string]time.Time)
}
