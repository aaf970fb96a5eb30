// Package watcher observes directories for document changes and feeds
// them to the indexing pipeline. Modify events are debounced per path,
// changes queue on a bounded channel that drops when full, and a single
// consumer applies them sequentially so the store only ever sees one
// writer.
package watcher

import (
	"time"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file was deleted or renamed away.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one pending change awaiting the consumer.
type FileEvent struct {
	Path      string
	Operation Operation
	Time      time.Time
}

// WatchInfo describes one watched directory.
type WatchInfo struct {
	Path      string    `json:"path"`
	FileCount int       `json:"file_count"`
	Recursive bool      `json:"recursive"`
	Active    bool      `json:"active"`
	StartedAt time.Time `json:"started_at"`
}

// Stats reports runtime counters for the watch subsystem.
type Stats struct {
	WatchedDirectories int    `json:"watched_directories"`
	QueueLength        int    `json:"queue_length"`
	QueueCapacity      int    `json:"queue_capacity"`
	EventsProcessed    uint64 `json:"events_processed"`
	EventsDropped      uint64 `json:"events_dropped"`
	EventsFailed       uint64 `json:"events_failed"`
}
