package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/parasearch/parasearch/internal/errors"
	"github.com/parasearch/parasearch/internal/pipeline"
)

// Defaults for the watch subsystem.
const (
	DefaultDebounce       = 2 * time.Second
	DefaultMaxDirectories = 10
	DefaultQueueSize      = 256
)

// Config configures the watch manager.
type Config struct {
	// Extensions are the file extensions eligible for indexing.
	Extensions []string

	// ExcludePatterns are glob patterns matched against path components.
	ExcludePatterns []string

	// Debounce is the minimum interval between accepted modify events
	// for the same path; in-window repeats are dropped.
	Debounce time.Duration

	// MaxDirectories caps the number of watched directory roots.
	MaxDirectories int

	// Recursive extends each watch to subdirectories.
	Recursive bool

	// QueueSize bounds the pending-change queue. When the queue is full
	// new changes are dropped and counted, never blocked on.
	QueueSize int
}

// watchEntry tracks one watched root and the fsnotify registrations
// belonging to it.
type watchEntry struct {
	info WatchInfo
	dirs []string
}

// Manager owns the fsnotify watcher, the debouncer, the bounded queue,
// and the single consumer goroutine that drives the pipeline.
type Manager struct {
	config Config
	pipe   *pipeline.Pipeline
	logger *slog.Logger

	fw        *fsnotify.Watcher
	debouncer *Debouncer
	queue     chan FileEvent

	processed atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64

	mu      sync.Mutex
	watched map[string]*watchEntry
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager creates a watch manager. Start must be called before
// StartWatch has any effect.
func NewManager(cfg Config, pipe *pipeline.Pipeline, logger *slog.Logger) (*Manager, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.MaxDirectories <= 0 {
		cfg.MaxDirectories = DefaultMaxDirectories
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.IOError("failed to create file watcher", err)
	}

	m := &Manager{
		config:  cfg,
		pipe:    pipe,
		logger:  logger,
		fw:      fw,
		queue:   make(chan FileEvent, cfg.QueueSize),
		watched: make(map[string]*watchEntry),
	}
	m.debouncer = NewDebouncer(cfg.Debounce, m.enqueue)
	return m, nil
}

// Start launches the event loop and the consumer. The manager stops when
// the context is cancelled or Close is called.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return errors.New(errors.ErrCodeInternal, "watch manager already started", nil)
	}
	m.started = true

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(2)
	go m.eventLoop(runCtx)
	go m.consume(runCtx)
	return nil
}

// StartWatch begins watching a directory. The path must be an existing
// directory, must not already be watched, and the configured directory
// ceiling must not be exceeded. The returned info includes the number of
// eligible files found by the initial scan.
func (m *Manager) StartWatch(path string) (WatchInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return WatchInfo{}, errors.InputError("invalid path: " + path)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return WatchInfo{}, errors.New(errors.ErrCodeFileNotFound, "path does not exist: "+abs, err)
	}
	if !info.IsDir() {
		return WatchInfo{}, errors.New(errors.ErrCodeNotADirectory, "not a directory: "+abs, nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.watched[abs]; ok {
		return WatchInfo{}, errors.New(errors.ErrCodeAlreadyWatched, "already watching: "+abs, nil)
	}
	if len(m.watched) >= m.config.MaxDirectories {
		return WatchInfo{}, errors.New(errors.ErrCodeWatchCeiling,
			fmt.Sprintf("watch limit of %d directories reached", m.config.MaxDirectories), nil)
	}

	entry := &watchEntry{
		info: WatchInfo{
			Path:      abs,
			Recursive: m.config.Recursive,
			Active:    true,
			StartedAt: time.Now(),
		},
	}

	walkErr := filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != abs && (!m.config.Recursive || m.excluded(p)) {
				return filepath.SkipDir
			}
			if err := m.fw.Add(p); err != nil {
				m.logger.Warn("failed to watch directory", "path", p, "error", err)
				return nil
			}
			entry.dirs = append(entry.dirs, p)
			return nil
		}
		if m.eligible(p) {
			entry.info.FileCount++
		}
		return nil
	})
	if walkErr != nil {
		m.removeDirs(entry.dirs)
		return WatchInfo{}, errors.IOError("failed to scan directory: "+abs, walkErr)
	}

	m.watched[abs] = entry
	m.logger.Info("watching directory",
		"path", abs,
		"files", entry.info.FileCount,
		"subdirs", len(entry.dirs)-1)
	return entry.info, nil
}

// StopWatch stops watching a directory previously passed to StartWatch.
func (m *Manager) StopWatch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.InputError("invalid path: " + path)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.watched[abs]
	if !ok {
		return errors.New(errors.ErrCodeNotWatched, "not watching: "+abs, nil)
	}

	m.removeDirs(entry.dirs)
	delete(m.watched, abs)
	m.logger.Info("stopped watching directory", "path", abs)
	return nil
}

// StopAll stops every watch and shuts down event intake: the debouncer
// accepts nothing further and the consumer is cancelled once the change
// it is currently applying finishes. Events still queued are never
// processed.
func (m *Manager) StopAll() {
	m.mu.Lock()
	for path, entry := range m.watched {
		m.removeDirs(entry.dirs)
		delete(m.watched, path)
	}
	cancel := m.cancel
	m.mu.Unlock()

	m.debouncer.Stop()
	if cancel != nil {
		cancel()
	}
}

// ListWatched returns the watched directories ordered by path.
func (m *Manager) ListWatched() []WatchInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]WatchInfo, 0, len(m.watched))
	for _, entry := range m.watched {
		infos = append(infos, entry.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos
}

// Stats returns the current counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	watchedCount := len(m.watched)
	m.mu.Unlock()

	return Stats{
		WatchedDirectories: watchedCount,
		QueueLength:        len(m.queue),
		QueueCapacity:      cap(m.queue),
		EventsProcessed:    m.processed.Load(),
		EventsDropped:      m.dropped.Load(),
		EventsFailed:       m.failed.Load(),
	}
}

// Close stops the manager and waits for the consumer to drain.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()

	m.debouncer.Stop()
	err := m.fw.Close()
	m.wg.Wait()
	return err
}

// removeDirs detaches fsnotify registrations. Caller holds the lock.
func (m *Manager) removeDirs(dirs []string) {
	for _, dir := range dirs {
		_ = m.fw.Remove(dir)
	}
}

// eventLoop translates raw fsnotify events. Creates and deletes pass
// straight to the queue; writes go through the debouncer so editor save
// bursts index once.
func (m *Manager) eventLoop(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-m.fw.Events:
			if !ok {
				return
			}
			m.handleEvent(event)

		case err, ok := <-m.fw.Errors:
			if !ok {
				return
			}
			m.logger.Warn("watch error", "error", err)
		}
	}
}

// handleEvent routes one fsnotify event.
func (m *Manager) handleEvent(event fsnotify.Event) {
	path := event.Name
	now := time.Now()

	// A directory created under a recursive watch joins it.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			m.attachNewDir(path)
			return
		}
	}

	if !m.eligible(path) {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		m.debouncer.Forget(path)
		m.enqueue(FileEvent{Path: path, Operation: OpDelete, Time: now})

	case event.Op.Has(fsnotify.Create):
		m.enqueue(FileEvent{Path: path, Operation: OpCreate, Time: now})

	case event.Op.Has(fsnotify.Write):
		m.debouncer.Add(FileEvent{Path: path, Operation: OpModify, Time: now})
	}
}

// attachNewDir registers a freshly created subdirectory with the watch
// root that contains it.
func (m *Manager) attachNewDir(path string) {
	if !m.config.Recursive || m.excluded(path) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for root, entry := range m.watched {
		if strings.HasPrefix(path, root+string(filepath.Separator)) {
			if err := m.fw.Add(path); err != nil {
				m.logger.Warn("failed to watch new directory", "path", path, "error", err)
				return
			}
			entry.dirs = append(entry.dirs, path)
			m.logger.Debug("watching new directory", "path", path)
			return
		}
	}
}

// enqueue offers a change to the bounded queue. A full queue drops the
// change rather than blocking the event loop.
func (m *Manager) enqueue(event FileEvent) {
	select {
	case m.queue <- event:
	default:
		m.dropped.Add(1)
		m.logger.Warn("change queue full, dropping event",
			"path", event.Path,
			"operation", event.Operation.String(),
			"dropped_total", m.dropped.Load())
	}
}

// consume applies queued changes one at a time. Sequential processing is
// what keeps the store single-writer.
func (m *Manager) consume(ctx context.Context) {
	defer m.wg.Done()

	for {
		// Cancellation wins over a non-empty queue.
		select {
		case <-ctx.Done():
			return
		default:
		}

		select {
		case <-ctx.Done():
			return

		case event := <-m.queue:
			m.apply(ctx, event)
		}
	}
}

// apply runs one change through the pipeline. Errors are logged and
// counted; the consumer never stops on a bad document.
func (m *Manager) apply(ctx context.Context, event FileEvent) {
	var result pipeline.Result
	var err error

	switch event.Operation {
	case OpDelete:
		result, err = m.pipe.ProcessDelete(ctx, event.Path)
	default:
		result, err = m.pipe.Process(ctx, event.Path, true)
		if err != nil && errors.GetCode(err) == errors.ErrCodeFileNotFound {
			// The file vanished between the event and processing.
			result, err = m.pipe.ProcessDelete(ctx, event.Path)
		}
	}

	if err != nil {
		m.failed.Add(1)
		m.logger.Error("failed to apply change",
			"path", event.Path,
			"operation", event.Operation.String(),
			"error", err)
		return
	}

	m.processed.Add(1)
	m.logger.Debug("change applied",
		"path", event.Path,
		"operation", event.Operation.String(),
		"status", result.Status,
		"chunks", result.ChunksProcessed)
}

// eligible reports whether a path has an indexable extension and is not
// excluded.
func (m *Manager) eligible(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	found := false
	for _, e := range m.config.Extensions {
		if ext == e {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	return !m.excluded(path)
}

// excluded matches the exclude patterns against each path component and
// against the full path.
func (m *Manager) excluded(path string) bool {
	components := strings.Split(filepath.ToSlash(path), "/")
	for _, pattern := range m.config.ExcludePatterns {
		trimmed := strings.Trim(strings.TrimPrefix(strings.TrimSuffix(pattern, "/**"), "**/"), "/")
		for _, component := range components {
			if ok, _ := filepath.Match(trimmed, component); ok {
				return true
			}
		}
	}
	return false
}
