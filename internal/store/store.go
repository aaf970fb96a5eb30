package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/parasearch/parasearch/internal/errors"
)

// Defaults for search behavior.
const (
	DefaultSimilarityThreshold = 0.7
	DefaultMaxResults          = 10
)

// Config configures the chunk store.
type Config struct {
	// Path is the SQLite database file. The parent directory is created
	// if missing.
	Path string

	// Dimensions is the embedding dimension all stored vectors must have.
	Dimensions int

	// Model is the embedding model name recorded alongside vectors.
	Model string

	// SimilarityThreshold filters results in the fallback backend.
	// The indexed backend returns its nearest neighbors unfiltered.
	SimilarityThreshold float64

	// MaxResults caps the result count of any single search.
	MaxResults int
}

// Store owns the SQLite database holding chunks, embeddings, and document
// fingerprints. A file lock guarantees a single writing process.
type Store struct {
	db      *sql.DB
	lock    *flock.Flock
	config  Config
	backend BackendKind

	mu     sync.RWMutex
	closed bool
}

// New opens (or creates) the store at cfg.Path, acquires the process lock,
// applies the schema, and probes for the vector extension to choose the
// search backend.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.InputError("database path is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, errors.InputError("embedding dimensions must be positive")
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}

	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to create data directory %s", dir), err)
	}

	lock := flock.New(cfg.Path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.IOError("failed to acquire store lock", err)
	}
	if !locked {
		return nil, errors.New(errors.ErrCodeStorageLocked,
			fmt.Sprintf("store at %s is locked by another process", cfg.Path), nil)
	}

	db, err := sql.Open(driverName, cfg.Path)
	if err != nil {
		_ = lock.Unlock()
		return nil, errors.New(errors.ErrCodeStorageOpen, "failed to open database", err)
	}

	// Single connection: one writer, no lock contention between the
	// indexing consumer and search reads.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, errors.New(errors.ErrCodeStorageOpen, "failed to set pragma", err)
		}
	}

	s := &Store{
		db:     db,
		lock:   lock,
		config: cfg,
	}

	if err := s.initSchema(); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, errors.New(errors.ErrCodeStorageOpen, "failed to initialize schema", err)
	}

	// Backend selection happens exactly once. A store that opened with
	// the fallback keeps it even if the extension appears later.
	if vssAvailable(db) {
		if err := s.initVectorIndex(); err != nil {
			slog.Warn("vector index unavailable, using fallback search", "error", err)
			s.backend = BackendFallback
		} else {
			s.backend = BackendIndexed
		}
	} else {
		s.backend = BackendFallback
	}

	slog.Info("store opened",
		"path", cfg.Path,
		"backend", s.backend,
		"dimensions", cfg.Dimensions)

	return s, nil
}

// initSchema creates the tables and indexes.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	-- One row per unique paragraph. content_hash is globally unique so
	-- identical paragraphs across documents share a single row.
	CREATE TABLE IF NOT EXISTS paragraphs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL,
		paragraph_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		content_hash TEXT NOT NULL UNIQUE,
		word_count INTEGER NOT NULL DEFAULT 0,
		char_count INTEGER NOT NULL DEFAULT 0,
		metadata TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_paragraphs_file_path ON paragraphs(file_path);

	CREATE TABLE IF NOT EXISTS embeddings (
		paragraph_id INTEGER PRIMARY KEY REFERENCES paragraphs(id) ON DELETE CASCADE,
		vector BLOB NOT NULL,
		dimensions INTEGER NOT NULL,
		model TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS file_hashes (
		file_path TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		indexed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// initVectorIndex creates the sqlite-vss virtual table and backfills it
// from stored embeddings so a reopened database searches everything.
func (s *Store) initVectorIndex() error {
	stmt := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vss_paragraphs USING vss0(vector(%d))`,
		s.config.Dimensions)
	if _, err := s.db.Exec(stmt); err != nil {
		return err
	}

	_, err := s.db.Exec(`
		INSERT INTO vss_paragraphs (rowid, vector)
		SELECT e.paragraph_id, e.vector
		FROM embeddings e
		WHERE e.paragraph_id NOT IN (SELECT rowid FROM vss_paragraphs)`)
	return err
}

// Backend reports which search implementation is active.
func (s *Store) Backend() BackendKind {
	return s.backend
}

// Dimensions returns the configured embedding dimension.
func (s *Store) Dimensions() int {
	return s.config.Dimensions
}

// checkOpen returns an error when the store has been closed.
func (s *Store) checkOpen() error {
	if s.closed {
		return errors.StorageError("store is closed", nil)
	}
	return nil
}

// Close checkpoints the WAL, closes the database, and releases the
// process lock. Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	err := s.db.Close()
	if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
		err = unlockErr
	}
	return err
}
