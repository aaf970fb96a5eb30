package store

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/parasearch/parasearch/internal/errors"
)

// GetFileHash returns the fingerprint recorded for a document, or ok=false
// when the document has never been indexed.
func (s *Store) GetFileHash(ctx context.Context, filePath string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return "", false, err
	}

	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT content_hash FROM file_hashes WHERE file_path = ?`, filePath).Scan(&hash)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.StorageError("failed to read fingerprint", err)
	}
	return hash, true, nil
}

// SetFileHash records a document's fingerprint, replacing any previous one.
func (s *Store) SetFileHash(ctx context.Context, filePath, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_hashes (file_path, content_hash, indexed_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			indexed_at = excluded.indexed_at`,
		filePath, hash)
	if err != nil {
		return errors.New(errors.ErrCodeStorageWrite, "failed to record fingerprint", err)
	}
	return nil
}

// ListFingerprints returns all recorded fingerprints ordered by path.
func (s *Store) ListFingerprints(ctx context.Context) ([]Fingerprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT file_path, content_hash, indexed_at FROM file_hashes ORDER BY file_path`)
	if err != nil {
		return nil, errors.StorageError("failed to list fingerprints", err)
	}
	defer rows.Close()

	var fps []Fingerprint
	for rows.Next() {
		var fp Fingerprint
		if err := rows.Scan(&fp.FilePath, &fp.ContentHash, &fp.IndexedAt); err != nil {
			return nil, errors.StorageError("failed to scan fingerprint", err)
		}
		fps = append(fps, fp)
	}
	return fps, rows.Err()
}
