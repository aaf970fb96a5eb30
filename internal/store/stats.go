package store

import (
	"context"
	"os"

	"github.com/parasearch/parasearch/internal/errors"
)

// Stats reports aggregate counts over the stored chunks and documents.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return Stats{}, err
	}

	stats := Stats{Backend: s.backend}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT file_path),
		       COALESCE(AVG(word_count), 0),
		       COALESCE(AVG(char_count), 0)
		FROM paragraphs`).Scan(
		&stats.TotalChunks, &stats.TotalDocuments,
		&stats.AvgWordCount, &stats.AvgCharCount)
	if err != nil {
		return Stats{}, errors.StorageError("failed to compute stats", err)
	}

	if info, err := os.Stat(s.config.Path); err == nil {
		stats.DatabaseBytes = info.Size()
	}

	return stats, nil
}
