package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/parasearch/parasearch/internal/errors"
)

// Search returns the chunks most similar to the query vector, best first.
// Ties are broken by ascending chunk id so identical scores always come
// back in the same order.
//
// The two backends differ deliberately in filtering. The fallback scan
// drops results below the similarity threshold; the indexed backend
// returns its nearest neighbors as-is, the way the vector extension
// ranks them.
func (s *Store) Search(ctx context.Context, query []float32, limit int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	if limit <= 0 {
		return nil, errors.InputError("search limit must be positive")
	}
	if limit > s.config.MaxResults {
		limit = s.config.MaxResults
	}
	if len(query) != s.config.Dimensions {
		return nil, errors.New(errors.ErrCodeDimensionMismatch,
			fmt.Sprintf("query has %d dimensions, store expects %d",
				len(query), s.config.Dimensions), nil)
	}

	if s.backend == BackendIndexed {
		return s.searchIndexed(ctx, query, limit)
	}
	return s.searchFallback(ctx, query, limit)
}

// searchIndexed queries the sqlite-vss virtual table. The extension
// reports squared L2 distance; for unit vectors that maps to cosine
// similarity as 1 - d/2.
func (s *Store) searchIndexed(ctx context.Context, query []float32, limit int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.rowid, v.distance,
		       p.file_path, p.paragraph_index, p.content, p.content_hash,
		       p.word_count, p.char_count, p.metadata
		FROM vss_paragraphs v
		JOIN paragraphs p ON p.id = v.rowid
		WHERE vss_search(v.vector, ?)
		LIMIT ?`,
		encodeVector(query), limit)
	if err != nil {
		return nil, errors.StorageError("vector index search failed", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var distance float64
		var metadata sql.NullString
		err := rows.Scan(&r.ID, &distance, &r.FilePath, &r.Index, &r.Content,
			&r.ContentHash, &r.WordCount, &r.CharCount, &metadata)
		if err != nil {
			return nil, errors.StorageError("failed to scan search result", err)
		}
		r.Similarity = 1 - distance/2
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &r.Metadata); err != nil {
				return nil, errors.StorageError("failed to decode result metadata", err)
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError("vector index search failed", err)
	}

	sortResults(results)
	return results, nil
}

// searchFallback scans every stored vector and ranks by dot product,
// which equals cosine similarity for unit-normalized vectors. Results
// below the similarity threshold are dropped.
func (s *Store) searchFallback(ctx context.Context, query []float32, limit int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.file_path, p.paragraph_index, p.content, p.content_hash,
		       p.word_count, p.char_count, p.metadata, e.vector
		FROM paragraphs p
		JOIN embeddings e ON e.paragraph_id = p.id`)
	if err != nil {
		return nil, errors.StorageError("fallback search failed", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var metadata sql.NullString
		var blob []byte
		err := rows.Scan(&r.ID, &r.FilePath, &r.Index, &r.Content, &r.ContentHash,
			&r.WordCount, &r.CharCount, &metadata, &blob)
		if err != nil {
			return nil, errors.StorageError("failed to scan search result", err)
		}

		vec, err := decodeVector(blob)
		if err != nil {
			return nil, errors.StorageError("corrupt embedding blob", err)
		}
		if len(vec) != len(query) {
			continue
		}

		r.Similarity = dotProduct(query, vec)
		if r.Similarity < s.config.SimilarityThreshold {
			continue
		}

		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &r.Metadata); err != nil {
				return nil, errors.StorageError("failed to decode result metadata", err)
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError("fallback search failed", err)
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// sortResults orders by similarity descending, then chunk id ascending.
func sortResults(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})
}
