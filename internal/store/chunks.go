package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/parasearch/parasearch/internal/errors"
)

// ReplaceDocument atomically replaces every chunk of a document. The old
// chunks are removed, the new ones inserted, and the fingerprint updated,
// all in one transaction: a crash leaves either the previous state or the
// new one, never a mix.
//
// Chunks whose content already exists elsewhere in the store are
// reassigned to this document rather than duplicated. The returned count
// is the number of rows the document now owns, so repeated paragraph
// text within one document counts once.
func (s *Store) ReplaceDocument(ctx context.Context, filePath, fileHash string, chunks []Chunk) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	for i := range chunks {
		if len(chunks[i].Vector) != s.config.Dimensions {
			return 0, errors.New(errors.ErrCodeDimensionMismatch,
				fmt.Sprintf("chunk %d has %d dimensions, store expects %d",
					i, len(chunks[i].Vector), s.config.Dimensions), nil)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.New(errors.ErrCodeStorageWrite, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.removeDocumentTx(ctx, tx, filePath); err != nil {
		return 0, err
	}

	stored := make(map[int64]struct{}, len(chunks))
	for i := range chunks {
		if err := s.insertChunkTx(ctx, tx, filePath, &chunks[i]); err != nil {
			return 0, err
		}
		stored[chunks[i].ID] = struct{}{}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO file_hashes (file_path, content_hash, indexed_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			indexed_at = excluded.indexed_at`,
		filePath, fileHash)
	if err != nil {
		return 0, errors.New(errors.ErrCodeStorageWrite, "failed to record fingerprint", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.New(errors.ErrCodeStorageWrite, "failed to commit document replace", err)
	}
	return len(stored), nil
}

// removeDocumentTx deletes a document's chunks within a transaction.
// Embeddings follow via cascade; the vector index is cleaned explicitly.
func (s *Store) removeDocumentTx(ctx context.Context, tx *sql.Tx, filePath string) error {
	if s.backend == BackendIndexed {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM vss_paragraphs
			WHERE rowid IN (SELECT id FROM paragraphs WHERE file_path = ?)`,
			filePath)
		if err != nil {
			return errors.New(errors.ErrCodeStorageWrite, "failed to clear vector index", err)
		}
	}

	_, err := tx.ExecContext(ctx, `DELETE FROM paragraphs WHERE file_path = ?`, filePath)
	if err != nil {
		return errors.New(errors.ErrCodeStorageWrite, "failed to delete chunks", err)
	}
	return nil
}

// insertChunkTx inserts one chunk and its embedding. A content hash that
// already exists is taken over: the row moves to this document and keeps
// its id, so the store never holds two copies of the same paragraph.
func (s *Store) insertChunkTx(ctx context.Context, tx *sql.Tx, filePath string, chunk *Chunk) error {
	var metadata []byte
	if len(chunk.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(chunk.Metadata)
		if err != nil {
			return errors.New(errors.ErrCodeStorageWrite, "failed to encode metadata", err)
		}
	}

	var id int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO paragraphs (file_path, paragraph_index, content, content_hash, word_count, char_count, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(content_hash) DO UPDATE SET
			file_path = excluded.file_path,
			paragraph_index = excluded.paragraph_index,
			word_count = excluded.word_count,
			char_count = excluded.char_count,
			metadata = excluded.metadata,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id`,
		filePath, chunk.Index, chunk.Content, chunk.ContentHash,
		chunk.WordCount, chunk.CharCount, metadata).Scan(&id)
	if err != nil {
		return errors.New(errors.ErrCodeStorageWrite, "failed to insert chunk", err)
	}
	chunk.ID = id
	chunk.FilePath = filePath

	vectorBlob := encodeVector(chunk.Vector)
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO embeddings (paragraph_id, vector, dimensions, model)
		VALUES (?, ?, ?, ?)`,
		id, vectorBlob, len(chunk.Vector), s.config.Model)
	if err != nil {
		return errors.New(errors.ErrCodeStorageWrite, "failed to insert embedding", err)
	}

	if s.backend == BackendIndexed {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM vss_paragraphs WHERE rowid = ?`, id); err != nil {
			return errors.New(errors.ErrCodeStorageWrite, "failed to refresh vector index", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vss_paragraphs (rowid, vector) VALUES (?, ?)`, id, vectorBlob); err != nil {
			return errors.New(errors.ErrCodeStorageWrite, "failed to index vector", err)
		}
	}
	return nil
}

// DeleteDocument removes every chunk and the fingerprint of a document.
// Deleting an unknown document is not an error; the count is 0.
func (s *Store) DeleteDocument(ctx context.Context, filePath string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.New(errors.ErrCodeStorageWrite, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM paragraphs WHERE file_path = ?`, filePath).Scan(&count); err != nil {
		return 0, errors.StorageError("failed to count chunks", err)
	}

	if err := s.removeDocumentTx(ctx, tx, filePath); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM file_hashes WHERE file_path = ?`, filePath); err != nil {
		return 0, errors.New(errors.ErrCodeStorageWrite, "failed to delete fingerprint", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.New(errors.ErrCodeStorageWrite, "failed to commit document delete", err)
	}
	return count, nil
}

// DocumentChunks returns a document's chunks ordered by paragraph index.
func (s *Store) DocumentChunks(ctx context.Context, filePath string) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_path, paragraph_index, content, content_hash, word_count, char_count, metadata
		FROM paragraphs
		WHERE file_path = ?
		ORDER BY paragraph_index`, filePath)
	if err != nil {
		return nil, errors.StorageError("failed to query chunks", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// scanChunk reads one chunk row, decoding its metadata JSON.
func scanChunk(rows *sql.Rows) (Chunk, error) {
	var chunk Chunk
	var metadata sql.NullString
	err := rows.Scan(&chunk.ID, &chunk.FilePath, &chunk.Index, &chunk.Content,
		&chunk.ContentHash, &chunk.WordCount, &chunk.CharCount, &metadata)
	if err != nil {
		return Chunk{}, errors.StorageError("failed to scan chunk", err)
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &chunk.Metadata); err != nil {
			return Chunk{}, errors.StorageError("failed to decode chunk metadata", err)
		}
	}
	return chunk, nil
}
