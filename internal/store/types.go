// Package store persists paragraph chunks, their embeddings, and document
// fingerprints in SQLite, and answers similarity queries over them.
//
// Two search backends exist. When the sqlite-vss extension loads, queries
// run against its vector index. Otherwise a brute-force cosine scan over
// all stored vectors serves as the fallback. The backend is chosen once
// when the store opens and never changes for the lifetime of the process.
package store

import (
	"time"
)

// BackendKind identifies which similarity search implementation is active.
type BackendKind string

const (
	// BackendIndexed uses the sqlite-vss vector index.
	BackendIndexed BackendKind = "indexed"

	// BackendFallback scans all vectors and ranks by cosine similarity.
	BackendFallback BackendKind = "fallback"
)

// Chunk is one stored paragraph with its position in the source document.
type Chunk struct {
	// ID is the database row id, assigned on insert.
	ID int64

	// FilePath is the absolute path of the source document.
	FilePath string

	// Index is the paragraph's ordinal position within the document.
	Index int

	// Content is the cleaned paragraph text.
	Content string

	// ContentHash is a hex SHA-256 of Content. Unique across the whole
	// store: identical paragraphs in different documents collapse into
	// one row.
	ContentHash string

	WordCount int
	CharCount int

	// Metadata carries document-level attributes (title, author, type).
	Metadata map[string]string

	// Vector is the unit-normalized embedding. Populated on write and by
	// search, not by plain chunk reads.
	Vector []float32
}

// SearchResult is a chunk together with its similarity to the query.
type SearchResult struct {
	Chunk
	Similarity float64
}

// Stats summarizes the contents of the store.
type Stats struct {
	TotalChunks    int64       `json:"total_chunks"`
	TotalDocuments int64       `json:"total_documents"`
	AvgWordCount   float64     `json:"avg_word_count"`
	AvgCharCount   float64     `json:"avg_char_count"`
	Backend        BackendKind `json:"backend"`
	DatabaseBytes  int64       `json:"database_bytes"`
}

// Fingerprint records the last indexed content hash of a document.
type Fingerprint struct {
	FilePath    string
	ContentHash string
	IndexedAt   time.Time
}
