// Package pipeline turns source documents into indexed chunks. Each run
// hashes the file, skips unchanged content, segments the rest into
// paragraphs, embeds them, and swaps the document's chunks in the store
// atomically.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"time"

	"github.com/parasearch/parasearch/internal/embed"
	"github.com/parasearch/parasearch/internal/errors"
	"github.com/parasearch/parasearch/internal/segment"
	"github.com/parasearch/parasearch/internal/store"
)

// Status describes the outcome of processing one document.
type Status string

const (
	// StatusSuccess means the document's chunks were replaced.
	StatusSuccess Status = "success"

	// StatusSkippedUnchanged means the file hash matched the fingerprint.
	StatusSkippedUnchanged Status = "skipped:unchanged"

	// StatusSkippedNoContent means segmentation produced no paragraphs.
	// The fingerprint is left untouched so a later content change is
	// still detected.
	StatusSkippedNoContent Status = "skipped:no_content"

	// StatusErrorEmbedding means the embedding provider failed. The
	// previously indexed state is preserved.
	StatusErrorEmbedding Status = "error:embedding_failed"

	// StatusDeleted means the document's chunks were removed.
	StatusDeleted Status = "deleted"
)

// Result reports what happened to one document.
type Result struct {
	Path            string        `json:"path"`
	Status          Status        `json:"status"`
	ChunksProcessed int           `json:"chunks_processed"`
	Reason          string        `json:"reason,omitempty"`
	Duration        time.Duration `json:"duration"`
}

// Pipeline wires the segmenter, embedder, and store together.
type Pipeline struct {
	store     *store.Store
	embedder  embed.Embedder
	segmenter *segment.Segmenter
	logger    *slog.Logger
}

// New creates a pipeline. A nil logger uses the default.
func New(st *store.Store, embedder embed.Embedder, segmenter *segment.Segmenter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:     st,
		embedder:  embedder,
		segmenter: segmenter,
		logger:    logger,
	}
}

// Process indexes one document. With force false, a file whose hash
// matches the stored fingerprint is skipped without segmentation or
// embedding. An embedding failure is reported in the result, not as an
// error, and leaves the previously indexed chunks in place.
func (p *Pipeline) Process(ctx context.Context, path string, force bool) (Result, error) {
	start := time.Now()
	result := Result{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return result, errors.New(errors.ErrCodeFileNotFound, "file not found: "+path, err)
		}
		return result, errors.IOError("failed to read file: "+path, err)
	}

	sum := sha256.Sum256(data)
	fileHash := hex.EncodeToString(sum[:])

	if !force {
		stored, ok, err := p.store.GetFileHash(ctx, path)
		if err != nil {
			return result, err
		}
		if ok && stored == fileHash {
			result.Status = StatusSkippedUnchanged
			result.Duration = time.Since(start)
			p.logger.Debug("document unchanged", "path", path)
			return result, nil
		}
	}

	doc, err := p.segmenter.Segment(path, data)
	if err != nil {
		return result, err
	}
	if len(doc.Paragraphs) == 0 {
		result.Status = StatusSkippedNoContent
		result.Duration = time.Since(start)
		p.logger.Info("document has no indexable content", "path", path)
		return result, nil
	}

	texts := make([]string, len(doc.Paragraphs))
	for i, para := range doc.Paragraphs {
		texts[i] = para.Content
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		result.Status = StatusErrorEmbedding
		result.Reason = err.Error()
		result.Duration = time.Since(start)
		p.logger.Error("embedding failed, keeping previous index state",
			"path", path, "error", err)
		return result, nil
	}

	chunks := make([]store.Chunk, len(doc.Paragraphs))
	for i, para := range doc.Paragraphs {
		contentSum := sha256.Sum256([]byte(para.Content))
		chunks[i] = store.Chunk{
			Index:       para.Index,
			Content:     para.Content,
			ContentHash: hex.EncodeToString(contentSum[:]),
			WordCount:   para.WordCount,
			CharCount:   para.CharCount,
			Metadata:    doc.Metadata,
			Vector:      vectors[i],
		}
	}

	stored, err := p.store.ReplaceDocument(ctx, path, fileHash, chunks)
	if err != nil {
		return result, err
	}

	result.Status = StatusSuccess
	result.ChunksProcessed = stored
	result.Duration = time.Since(start)
	p.logger.Info("document indexed",
		"path", path,
		"chunks", stored,
		"duration", result.Duration)
	return result, nil
}

// ProcessDelete removes a document from the index. Unknown documents
// succeed with zero chunks removed.
func (p *Pipeline) ProcessDelete(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	result := Result{Path: path, Status: StatusDeleted}

	count, err := p.store.DeleteDocument(ctx, path)
	if err != nil {
		return result, err
	}

	result.ChunksProcessed = count
	result.Duration = time.Since(start)
	p.logger.Info("document removed from index", "path", path, "chunks", count)
	return result, nil
}
