// Package embed provides vector embedding generation for paragraph text.
//
// Two providers are available: an Ollama HTTP provider for real semantic
// embeddings and a deterministic hash-based static provider that needs no
// external process. Both return unit-normalized vectors so a dot product
// equals cosine similarity. Wrappers add LRU caching and memory-adaptive
// batching around any provider.
package embed

import (
	"context"
	"math"
	"time"
)

// Batch size bounds for adaptive batching.
const (
	// MinBatchSize is the floor under memory pressure.
	MinBatchSize = 4

	// DefaultBatchSize is the default embedding batch size.
	DefaultBatchSize = 16

	// MaxBatchSize caps the batch size when memory is plentiful.
	MaxBatchSize = 32
)

// DefaultDimensions is the embedding dimension for all-MiniLM-class models.
const DefaultDimensions = 384

// DefaultTimeout bounds a single embedding request.
const DefaultTimeout = 60 * time.Second

// DefaultCacheSize is the default number of embeddings kept in the LRU cache.
const DefaultCacheSize = 1000

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available checks if the embedder is ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
