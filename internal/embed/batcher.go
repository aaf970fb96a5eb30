package embed

import (
	"context"
	"fmt"
	"log/slog"
)

// BatcherConfig bounds the adaptive batch size.
type BatcherConfig struct {
	// MinBatchSize is the floor under memory pressure.
	MinBatchSize int
	// BatchSize is the size used under moderate memory availability.
	BatchSize int
	// MaxBatchSize is the cap when memory is plentiful.
	MaxBatchSize int
}

// DefaultBatcherConfig returns the default batch bounds.
func DefaultBatcherConfig() BatcherConfig {
	return BatcherConfig{
		MinBatchSize: MinBatchSize,
		BatchSize:    DefaultBatchSize,
		MaxBatchSize: MaxBatchSize,
	}
}

// AdaptiveBatcher wraps an Embedder and splits EmbedBatch calls into
// sub-batches sized from currently available system memory. Smaller batches
// are used under pressure; the size is re-evaluated before each sub-batch so
// long runs adapt as conditions change. Results are identical to a single
// full-size call.
type AdaptiveBatcher struct {
	inner  Embedder
	config BatcherConfig

	// memFunc is swapped in tests to simulate memory pressure.
	memFunc func() uint64
}

// Verify interface implementation at compile time.
var _ Embedder = (*AdaptiveBatcher)(nil)

// NewAdaptiveBatcher creates an adaptive batching wrapper around inner.
func NewAdaptiveBatcher(inner Embedder, cfg BatcherConfig) *AdaptiveBatcher {
	if cfg.MinBatchSize <= 0 {
		cfg.MinBatchSize = MinBatchSize
	}
	if cfg.BatchSize < cfg.MinBatchSize {
		cfg.BatchSize = cfg.MinBatchSize
	}
	if cfg.MaxBatchSize < cfg.BatchSize {
		cfg.MaxBatchSize = cfg.BatchSize
	}
	return &AdaptiveBatcher{
		inner:   inner,
		config:  cfg,
		memFunc: availableMemory,
	}
}

// Embed generates an embedding for a single text.
func (b *AdaptiveBatcher) Embed(ctx context.Context, text string) ([]float32, error) {
	return b.inner.Embed(ctx, text)
}

// EmbedBatch generates embeddings for texts in memory-bounded sub-batches.
func (b *AdaptiveBatcher) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		size := batchSizeFor(len(texts)-start,
			b.config.MinBatchSize, b.config.BatchSize, b.config.MaxBatchSize,
			b.memFunc())

		end := start + size
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := b.inner.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), end-start)
		}

		results = append(results, batch...)

		if size < b.config.BatchSize {
			slog.Debug("embedding under memory pressure",
				slog.Int("batch_size", size),
				slog.Int("completed", end),
				slog.Int("total", len(texts)))
		}

		start = end
	}

	return results, nil
}

// Dimensions returns the embedding dimension.
func (b *AdaptiveBatcher) Dimensions() int { return b.inner.Dimensions() }

// ModelName returns the model identifier.
func (b *AdaptiveBatcher) ModelName() string { return b.inner.ModelName() }

// Available checks if the embedder is ready.
func (b *AdaptiveBatcher) Available(ctx context.Context) bool { return b.inner.Available(ctx) }

// Close releases resources.
func (b *AdaptiveBatcher) Close() error { return b.inner.Close() }
