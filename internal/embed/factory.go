package embed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ProviderType represents an embedding provider.
type ProviderType string

const (
	// ProviderOllama uses the Ollama API for embeddings (default).
	ProviderOllama ProviderType = "ollama"

	// ProviderStatic uses hash-based embeddings (no external dependency).
	ProviderStatic ProviderType = "static"
)

// FactoryConfig carries the settings needed to construct the embedder chain.
type FactoryConfig struct {
	Provider   ProviderType
	Model      string
	OllamaHost string
	Dimensions int
	Timeout    time.Duration

	// CacheSize for the LRU embedding cache; 0 uses the default,
	// negative disables caching.
	CacheSize int

	// Batching for the adaptive batcher wrapper.
	Batching BatcherConfig
}

// NewEmbedder creates the embedder chain for a provider: the concrete
// provider wrapped in an adaptive batcher and an LRU cache.
//
// When the provider is ollama and the endpoint is unreachable, the factory
// falls back to the static embedder with a warning rather than failing,
// so indexing keeps working offline. An unknown provider is an error.
func NewEmbedder(ctx context.Context, cfg FactoryConfig) (Embedder, error) {
	var inner Embedder

	switch ProviderType(strings.ToLower(string(cfg.Provider))) {
	case ProviderOllama, "":
		ollama, err := NewOllamaEmbedder(ctx, OllamaConfig{
			Host:       cfg.OllamaHost,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout,
		})
		if err != nil {
			slog.Warn("ollama unavailable, falling back to static embeddings",
				"host", cfg.OllamaHost,
				"model", cfg.Model,
				"error", err)
			inner = NewStaticEmbedder(cfg.Dimensions)
		} else {
			inner = ollama
		}

	case ProviderStatic:
		inner = NewStaticEmbedder(cfg.Dimensions)

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}

	var embedder Embedder = NewAdaptiveBatcher(inner, cfg.Batching)

	if cfg.CacheSize >= 0 {
		embedder = NewCachedEmbedder(embedder, cfg.CacheSize)
	}

	return embedder, nil
}
