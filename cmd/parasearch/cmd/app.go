package cmd

import (
	"context"
	"log/slog"

	"github.com/parasearch/parasearch/internal/config"
	"github.com/parasearch/parasearch/internal/embed"
	"github.com/parasearch/parasearch/internal/logging"
	"github.com/parasearch/parasearch/internal/pipeline"
	"github.com/parasearch/parasearch/internal/segment"
	"github.com/parasearch/parasearch/internal/store"
)

// app bundles the wired components every command needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	embedder embed.Embedder
	pipe     *pipeline.Pipeline

	logCleanup func()
}

// newApp loads configuration and wires the store, embedder, and pipeline.
// Callers must Close the returned app.
func newApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Server.LogLevel
	if debugMode {
		logCfg.Level = "debug"
	}
	logger, logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	embedder, err := embed.NewEmbedder(ctx, embed.FactoryConfig{
		Provider:   embed.ProviderType(cfg.Embed.Provider),
		Model:      cfg.Embed.Model,
		OllamaHost: cfg.Embed.OllamaHost,
		Dimensions: cfg.Embed.Dimensions,
		Timeout:    cfg.Embed.Timeout,
		CacheSize:  cfg.Embed.CacheSize,
		Batching: embed.BatcherConfig{
			MinBatchSize: cfg.Embed.MinBatchSize,
			BatchSize:    cfg.Embed.BatchSize,
			MaxBatchSize: cfg.Embed.MaxBatchSize,
		},
	})
	if err != nil {
		logCleanup()
		return nil, err
	}

	st, err := store.New(store.Config{
		Path:                cfg.DatabasePath(),
		Dimensions:          embedder.Dimensions(),
		Model:               embedder.ModelName(),
		SimilarityThreshold: cfg.Search.SimilarityThreshold,
		MaxResults:          cfg.Search.MaxResults,
	})
	if err != nil {
		_ = embedder.Close()
		logCleanup()
		return nil, err
	}

	segmenter := segment.New(segment.Options{
		MinLength: cfg.Segment.MinParagraphLength,
		MaxLength: cfg.Segment.MaxParagraphLength,
		Overlap:   cfg.Segment.OverlapSize,
	})

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		embedder:   embedder,
		pipe:       pipeline.New(st, embedder, segmenter, logger),
		logCleanup: logCleanup,
	}, nil
}

// Close releases the app's resources in reverse construction order.
func (a *app) Close() {
	_ = a.store.Close()
	_ = a.embedder.Close()
	a.logCleanup()
}
