// Package mcp exposes the index to AI clients over the Model Context
// Protocol. Tools cover watch management, explicit index updates,
// semantic search, and diagnostics.
package mcp

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/parasearch/parasearch/internal/config"
	"github.com/parasearch/parasearch/internal/embed"
	"github.com/parasearch/parasearch/internal/errors"
	"github.com/parasearch/parasearch/internal/pipeline"
	"github.com/parasearch/parasearch/internal/store"
	"github.com/parasearch/parasearch/internal/watcher"
	"github.com/parasearch/parasearch/pkg/version"
)

// Server bridges MCP clients with the store, pipeline, and watch manager.
type Server struct {
	mcp      *mcp.Server
	store    *store.Store
	pipe     *pipeline.Pipeline
	embedder embed.Embedder
	watch    *watcher.Manager
	config   *config.Config
	logger   *slog.Logger
}

// NewServer creates the MCP server and registers its tools.
func NewServer(st *store.Store, pipe *pipeline.Pipeline, embedder embed.Embedder, watch *watcher.Manager, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if st == nil {
		return nil, errors.InputError("store is required")
	}
	if pipe == nil {
		return nil, errors.InputError("pipeline is required")
	}
	if embedder == nil {
		return nil, errors.InputError("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:    st,
		pipe:     pipe,
		embedder: embedder,
		watch:    watch,
		config:   cfg,
		logger:   logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "parasearch",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "start_watch",
		Description: "Watch a directory for markdown and LaTeX changes. New and modified documents are indexed automatically; deleted documents leave the index.",
	}, s.handleStartWatch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "stop_watch",
		Description: "Stop watching a directory, or all directories when no path is given. Already indexed content stays searchable.",
	}, s.handleStopWatch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "update_file",
		Description: "Index one document now. Unchanged content is skipped unless force is set.",
	}, s.handleUpdateFile)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_file_index",
		Description: "Remove a document's chunks from the index. Removing an unindexed document succeeds with zero chunks.",
	}, s.handleDeleteFileIndex)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Semantic search over indexed paragraphs. Returns the most similar chunks with their source documents and similarity scores.",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "stats",
		Description: "Index statistics: chunk and document counts, active search backend, embedding model, and watch queue counters.",
	}, s.handleStats)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_watched",
		Description: "List the directories currently being watched.",
	}, s.handleListWatched)

	s.logger.Info("mcp tools registered", "count", 7)
}

func (s *Server) handleStartWatch(ctx context.Context, req *mcp.CallToolRequest, input StartWatchInput) (*mcp.CallToolResult, StartWatchOutput, error) {
	if strings.TrimSpace(input.Path) == "" {
		return nil, StartWatchOutput{}, errors.InputError("path is required")
	}
	if s.watch == nil {
		return nil, StartWatchOutput{}, errors.New(errors.ErrCodeInternal, "watch manager not running", nil)
	}

	info, err := s.watch.StartWatch(input.Path)
	if err != nil {
		return nil, StartWatchOutput{}, err
	}
	return nil, StartWatchOutput{Path: info.Path, FileCount: info.FileCount}, nil
}

func (s *Server) handleStopWatch(ctx context.Context, req *mcp.CallToolRequest, input StopWatchInput) (*mcp.CallToolResult, StopWatchOutput, error) {
	if s.watch == nil {
		return nil, StopWatchOutput{}, errors.New(errors.ErrCodeInternal, "watch manager not running", nil)
	}

	if strings.TrimSpace(input.Path) == "" {
		watched := s.watch.ListWatched()
		stopped := make([]string, 0, len(watched))
		for _, info := range watched {
			stopped = append(stopped, info.Path)
		}
		s.watch.StopAll()
		return nil, StopWatchOutput{Stopped: stopped}, nil
	}

	if err := s.watch.StopWatch(input.Path); err != nil {
		return nil, StopWatchOutput{}, err
	}
	return nil, StopWatchOutput{Stopped: []string{input.Path}}, nil
}

func (s *Server) handleUpdateFile(ctx context.Context, req *mcp.CallToolRequest, input UpdateFileInput) (*mcp.CallToolResult, UpdateFileOutput, error) {
	if strings.TrimSpace(input.Path) == "" {
		return nil, UpdateFileOutput{}, errors.InputError("path is required")
	}

	result, err := s.pipe.Process(ctx, input.Path, input.Force)
	if err != nil {
		return nil, UpdateFileOutput{}, err
	}
	return nil, UpdateFileOutput{
		Path:            result.Path,
		Status:          string(result.Status),
		ChunksProcessed: result.ChunksProcessed,
		Reason:          result.Reason,
	}, nil
}

func (s *Server) handleDeleteFileIndex(ctx context.Context, req *mcp.CallToolRequest, input DeleteFileIndexInput) (*mcp.CallToolResult, DeleteFileIndexOutput, error) {
	if strings.TrimSpace(input.Path) == "" {
		return nil, DeleteFileIndexOutput{}, errors.InputError("path is required")
	}

	result, err := s.pipe.ProcessDelete(ctx, input.Path)
	if err != nil {
		return nil, DeleteFileIndexOutput{}, err
	}
	return nil, DeleteFileIndexOutput{
		Path:          result.Path,
		ChunksRemoved: result.ChunksProcessed,
	}, nil
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	output := SearchOutput{
		Results: []SearchResultOutput{},
		Backend: string(s.store.Backend()),
	}

	// An empty query is answered, not rejected.
	if strings.TrimSpace(input.Query) == "" {
		return nil, output, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = s.config.Search.MaxResults
	}

	start := time.Now()
	vector, err := s.embedder.Embed(ctx, input.Query)
	if err != nil {
		return nil, output, errors.New(errors.ErrCodeEmbeddingFailed, "failed to embed query", err)
	}

	results, err := s.store.Search(ctx, vector, limit)
	if err != nil {
		return nil, output, err
	}

	for _, r := range results {
		output.Results = append(output.Results, SearchResultOutput{
			FilePath:       r.FilePath,
			ParagraphIndex: r.Index,
			Content:        r.Content,
			WordCount:      r.WordCount,
			Similarity:     r.Similarity,
			Metadata:       r.Metadata,
		})
	}

	s.logger.Debug("search served",
		"results", len(output.Results),
		"backend", output.Backend,
		"duration", time.Since(start))
	return nil, output, nil
}

func (s *Server) handleStats(ctx context.Context, req *mcp.CallToolRequest, input StatsInput) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}

	output := StatsOutput{
		TotalChunks:    stats.TotalChunks,
		TotalDocuments: stats.TotalDocuments,
		AvgWordCount:   stats.AvgWordCount,
		AvgCharCount:   stats.AvgCharCount,
		Backend:        string(stats.Backend),
		DatabaseBytes:  stats.DatabaseBytes,
		EmbeddingModel: s.embedder.ModelName(),
	}

	if s.watch != nil {
		ws := s.watch.Stats()
		output.WatchedDirectories = ws.WatchedDirectories
		output.QueueLength = ws.QueueLength
		output.EventsProcessed = ws.EventsProcessed
		output.EventsDropped = ws.EventsDropped
	}
	return nil, output, nil
}

func (s *Server) handleListWatched(ctx context.Context, req *mcp.CallToolRequest, input ListWatchedInput) (*mcp.CallToolResult, ListWatchedOutput, error) {
	output := ListWatchedOutput{Directories: []WatchedDirectory{}}
	if s.watch == nil {
		return nil, output, nil
	}

	for _, info := range s.watch.ListWatched() {
		output.Directories = append(output.Directories, WatchedDirectory{
			Path:      info.Path,
			FileCount: info.FileCount,
			Recursive: info.Recursive,
			Active:    info.Active,
			StartedAt: info.StartedAt.Format(time.RFC3339),
		})
	}
	return nil, output, nil
}

// Serve runs the server over the stdio transport until the context ends.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting mcp server", "transport", "stdio")

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("mcp server stopped with error", "error", err)
		return err
	}
	s.logger.Info("mcp server stopped")
	return nil
}
