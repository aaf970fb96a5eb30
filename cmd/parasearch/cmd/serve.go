package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/parasearch/parasearch/internal/mcp"
	"github.com/parasearch/parasearch/internal/watcher"
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve [directories...]",
		Short: "Run the MCP server over stdio",
		Long: `Start the MCP server on standard input and output. Directories given
as arguments are watched from the start; clients can add more with the
start_watch tool.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), args)
		},
	}
}

// runServe wires the full stack: store, embedder, pipeline, watch
// manager, and the MCP server, then runs until interrupted.
func runServe(ctx context.Context, watchDirs []string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer app.Close()

	manager, err := watcher.NewManager(watcher.Config{
		Extensions:      app.cfg.Watch.Extensions,
		ExcludePatterns: app.cfg.Watch.ExcludePatterns,
		Debounce:        app.cfg.Watch.Debounce,
		MaxDirectories:  app.cfg.Watch.MaxDirectories,
		Recursive:       app.cfg.Watch.Recursive,
		QueueSize:       app.cfg.Watch.QueueSize,
	}, app.pipe, app.logger)
	if err != nil {
		return err
	}
	defer func() { _ = manager.Close() }()

	if err := manager.Start(ctx); err != nil {
		return err
	}
	for _, dir := range watchDirs {
		if _, err := manager.StartWatch(dir); err != nil {
			return err
		}
	}

	server, err := mcp.NewServer(app.store, app.pipe, app.embedder, manager, app.cfg, app.logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		manager.StopAll()
		return nil
	})

	err = g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}
