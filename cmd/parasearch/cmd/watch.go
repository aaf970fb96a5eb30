package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parasearch/parasearch/internal/watcher"
)

// newWatchCmd creates the watch command.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <directory> [directories...]",
		Short: "Watch directories and keep the index current",
		Long: `Watch one or more directories without starting the MCP server.
Changed documents are re-indexed until the process is interrupted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
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
			for _, dir := range args {
				info, err := manager.StartWatch(dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "watching %s (%d files)\n", info.Path, info.FileCount)
			}

			<-ctx.Done()
			manager.StopAll()
			return nil
		},
	}
}
