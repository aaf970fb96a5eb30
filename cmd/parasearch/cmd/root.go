// Package cmd provides the CLI commands for parasearch.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/parasearch/parasearch/pkg/version"
)

var (
	cfgFile   string
	debugMode bool
)

// NewRootCmd creates the root command for the parasearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parasearch",
		Short: "Incremental semantic index for markdown and LaTeX notes",
		Long: `Parasearch keeps a paragraph-level semantic index of your markdown
and LaTeX documents. Watched directories are re-indexed as files change,
and the index is served to AI assistants over the Model Context Protocol.

Run 'parasearch serve' to expose the index to an MCP client, or use the
update/search subcommands directly from the shell.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), args)
		},
	}

	cmd.SetVersionTemplate("parasearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default: ~/.parasearch/config.yaml)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
