package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/parasearch/parasearch/internal/ui"
)

// newSearchCmd creates the search command.
func newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the index from the shell",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			printer := ui.NewPrinter(cmd.OutOrStdout())

			app, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return err
			}
			defer app.Close()

			if limit <= 0 {
				limit = app.cfg.Search.MaxResults
			}

			vector, err := app.embedder.Embed(cmd.Context(), query)
			if err != nil {
				return err
			}

			results, err := app.store.Search(cmd.Context(), vector, limit)
			if err != nil {
				return err
			}

			printer.SearchResults(query, results, app.store.Backend())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results")
	return cmd
}
