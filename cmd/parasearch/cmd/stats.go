package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/parasearch/parasearch/internal/ui"
)

// newStatsCmd creates the stats command.
func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			ui.NewPrinter(cmd.OutOrStdout()).Stats(stats, app.embedder.ModelName(), nil)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output stats as JSON")
	return cmd
}
