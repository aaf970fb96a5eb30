package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

// newUpdateCmd creates the update command.
func newUpdateCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "update <file> [files...]",
		Short: "Index documents now",
		Long: `Index one or more documents immediately. Files whose content is
unchanged since the last run are skipped unless --force is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			var failed int
			for _, arg := range args {
				path, err := filepath.Abs(arg)
				if err != nil {
					return err
				}

				result, err := app.pipe.Process(cmd.Context(), path, force)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s: error: %v\n", path, err)
					continue
				}

				switch {
				case result.Reason != "":
					fmt.Fprintf(out, "%s: %s (%s)\n", path, result.Status, result.Reason)
				case result.ChunksProcessed > 0:
					fmt.Fprintf(out, "%s: %s (%d chunks)\n", path, result.Status, result.ChunksProcessed)
				default:
					fmt.Fprintf(out, "%s: %s\n", path, result.Status)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reindex even when content is unchanged")
	return cmd
}
