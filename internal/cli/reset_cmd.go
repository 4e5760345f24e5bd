package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reflectlab/unmask/internal/cli/formatter"
)

func newResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the saved local exercise and start over",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store != nil {
				if err := app.Store.Delete(cmd.Context(), localSessionID); err != nil {
					return fmt.Errorf("clearing saved exercise: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Saved exercise cleared."))
			return nil
		},
	}
}
