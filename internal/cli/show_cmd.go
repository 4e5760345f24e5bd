package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reflectlab/unmask/internal/cli/formatter"
)

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one identity record in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, ok := app.Dataset.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown identity %q (try \"unmask search\")", args[0])
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatIdentity(rec))
			return nil
		},
	}
}
