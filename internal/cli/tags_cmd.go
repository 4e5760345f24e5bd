package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reflectlab/unmask/internal/cli/formatter"
)

func newTagsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List the distinct tags across the identity library",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTags(app.Dataset.Tags()))
			return nil
		},
	}
}
