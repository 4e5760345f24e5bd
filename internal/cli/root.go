// Package cli implements the unmask command tree: the HTTP server, the
// interactive questionnaire, and the library browsing commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/reflectlab/unmask/internal/exercise"
	"github.com/reflectlab/unmask/internal/identity"
	"github.com/reflectlab/unmask/internal/search"
)

// App holds the wired components used by CLI commands.
type App struct {
	Dataset *identity.Dataset
	Index   *search.Index
	Guide   exercise.Guide
	Store   exercise.SnapshotStore

	// IsInteractive reports whether stdin is attached to a terminal.
	// The questionnaire refuses to run without one.
	IsInteractive func() bool
}

// localSessionID keys the single local questionnaire session in the
// snapshot store.
const localSessionID = "local"

// NewRootCmd creates the top-level "unmask" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "unmask",
		Short: "Guided self-reflection exercise for uncovering a false identity",
	}

	root.AddCommand(
		newServeCmd(app),
		newExerciseCmd(app),
		newSearchCmd(app),
		newShowCmd(app),
		newTagsCmd(app),
		newResetCmd(app),
	)

	return root
}
