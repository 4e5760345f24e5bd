package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"github.com/reflectlab/unmask/internal/cli/formatter"
	"github.com/reflectlab/unmask/internal/exercise"
)

func newExerciseCmd(app *App) *cobra.Command {
	var startOver bool

	cmd := &cobra.Command{
		Use:   "exercise",
		Short: "Run the guided six-step questionnaire",
		Long:  "Walk through the six-step exercise interactively. Progress is saved after every step, so you can quit and resume later.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive != nil && !app.IsInteractive() {
				return errors.New("the exercise needs an interactive terminal")
			}
			return runExercise(cmd.Context(), cmd, app, startOver)
		},
	}

	cmd.Flags().BoolVar(&startOver, "reset", false, "discard saved progress and start over")
	return cmd
}

func runExercise(ctx context.Context, cmd *cobra.Command, app *App, startOver bool) error {
	sess := exercise.NewSession(localSessionID, app.Guide, app.Store)
	sess.Restore(ctx)
	if startOver {
		sess.Reset(ctx)
	}
	out := cmd.OutOrStdout()

	if st := sess.State(); st.Answers.HasProgress() && !st.Complete() {
		fmt.Fprintln(out, formatter.Dim("Resuming your saved exercise. Run \"unmask reset\" to start over."))
		fmt.Fprintln(out)
	}

	for {
		st := sess.State()

		if st.Complete() {
			fmt.Fprint(out, formatter.FormatSummary(st))
			return nil
		}

		if st.Status == exercise.StatusReady {
			fmt.Fprint(out, formatter.FormatGuidance(exercise.Guidance{
				Guidance:    st.Guidance,
				HintBullets: st.HintBullets,
				Suggestions: st.Suggestions,
			}))
			fmt.Fprintln(out)
		}
		if st.ErrMsg != "" {
			fmt.Fprintln(out, formatter.StyleYellow.Render(st.ErrMsg))
			fmt.Fprintln(out)

			retry, err := confirmRetry(ctx)
			if err != nil {
				return err
			}
			if retry {
				if err := withSpinner(ctx, func() error { return sess.RetryGuidance(ctx) }); err != nil {
					return err
				}
				continue
			}
		}

		if st.StepIndex == exercise.TerminalIndex {
			if err := chooseIdentity(ctx, app, sess, st); err != nil {
				return err
			}
			continue
		}

		if err := answerStep(ctx, out, sess, st.StepIndex); err != nil {
			return err
		}
	}
}

// answerStep prompts for one free-text answer and submits it, running the
// guidance call behind a spinner.
func answerStep(ctx context.Context, out io.Writer, sess *exercise.Session, stepIndex int) error {
	step := exercise.StepAt(stepIndex)
	fmt.Fprint(out, formatter.FormatStep(step, stepIndex))
	fmt.Fprintln(out)

	var answer string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(step.Question).
			Description(step.Helper).
			Placeholder(step.Placeholder).
			Value(&answer).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("please write something")
				}
				return nil
			}),
	)).WithTheme(unmaskHuhTheme()).WithShowHelp(false)
	if err := form.RunWithContext(ctx); err != nil {
		return err
	}

	return withSpinner(ctx, func() error { return sess.SubmitAnswer(ctx, answer) })
}

// withSpinner runs the guidance call behind an animated spinner.
func withSpinner(ctx context.Context, call func() error) error {
	var callErr error
	err := spinner.New().
		Title("Generating guidance...").
		Context(ctx).
		Action(func() { callErr = call() }).
		Run()
	if err != nil {
		return err
	}
	return callErr
}

func confirmRetry(ctx context.Context) (bool, error) {
	var retry bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Try generating guidance again?").
			Affirmative("Retry").
			Negative("Keep going").
			Value(&retry),
	)).WithTheme(unmaskHuhTheme()).WithShowHelp(false)
	if err := form.RunWithContext(ctx); err != nil {
		return false, err
	}
	return retry, nil
}

// chooseIdentity runs the terminal choice step. Suggested identities come
// first; the rest of the library follows so the user is never locked into
// the model's picks.
func chooseIdentity(ctx context.Context, app *App, sess *exercise.Session, st exercise.State) error {
	var options []huh.Option[string]
	seen := map[string]bool{}
	for _, s := range st.Suggestions {
		options = append(options, huh.NewOption("★ "+s.Title, s.IdentityID))
		seen[s.IdentityID] = true
	}
	for _, rec := range app.Dataset.Identities {
		if !seen[rec.ID] {
			options = append(options, huh.NewOption(rec.Title, rec.ID))
		}
	}

	var chosen string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title(exercise.StepAt(exercise.TerminalIndex).Question).
			Description(exercise.StepAt(exercise.TerminalIndex).Helper).
			Options(options...).
			Value(&chosen),
	)).WithTheme(unmaskHuhTheme()).WithShowHelp(false)
	if err := form.RunWithContext(ctx); err != nil {
		return err
	}

	title := chosen
	if rec, ok := app.Dataset.Lookup(chosen); ok {
		title = rec.Title
	}
	return sess.SelectIdentity(ctx, chosen, title)
}
