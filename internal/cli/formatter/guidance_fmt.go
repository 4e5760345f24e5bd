package formatter

import (
	"fmt"
	"strings"

	"github.com/reflectlab/unmask/internal/exercise"
)

// FormatStep renders the prompt block shown before the user answers a
// step: position, question, helper, and the worked example when present.
func FormatStep(st exercise.Step, index int) string {
	var b strings.Builder
	b.WriteString(Dim(fmt.Sprintf("Step %d of %d", index+1, exercise.StepCount)) + "\n")
	b.WriteString(Header(st.Title))
	b.WriteString("\n" + Bold(st.Question) + "\n")
	if st.Helper != "" {
		b.WriteString(Dim(st.Helper) + "\n")
	}
	if st.Example != "" {
		b.WriteString("\n" + StyleBlue.Render("Example: ") + Dim(st.Example) + "\n")
	}
	return b.String()
}

// FormatGuidance renders the model's guidance panel: the paragraph, the
// hint bullets, and any identity suggestions with their reasons.
func FormatGuidance(g exercise.Guidance) string {
	var b strings.Builder

	if g.Guidance != "" {
		b.WriteString(StyleGreen.Render("✦") + " " + g.Guidance + "\n")
	}
	for _, hint := range g.HintBullets {
		b.WriteString("  " + StyleDim.Render("•") + " " + hint + "\n")
	}
	if len(g.Suggestions) > 0 {
		b.WriteString("\n" + StyleBlue.Render("Possible matches") + "\n")
		for _, s := range g.Suggestions {
			b.WriteString("  " + Bold(s.Title) + " " + Dim("("+s.IdentityID+")") + "\n")
			if s.Reason != "" {
				b.WriteString("    " + Dim(s.Reason) + "\n")
			}
		}
	}
	return b.String()
}

// FormatSummary renders the closing recap after the identity choice.
func FormatSummary(st exercise.State) string {
	var b strings.Builder
	b.WriteString(Header("Your exercise"))
	b.WriteString("\n")

	rows := []struct{ label, value string }{
		{"Complaint", st.Answers.Complaint},
		{"Reaction", st.Answers.Reaction},
		{"Vulnerable feeling", st.Answers.VulnerableFeeling},
		{"Belief", st.Answers.Belief},
		{"Fear", st.Answers.Fear},
	}
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		b.WriteString(Dim(row.label+": ") + row.value + "\n")
	}
	if st.SelectedTitle != "" {
		b.WriteString("\n" + Bold("False identity: ") + StyleHeader.Render(st.SelectedTitle) + "\n")
	}
	return b.String()
}
