package formatter

import (
	"fmt"
	"strings"

	"github.com/reflectlab/unmask/internal/identity"
	"github.com/reflectlab/unmask/internal/search"
)

// FormatIdentity renders a full identity record for the terminal.
func FormatIdentity(rec *identity.Identity) string {
	var b strings.Builder

	b.WriteString(Header(rec.Title))
	b.WriteString("\n")
	if len(rec.Aka) > 0 {
		b.WriteString(Dim("also known as: "+strings.Join(rec.Aka, ", ")) + "\n")
	}
	if len(rec.Tags) > 0 {
		b.WriteString(Dim("tags: "+strings.Join(rec.Tags, ", ")) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(Bold("True identity: ") + StyleGreen.Render(rec.TrueIdentity) + "\n")

	section(&b, "How it shows up", rec.Sections.HowItShowsUp)
	section(&b, "Effect on others", rec.Sections.EffectOnOthers)
	section(&b, "Beliefs about others", rec.Sections.BeliefsAboutOthers)
	section(&b, "Beliefs about life", rec.Sections.BeliefsAboutLife)
	section(&b, "Self-reinforcing behaviors", rec.Sections.SelfReinforcingBehaviors)
	section(&b, "Skills to cultivate", rec.Sections.SkillsToCultivate)
	section(&b, "Gifts", rec.Sections.Gifts)
	section(&b, "Deeper truth statements", rec.Sections.DeeperTruthStatements)

	if len(rec.RelatedIDs) > 0 {
		b.WriteString("\n" + Dim("related: "+strings.Join(rec.RelatedIDs, ", ")) + "\n")
	}
	return b.String()
}

func section(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n" + StyleBlue.Render(title) + "\n")
	for _, item := range items {
		b.WriteString("  " + StyleDim.Render("•") + " " + item + "\n")
	}
}

// FormatHits renders ranked search results, one per line.
func FormatHits(hits []search.Hit) string {
	if len(hits) == 0 {
		return Dim("no matches") + "\n"
	}
	var b strings.Builder
	for i, h := range hits {
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			Dim(fmt.Sprintf("%2d.", i+1)),
			Bold(h.Title),
			Dim("("+h.ID+")")))
	}
	return b.String()
}

// FormatTags renders the distinct tag list.
func FormatTags(tags []string) string {
	var b strings.Builder
	for _, tag := range tags {
		b.WriteString("  " + StyleDim.Render("•") + " " + tag + "\n")
	}
	return b.String()
}
