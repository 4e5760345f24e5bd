package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reflectlab/unmask/internal/cli/formatter"
	"github.com/reflectlab/unmask/internal/search"
)

func newSearchCmd(app *App) *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search the identity library",
		Long:  "Search the identity library with fuzzy and prefix matching. Without a query, lists every identity.",
		RunE: func(cmd *cobra.Command, args []string) error {
			hits, err := app.listIdentities(strings.Join(args, " "), tag)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHits(hits))
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "only show identities carrying this tag")
	return cmd
}

// listIdentities applies the shared listing contract: a blank query yields
// the full library in dataset order, anything else goes through the index.
// The tag filter intersects either way.
func (app *App) listIdentities(query, tag string) ([]search.Hit, error) {
	if strings.TrimSpace(query) == "" {
		var hits []search.Hit
		for _, rec := range app.Dataset.Identities {
			if tag != "" && !app.Dataset.HasTag(rec.ID, tag) {
				continue
			}
			hits = append(hits, search.Hit{ID: rec.ID, Title: rec.Title})
		}
		return hits, nil
	}

	hits, err := app.Index.Search(query)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	if tag == "" {
		return hits, nil
	}
	var filtered []search.Hit
	for _, h := range hits {
		if app.Dataset.HasTag(h.ID, tag) {
			filtered = append(filtered, h)
		}
	}
	return filtered, nil
}
