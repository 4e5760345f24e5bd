// Package search provides the fuzzy, prefix-tolerant free-text index
// over the identity library. It is built once from the dataset and is
// safe for concurrent reads afterwards.
package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/reflectlab/unmask/internal/identity"
)

// fieldSep joins list entries inside one searchable field. A separator
// token keeps entries from running together without colliding with
// expected content.
const fieldSep = " • "

// Hit is one ranked search result.
type Hit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Index answers free-text queries over the identity library.
type Index struct {
	idx    bleve.Index
	titles map[string]string
	size   int
}

// New builds an in-memory index over derived text fields of every
// record: title, alternate names, tags, how-it-shows-up text, combined
// beliefs, behaviors, skills, and deeper-truth text.
func New(ds *identity.Dataset) (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}

	titles := make(map[string]string, len(ds.Identities))
	for _, rec := range ds.Identities {
		doc := map[string]string{
			"title":        rec.Title,
			"aka":          strings.Join(rec.Aka, fieldSep),
			"tags":         strings.Join(rec.Tags, fieldSep),
			"howItShowsUp": strings.Join(rec.Sections.HowItShowsUp, fieldSep),
			"beliefs": strings.Join(
				append(append([]string{}, rec.Sections.BeliefsAboutOthers...), rec.Sections.BeliefsAboutLife...),
				fieldSep),
			"behaviors": strings.Join(rec.Sections.SelfReinforcingBehaviors, fieldSep),
			"skills":    strings.Join(rec.Sections.SkillsToCultivate, fieldSep),
			"truths":    strings.Join(rec.Sections.DeeperTruthStatements, fieldSep),
		}
		if err := idx.Index(rec.ID, doc); err != nil {
			idx.Close()
			return nil, fmt.Errorf("indexing %q: %w", rec.ID, err)
		}
		titles[rec.ID] = rec.Title
	}

	return &Index{idx: idx, titles: titles, size: len(ds.Identities)}, nil
}

// Search returns records matching the query, ranked by library-default
// relevance with the record id as a deterministic tie-break. Each query
// term matches either fuzzily (edit distance scaled to term length,
// capped at two) or as a prefix, and terms combine disjunctively.
//
// Callers must not route empty queries here: the contract is that a
// blank query yields the full record list in dataset order, which is the
// caller's job, not the index's.
func (x *Index) Search(q string) ([]Hit, error) {
	terms := tokenize(q)
	if len(terms) == 0 {
		return nil, nil
	}

	var clauses []query.Query
	for _, term := range terms {
		match := bleve.NewMatchQuery(term)
		match.SetFuzziness(fuzziness(term))
		prefix := bleve.NewPrefixQuery(term)
		clauses = append(clauses, bleve.NewDisjunctionQuery(match, prefix))
	}

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(clauses...))
	req.Size = x.size
	req.SortBy([]string{"-_score", "_id"})

	res, err := x.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{ID: h.ID, Title: x.titles[h.ID]})
	}
	return hits, nil
}

// Close releases the index.
func (x *Index) Close() error {
	return x.idx.Close()
}

// fuzziness returns the edit-distance tolerance for one term: roughly a
// fifth of its length, capped at the library maximum of two.
func fuzziness(term string) int {
	f := len(term) / 5
	if f > 2 {
		f = 2
	}
	return f
}

// tokenize lowercases the query and splits it into letter/digit runs,
// mirroring the index-side analyzer so prefix terms line up.
func tokenize(query string) []string {
	lower := strings.ToLower(strings.TrimSpace(query))
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}
