package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	_ "embed"
)

//go:embed content/false_identities.json
var embedded []byte

// Dataset is the versioned collection of identity profiles.
// Construct it with Load or LoadFile; the zero value is not usable.
type Dataset struct {
	Version    string     `json:"version"`
	Identities []Identity `json:"falseIdentities"`

	byID map[string]*Identity
}

// Load parses the dataset embedded in the binary.
func Load() (*Dataset, error) {
	return parse(embedded)
}

// LoadFile parses a dataset from an on-disk JSON file, overriding the
// embedded copy. Used when UNMASK_DATASET points at a custom dataset.
func LoadFile(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset file: %w", err)
	}
	return parse(raw)
}

func parse(raw []byte) (*Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}
	ds.byID = make(map[string]*Identity, len(ds.Identities))
	for i := range ds.Identities {
		rec := &ds.Identities[i]
		if rec.ID == "" {
			return nil, fmt.Errorf("dataset record %d has an empty id", i)
		}
		if _, dup := ds.byID[rec.ID]; dup {
			return nil, fmt.Errorf("dataset contains duplicate id %q", rec.ID)
		}
		ds.byID[rec.ID] = rec
	}
	return &ds, nil
}

// Lookup returns the identity with the given id, or ok=false when the id
// is unknown. Missing ids are not an error; callers treat them as absent.
func (d *Dataset) Lookup(id string) (*Identity, bool) {
	rec, ok := d.byID[id]
	return rec, ok
}

// Tags returns the distinct tags across all records, sorted ascending by
// their lowercase form. First-seen casing is preserved.
func (d *Dataset) Tags() []string {
	seen := make(map[string]string)
	for _, rec := range d.Identities {
		for _, t := range rec.Tags {
			key := strings.ToLower(t)
			if _, ok := seen[key]; !ok {
				seen[key] = t
			}
		}
	}
	tags := make([]string, 0, len(seen))
	for _, t := range seen {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		return strings.ToLower(tags[i]) < strings.ToLower(tags[j])
	})
	return tags
}

// HasTag reports whether the record with the given id carries the tag.
func (d *Dataset) HasTag(id, tag string) bool {
	rec, ok := d.byID[id]
	if !ok {
		return false
	}
	for _, t := range rec.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MatchProfiles returns the reduced projection of every record, in
// dataset order, for inclusion in the guidance prompt.
func (d *Dataset) MatchProfiles() []MatchProfile {
	out := make([]MatchProfile, len(d.Identities))
	for i, rec := range d.Identities {
		out[i] = MatchProfile{
			ID:                       rec.ID,
			Title:                    rec.Title,
			Aka:                      rec.Aka,
			Tags:                     rec.Tags,
			BeliefsAboutLife:         rec.Sections.BeliefsAboutLife,
			BeliefsAboutOthers:       rec.Sections.BeliefsAboutOthers,
			SelfReinforcingBehaviors: rec.Sections.SelfReinforcingBehaviors,
		}
	}
	return out
}
