// Package identity holds the static false-identity dataset and its accessor.
// The dataset is loaded once at startup and treated as immutable afterwards.
package identity

// Sections groups the named text lists of one identity profile.
// Every list is independently optional and may be empty.
type Sections struct {
	HowItShowsUp             []string `json:"howItShowsUp"`
	EffectOnOthers           []string `json:"effectOnOthers"`
	BeliefsAboutOthers       []string `json:"beliefsAboutOthers"`
	BeliefsAboutLife         []string `json:"beliefsAboutLife"`
	SelfReinforcingBehaviors []string `json:"selfReinforcingBehaviors"`
	SkillsToCultivate        []string `json:"skillsToCultivate"`
	Gifts                    []string `json:"gifts"`
	DeeperTruthStatements    []string `json:"deeperTruthStatements"`
}

// Identity is one false-identity profile from the dataset.
// The ID is the stable join key used in URLs and model suggestions.
type Identity struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Aka          []string `json:"aka"`
	TrueIdentity string   `json:"trueIdentity"`
	Sections     Sections `json:"sections"`
	Tags         []string `json:"tags"`
	RelatedIDs   []string `json:"relatedIds"`
}

// MatchProfile is the reduced projection of an Identity sent to the model
// for suggestion matching. Only the fields relevant to matching are
// included; the remaining sections never leave the process.
type MatchProfile struct {
	ID                       string   `json:"id"`
	Title                    string   `json:"title"`
	Aka                      []string `json:"aka"`
	Tags                     []string `json:"tags"`
	BeliefsAboutLife         []string `json:"beliefsAboutLife"`
	BeliefsAboutOthers       []string `json:"beliefsAboutOthers"`
	SelfReinforcingBehaviors []string `json:"selfReinforcingBehaviors"`
}
