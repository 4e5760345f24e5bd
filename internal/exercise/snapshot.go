package exercise

import "encoding/json"

// Suggestion is one candidate identity proposed for the terminal step.
type Suggestion struct {
	IdentityID string `json:"identityId"`
	Title      string `json:"title"`
	Reason     string `json:"reason"`
}

// Guidance is the payload received for one completed step.
type Guidance struct {
	Guidance    string       `json:"guidance"`
	HintBullets []string     `json:"hintBullets"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Snapshot is the persisted session record. Its JSON shape is the
// storage contract; changing a key orphans existing sessions.
type Snapshot struct {
	StepIndex     int          `json:"stepIndex"`
	Answers       Answers      `json:"answers"`
	Guidance      string       `json:"guidance"`
	HintBullets   []string     `json:"hintBullets"`
	Suggestions   []Suggestion `json:"suggestions"`
	SelectedTitle string       `json:"selectedTitle"`
}

// DecodeSnapshot restores a snapshot from stored bytes. Stored data is
// untrusted: every field is coerced to its expected type individually,
// with empty or zero defaults for anything missing or mistyped, and the
// step index clamped into range. It never fails; garbage input restores
// to an empty session.
func DecodeSnapshot(raw []byte) Snapshot {
	var snap Snapshot

	var loose map[string]json.RawMessage
	if err := json.Unmarshal(raw, &loose); err != nil {
		return snap
	}

	var idx float64
	if json.Unmarshal(loose["stepIndex"], &idx) == nil {
		snap.StepIndex = ClampStepIndex(int(idx))
	}

	var answers map[string]json.RawMessage
	if json.Unmarshal(loose["answers"], &answers) == nil {
		snap.Answers = Answers{
			Complaint:         coerceString(answers["complaint"]),
			Reaction:          coerceString(answers["reaction"]),
			VulnerableFeeling: coerceString(answers["vulnerableFeeling"]),
			Belief:            coerceString(answers["belief"]),
			Fear:              coerceString(answers["fear"]),
			FalseIdentity:     coerceString(answers["falseIdentity"]),
		}
	}

	snap.Guidance = coerceString(loose["guidance"])
	snap.SelectedTitle = coerceString(loose["selectedTitle"])

	var hints []json.RawMessage
	if json.Unmarshal(loose["hintBullets"], &hints) == nil {
		for _, h := range hints {
			if s := coerceString(h); s != "" {
				snap.HintBullets = append(snap.HintBullets, s)
			}
		}
	}

	var suggestions []json.RawMessage
	if json.Unmarshal(loose["suggestions"], &suggestions) == nil {
		for _, raw := range suggestions {
			var fields map[string]json.RawMessage
			if json.Unmarshal(raw, &fields) != nil {
				continue
			}
			s := Suggestion{
				IdentityID: coerceString(fields["identityId"]),
				Title:      coerceString(fields["title"]),
				Reason:     coerceString(fields["reason"]),
			}
			if s.IdentityID == "" {
				continue
			}
			snap.Suggestions = append(snap.Suggestions, s)
		}
	}

	return snap
}

func coerceString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}
