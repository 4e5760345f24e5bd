// Package guidance builds the model request for each completed
// questionnaire step and repairs the model's answer into a typed payload.
package guidance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/reflectlab/unmask/internal/exercise"
	"github.com/reflectlab/unmask/internal/identity"
	"github.com/reflectlab/unmask/internal/llm"
)

// ParseError reports model output that was not valid guidance JSON and
// had no recoverable brace span. It carries the raw text for diagnostics
// and is distinct from a transport error.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return "model output is not parseable guidance JSON"
}

// Service requests step guidance from the model and post-processes the
// result against the known dataset.
type Service struct {
	client       llm.Client
	profiles     []identity.MatchProfile
	profilesJSON []byte
	byID         map[string]identity.MatchProfile
}

// NewService creates a Service over a model client and the dataset. The
// reduced dataset projection is serialized once up front; the dataset is
// immutable after load.
func NewService(client llm.Client, ds *identity.Dataset) (*Service, error) {
	profiles := ds.MatchProfiles()
	raw, err := json.Marshal(profiles)
	if err != nil {
		return nil, fmt.Errorf("serializing match profiles: %w", err)
	}
	byID := make(map[string]identity.MatchProfile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	return &Service{
		client:       client,
		profiles:     profiles,
		profilesJSON: raw,
		byID:         byID,
	}, nil
}

// wire shape of the model's JSON answer.
type wireResponse struct {
	Guidance    string           `json:"guidance"`
	HintBullets []string         `json:"hintBullets"`
	Suggestions []wireSuggestion `json:"suggestions"`
}

type wireSuggestion struct {
	IdentityID string `json:"identityId"`
	Title      string `json:"title"`
	Reason     string `json:"reason"`
}

// RequestGuidance asks the model for guidance on the step after the one
// just completed. step is clamped into [1,5]; the full answer set is
// rendered into the prompt. One attempt, no retries: a configuration,
// transport, or parse failure is reported directly.
func (s *Service) RequestGuidance(ctx context.Context, step int, answers exercise.Answers) (*exercise.Guidance, error) {
	step = clampStep(step)
	next := step + 1

	resp, err := s.client.Respond(ctx, llm.Request{
		System:     systemPrompt,
		UserBlocks: s.userBlocks(step, next, answers),
		Format:     &llm.SchemaFormat{Name: schemaName, Schema: responseSchema},
	})
	if err != nil {
		return nil, err
	}

	text := resp.Text()
	parsed, err := llm.ExtractJSON[wireResponse](text, nil)
	if err != nil {
		if errors.Is(err, llm.ErrInvalidOutput) {
			return nil, &ParseError{Raw: text}
		}
		return nil, err
	}

	return s.postProcess(next, parsed), nil
}

// userBlocks renders the labeled context blocks of the user turn: the
// completed and upcoming steps, the numbered answers, the reduced
// dataset, and the schema restated for providers that ignore the
// structured-output directive.
func (s *Service) userBlocks(step, next int, answers exercise.Answers) []string {
	answersText := fmt.Sprintf(
		"1. Complaint: %s\n2. Primary reaction: %s\n3. Vulnerable feeling: %s\n4. Belief about self: %s\n5. Deepest fear: %s",
		answers.Complaint,
		answers.Reaction,
		answers.VulnerableFeeling,
		answers.Belief,
		answers.Fear,
	)

	return []string{
		fmt.Sprintf("STEP_COMPLETED: %d", step),
		fmt.Sprintf("NEXT_STEP: %d - %s", next, exercise.StepAt(next-1).Question),
		"ANSWERS_SO_FAR:\n" + answersText,
		"IDENTITY_DATASET_JSON:\n" + string(s.profilesJSON),
		"OUTPUT_JSON_SCHEMA:\n" + string(responseSchema),
	}
}

// postProcess enforces the dataset contract on a parsed payload. The
// schema nominally guarantees shape, but providers violate it: unknown
// ids are dropped, the list is capped at three, missing titles are
// backfilled from the dataset (then the id itself), and a missing reason
// becomes the empty string. Suggestions on a non-choice next step are
// cleared outright.
func (s *Service) postProcess(next int, parsed wireResponse) *exercise.Guidance {
	out := &exercise.Guidance{
		Guidance:    parsed.Guidance,
		HintBullets: parsed.HintBullets,
	}

	if next != exercise.TerminalIndex+1 {
		return out
	}

	for _, sug := range parsed.Suggestions {
		profile, ok := s.byID[sug.IdentityID]
		if !ok {
			continue
		}
		title := sug.Title
		if title == "" {
			title = profile.Title
		}
		if title == "" {
			title = sug.IdentityID
		}
		out.Suggestions = append(out.Suggestions, exercise.Suggestion{
			IdentityID: sug.IdentityID,
			Title:      title,
			Reason:     sug.Reason,
		})
		if len(out.Suggestions) == 3 {
			break
		}
	}
	return out
}

func clampStep(step int) int {
	if step < 1 {
		return 1
	}
	if step > 5 {
		return 5
	}
	return step
}
