// Package exercise owns the six-step "Uncovering Your False Identity"
// questionnaire: the fixed step definitions, the per-session state
// machine, and the persisted snapshot format.
package exercise

// Step describes one questionnaire step. The set of steps is fixed and
// ordered; the last step is a choice step with no free-text input.
type Step struct {
	Key         string
	Title       string
	Question    string
	Helper      string
	Example     string
	Placeholder string
}

// Step indices. TerminalIndex is the choice step, where the user selects
// an identity instead of typing an answer.
const (
	StepComplaint = iota
	StepReaction
	StepVulnerableFeeling
	StepBelief
	StepFear
	StepFalseIdentity

	StepCount     = 6
	TerminalIndex = StepFalseIdentity
)

// Steps are the six fixed questionnaire steps, in order.
var Steps = [StepCount]Step{
	{
		Key:         "complaint",
		Title:       "1. State your complaint",
		Question:    "State your complaint (something that triggered you) about your spouse.",
		Helper:      "Recurring or one major event. Keep it short and concrete; do not read examples to your spouse.",
		Example:     "You are always creating distance between us.",
		Placeholder: "Name the trigger without the full story.",
	},
	{
		Key:         "reaction",
		Title:       "2. State your primary emotional reaction",
		Question:    "State your primary emotional reaction (usually fight, flight, or freeze).",
		Helper:      "State a feeling, not an interpretation. Common options: anger, hurt, disgust, shame, fear.",
		Example:     "I feel angry, hurt, or confused.",
		Placeholder: "Anger, hurt, disgust, shame, fear.",
	},
	{
		Key:         "vulnerableFeeling",
		Title:       "3. State the vulnerable feeling below your reaction",
		Question:    "State the vulnerable feeling below your reaction.",
		Helper:      "This is what the primary reaction is protecting. Feel into body and breath; ask how a child might feel.",
		Example:     "I feel sad and alone.",
		Placeholder: "Name the tender feeling.",
	},
	{
		Key:         "belief",
		Title:       "4. State the belief about yourself",
		Question:    "State the belief about yourself that underlies your vulnerable feeling.",
		Helper:      "Keep it simple and direct. Make it about you.",
		Example:     "I believe you do not care for me.",
		Placeholder: "What do you believe about you?",
	},
	{
		Key:         "fear",
		Title:       "5. Recognize your deepest fear",
		Question:    "Recognize your deepest fear.",
		Helper:      "This is the core fear beneath the belief.",
		Example:     "My deepest fear is that I am not worth loving.",
		Placeholder: "Name the fear.",
	},
	{
		Key:      "falseIdentity",
		Title:    "6. State your false identity",
		Question: "Choose the false identity that fits best.",
		Helper:   "Up to three identities are suggested based on your answers.",
	},
}

// StepAt returns the step at the given index, clamping out-of-range
// indices to the nearest valid step.
func StepAt(index int) Step {
	return Steps[ClampStepIndex(index)]
}

// ClampStepIndex clamps an index into [0, StepCount-1].
func ClampStepIndex(index int) int {
	if index < 0 {
		return 0
	}
	if index > StepCount-1 {
		return StepCount - 1
	}
	return index
}

// Answers holds one string per step key. Unanswered steps are empty
// strings; the terminal slot carries a chosen identity id, not free text.
type Answers struct {
	Complaint         string `json:"complaint"`
	Reaction          string `json:"reaction"`
	VulnerableFeeling string `json:"vulnerableFeeling"`
	Belief            string `json:"belief"`
	Fear              string `json:"fear"`
	FalseIdentity     string `json:"falseIdentity"`
}

// ForStep returns the answer recorded for the given step index.
func (a Answers) ForStep(index int) string {
	switch ClampStepIndex(index) {
	case StepComplaint:
		return a.Complaint
	case StepReaction:
		return a.Reaction
	case StepVulnerableFeeling:
		return a.VulnerableFeeling
	case StepBelief:
		return a.Belief
	case StepFear:
		return a.Fear
	default:
		return a.FalseIdentity
	}
}

// SetForStep records an answer for the given step index.
func (a *Answers) SetForStep(index int, value string) {
	switch ClampStepIndex(index) {
	case StepComplaint:
		a.Complaint = value
	case StepReaction:
		a.Reaction = value
	case StepVulnerableFeeling:
		a.VulnerableFeeling = value
	case StepBelief:
		a.Belief = value
	case StepFear:
		a.Fear = value
	default:
		a.FalseIdentity = value
	}
}

// HasProgress reports whether any answer has been recorded.
func (a Answers) HasProgress() bool {
	for i := 0; i < StepCount; i++ {
		if a.ForStep(i) != "" {
			return true
		}
	}
	return false
}
