package exercise

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
)

// Guide produces step guidance from the answers submitted so far.
// Implemented by the guidance service; step is the 1-based number of the
// step just completed.
type Guide interface {
	RequestGuidance(ctx context.Context, step int, answers Answers) (*Guidance, error)
}

// SnapshotStore persists session snapshots. Load returns (nil, nil) when
// no snapshot exists for the session.
type SnapshotStore interface {
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Save(ctx context.Context, sessionID string, snapshot []byte) error
	Delete(ctx context.Context, sessionID string) error
}

// Status is the guidance-panel state of a session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
)

// RetryableErrMsg is the single generic message shown to the user for any
// guidance failure. Diagnostic detail stays in logs, never in this string.
const RetryableErrMsg = "Unable to generate guidance. Please try again."

var (
	// ErrBusy means a guidance call is already in flight for this session.
	ErrBusy = errors.New("a guidance request is already in progress")

	// ErrBlankAnswer means the submitted answer was empty after trimming.
	ErrBlankAnswer = errors.New("answer must not be blank")

	// ErrTerminalStep means free text was submitted on the choice step.
	ErrTerminalStep = errors.New("the final step takes a selection, not an answer")
)

// State is an observable copy of a session's current state.
type State struct {
	StepIndex     int
	Answers       Answers
	Guidance      string
	HintBullets   []string
	Suggestions   []Suggestion
	SelectedTitle string
	Status        Status
	ErrMsg        string
}

// Complete reports whether the terminal identity choice has been made.
func (s State) Complete() bool {
	return s.Answers.FalseIdentity != ""
}

// Session is the questionnaire state machine for one user session.
// There is at most one outstanding guidance call per session; the busy
// flag rejects re-entrant submissions while a call is in flight.
type Session struct {
	mu     sync.Mutex
	id     string
	guide  Guide
	store  SnapshotStore
	loaded bool
	busy   bool
	state  State
}

// NewSession creates a session. The store may be nil, in which case the
// session lives only in memory. Call Restore before the first mutation:
// persisting before restoring would clobber a real prior snapshot with
// empty defaults.
func NewSession(id string, guide Guide, store SnapshotStore) *Session {
	return &Session{
		id:    id,
		guide: guide,
		store: store,
		state: State{Status: StatusIdle},
	}
}

// Restore loads the persisted snapshot, if any. Best-effort: a missing,
// unreadable, or malformed snapshot restores to defaults. After Restore
// the session persists itself on every mutation.
func (s *Session) Restore(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return
	}
	s.loaded = true

	if s.store == nil {
		return
	}
	raw, err := s.store.Load(ctx, s.id)
	if err != nil || raw == nil {
		return
	}

	snap := DecodeSnapshot(raw)
	s.state.StepIndex = snap.StepIndex
	s.state.Answers = snap.Answers
	s.state.Guidance = snap.Guidance
	s.state.HintBullets = snap.HintBullets
	s.state.Suggestions = snap.Suggestions
	s.state.SelectedTitle = snap.SelectedTitle
	if snap.Guidance != "" || len(snap.HintBullets) > 0 || len(snap.Suggestions) > 0 {
		s.state.Status = StatusReady
	}
}

// State returns a copy of the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentStep returns the step the session is positioned on.
func (s *Session) CurrentStep() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StepAt(s.state.StepIndex)
}

// SubmitAnswer records the trimmed answer for the current step, advances,
// and requests guidance for the next step. A guidance failure is not
// returned as an error: the session surfaces the generic retryable
// message and returns to ready so it is never stuck loading.
func (s *Session) SubmitAnswer(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.state.StepIndex == TerminalIndex {
		s.mu.Unlock()
		return ErrTerminalStep
	}
	if trimmed == "" {
		s.mu.Unlock()
		return ErrBlankAnswer
	}

	completed := s.state.StepIndex
	s.state.Answers.SetForStep(completed, trimmed)
	s.state.StepIndex = ClampStepIndex(completed + 1)
	s.state.Guidance = ""
	s.state.HintBullets = nil
	s.state.Suggestions = nil
	s.state.ErrMsg = ""
	s.state.Status = StatusLoading
	s.busy = true
	answers := s.state.Answers
	s.persistLocked(ctx)
	s.mu.Unlock()

	g, err := s.guide.RequestGuidance(ctx, completed+1, answers)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.state.Status = StatusReady
	if err != nil {
		s.state.ErrMsg = RetryableErrMsg
	} else {
		s.state.Guidance = g.Guidance
		s.state.HintBullets = g.HintBullets
		s.state.Suggestions = g.Suggestions
	}
	s.persistLocked(ctx)
	return nil
}

// RetryGuidance re-requests guidance for the current position after a
// failed attempt. A no-op before any step has been completed.
func (s *Session) RetryGuidance(ctx context.Context) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.state.StepIndex == 0 {
		s.mu.Unlock()
		return nil
	}
	step := s.state.StepIndex
	s.state.ErrMsg = ""
	s.state.Status = StatusLoading
	s.busy = true
	answers := s.state.Answers
	s.persistLocked(ctx)
	s.mu.Unlock()

	g, err := s.guide.RequestGuidance(ctx, step, answers)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.state.Status = StatusReady
	if err != nil {
		s.state.ErrMsg = RetryableErrMsg
	} else {
		s.state.Guidance = g.Guidance
		s.state.HintBullets = g.HintBullets
		s.state.Suggestions = g.Suggestions
	}
	s.persistLocked(ctx)
	return nil
}

// SelectIdentity records the chosen identity on the terminal step. There
// is no step after the terminal one, so no guidance call follows.
func (s *Session) SelectIdentity(ctx context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.StepIndex != TerminalIndex {
		return ErrTerminalStep
	}
	s.state.Answers.FalseIdentity = id
	s.state.SelectedTitle = title
	s.persistLocked(ctx)
	return nil
}

// Reset clears all answers and guidance, returns to the first step, and
// removes the persisted snapshot.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.state = State{Status: StatusIdle}
	if s.store != nil {
		// Best effort, like every other storage operation.
		_ = s.store.Delete(ctx, s.id)
	}
}

// persistLocked writes the current snapshot. Storage failures are
// swallowed; the session continues in memory for that operation.
func (s *Session) persistLocked(ctx context.Context) {
	if s.store == nil || !s.loaded {
		return
	}
	raw, err := json.Marshal(Snapshot{
		StepIndex:     s.state.StepIndex,
		Answers:       s.state.Answers,
		Guidance:      s.state.Guidance,
		HintBullets:   s.state.HintBullets,
		Suggestions:   s.state.Suggestions,
		SelectedTitle: s.state.SelectedTitle,
	})
	if err != nil {
		return
	}
	_ = s.store.Save(ctx, s.id, raw)
}
