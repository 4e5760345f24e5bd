package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/reflectlab/unmask/internal/exercise"
)

// sessionCookie names the cookie carrying the session id.
const sessionCookie = "unmask_session"

// session returns the controller for the request's session, creating the
// cookie and controller on first touch. The controller is restored from
// the snapshot store before it is handed out.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *exercise.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		id = c.Value
	} else {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = exercise.NewSession(id, s.guide, s.store)
		s.sessions[id] = sess
	}
	s.mu.Unlock()

	sess.Restore(r.Context())
	return sess
}

type sessionView struct {
	StepIndex     int                   `json:"stepIndex"`
	Step          stepView              `json:"step"`
	Answers       exercise.Answers      `json:"answers"`
	Guidance      string                `json:"guidance"`
	HintBullets   []string              `json:"hintBullets"`
	Suggestions   []exercise.Suggestion `json:"suggestions"`
	SelectedTitle string                `json:"selectedTitle"`
	Status        exercise.Status       `json:"status"`
	Error         string                `json:"error,omitempty"`
	Complete      bool                  `json:"complete"`
}

type stepView struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Question    string `json:"question"`
	Helper      string `json:"helper"`
	Example     string `json:"example,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

func viewOf(st exercise.State) sessionView {
	step := exercise.StepAt(st.StepIndex)
	view := sessionView{
		StepIndex: st.StepIndex,
		Step: stepView{
			Key:         step.Key,
			Title:       step.Title,
			Question:    step.Question,
			Helper:      step.Helper,
			Example:     step.Example,
			Placeholder: step.Placeholder,
		},
		Answers:       st.Answers,
		Guidance:      st.Guidance,
		HintBullets:   st.HintBullets,
		Suggestions:   st.Suggestions,
		SelectedTitle: st.SelectedTitle,
		Status:        st.Status,
		Error:         st.ErrMsg,
		Complete:      st.Complete(),
	}
	if view.HintBullets == nil {
		view.HintBullets = []string{}
	}
	if view.Suggestions == nil {
		view.Suggestions = []exercise.Suggestion{}
	}
	return view
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	writeJSON(w, http.StatusOK, viewOf(sess.State()))
}

func (s *Server) handleSessionAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	sess := s.session(w, r)
	if err := sess.SubmitAnswer(r.Context(), req.Text); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, exercise.ErrBusy) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess.State()))
}

func (s *Server) handleSessionSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IdentityID string `json:"identityId"`
		Title      string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IdentityID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	// Backfill the title from the dataset when the client omits it.
	title := req.Title
	if title == "" {
		if rec, ok := s.ds.Lookup(req.IdentityID); ok {
			title = rec.Title
		}
	}

	sess := s.session(w, r)
	if err := sess.SelectIdentity(r.Context(), req.IdentityID, title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess.State()))
}

func (s *Server) handleSessionRetry(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := sess.RetryGuidance(r.Context()); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, exercise.ErrBusy) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess.State()))
}

func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Reset(r.Context())
	writeJSON(w, http.StatusOK, viewOf(sess.State()))
}
