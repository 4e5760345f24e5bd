package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/reflectlab/unmask/internal/exercise"
	"github.com/reflectlab/unmask/internal/guidance"
	"github.com/reflectlab/unmask/internal/llm"
	"github.com/reflectlab/unmask/internal/search"
)

type guidanceRequest struct {
	Step    int              `json:"step"`
	Answers exercise.Answers `json:"answers"`
}

type guidanceResponse struct {
	Guidance    string                `json:"guidance"`
	HintBullets []string              `json:"hintBullets"`
	Suggestions []exercise.Suggestion `json:"suggestions"`
}

// handleGuidance is the stateless guidance endpoint: the client owns the
// session, the server only brokers the model call. Detailed upstream
// failures go to the response detail field and the server log; the
// browser UI shows users a single generic message regardless.
func (s *Server) handleGuidance(w http.ResponseWriter, r *http.Request) {
	var req guidanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.Step == 0 {
		req.Step = 1
	}

	g, err := s.guide.RequestGuidance(r.Context(), req.Step, req.Answers)
	if err != nil {
		s.writeGuidanceError(w, err)
		return
	}

	resp := guidanceResponse{
		Guidance:    g.Guidance,
		HintBullets: g.HintBullets,
		Suggestions: g.Suggestions,
	}
	if resp.HintBullets == nil {
		resp.HintBullets = []string{}
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []exercise.Suggestion{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeGuidanceError(w http.ResponseWriter, err error) {
	var te *llm.TransportError
	var pe *guidance.ParseError
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		writeError(w, http.StatusBadRequest, "Missing OPENAI_API_KEY", "")
	case errors.As(err, &te):
		log.Printf("guidance upstream error: status=%d", te.StatusCode)
		writeError(w, http.StatusInternalServerError, "OpenAI API error", te.Body)
	case errors.As(err, &pe):
		log.Printf("guidance parse error: %d bytes of unparseable output", len(pe.Raw))
		writeError(w, http.StatusBadGateway, "OpenAI response parse error", pe.Raw)
	default:
		log.Printf("guidance error: %v", err)
		writeError(w, http.StatusInternalServerError, "guidance request failed", "")
	}
}

// handleList serves the library listing. A blank query bypasses the
// index and yields the full record list in dataset order; the tag filter
// intersects either way.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	tag := r.URL.Query().Get("tag")

	var results []search.Hit
	if strings.TrimSpace(q) == "" {
		for _, rec := range s.ds.Identities {
			if tag != "" && !s.ds.HasTag(rec.ID, tag) {
				continue
			}
			results = append(results, search.Hit{ID: rec.ID, Title: rec.Title})
		}
	} else {
		hits, err := s.index.Search(q)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "search failed", "")
			return
		}
		for _, h := range hits {
			if tag != "" && !s.ds.HasTag(h.ID, tag) {
				continue
			}
			results = append(results, h)
		}
	}

	if results == nil {
		results = []search.Hit{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.ds.Lookup(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not found", "")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tags": s.ds.Tags()})
}
