// Package server exposes the HTTP API: the guidance endpoint, the
// identity library, and cookie-scoped exercise sessions.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/reflectlab/unmask/internal/exercise"
	"github.com/reflectlab/unmask/internal/identity"
	"github.com/reflectlab/unmask/internal/search"
)

// Server holds the wired application components behind the HTTP API.
type Server struct {
	ds    *identity.Dataset
	index *search.Index
	guide exercise.Guide
	store exercise.SnapshotStore

	mu       sync.Mutex
	sessions map[string]*exercise.Session
}

// New creates a Server. store may be nil, in which case exercise
// sessions live only in process memory.
func New(ds *identity.Dataset, index *search.Index, guide exercise.Guide, store exercise.SnapshotStore) *Server {
	return &Server{
		ds:       ds,
		index:    index,
		guide:    guide,
		store:    store,
		sessions: make(map[string]*exercise.Session),
	}
}

// Handler returns the routed HTTP handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/ai", s.handleGuidance)
	mux.HandleFunc("GET /api/identities", s.handleList)
	mux.HandleFunc("GET /api/identities/{id}", s.handleDetail)
	mux.HandleFunc("GET /api/tags", s.handleTags)

	mux.HandleFunc("GET /api/session", s.handleSessionState)
	mux.HandleFunc("POST /api/session/answer", s.handleSessionAnswer)
	mux.HandleFunc("POST /api/session/select", s.handleSessionSelect)
	mux.HandleFunc("POST /api/session/retry", s.handleSessionRetry)
	mux.HandleFunc("POST /api/session/reset", s.handleSessionReset)

	return logRequests(mux)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("http %s %s %s", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, errorBody{Error: msg, Detail: detail})
}
