// Package remotetest runs an in-process stand-in for the dummyjson todos API.
package remotetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/idilsaglam/todosync/internal/model"
)

// Server mimics the demo API: it lists its seed, echoes creates with the next
// id, and accepts updates/deletes of ids it knows (404 otherwise). Nothing
// is persisted between calls, just like the real service.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	seed   []model.Item
	nextID int
	fail   map[string]int
	calls  []string
}

// New starts a server seeded with items and closes it when the test ends.
func New(t testing.TB, seed ...model.Item) *Server {
	t.Helper()
	s := &Server{seed: seed, nextID: len(seed) + 1, fail: map[string]int{}}

	r := mux.NewRouter()
	r.Use(s.record)
	r.HandleFunc("/todos", s.list).Methods(http.MethodGet)
	r.HandleFunc("/todos/add", s.add).Methods(http.MethodPost)
	r.HandleFunc("/todos/{id:[0-9]+}", s.update).Methods(http.MethodPut)
	r.HandleFunc("/todos/{id:[0-9]+}", s.remove).Methods(http.MethodDelete)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// FailWith makes every request with method respond with status code.
func (s *Server) FailWith(method string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[method] = code
}

// Calls returns "METHOD /path" for every request received so far.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.Path)
		code, failing := s.fail[r.Method]
		s.mu.Unlock()

		if failing {
			http.Error(w, `{"message":"injected failure"}`, code)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	todos := append([]model.Item{}, s.seed...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"todos": todos,
		"total": len(todos),
		"skip":  0,
		"limit": len(todos),
	})
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	var d model.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	id := s.nextID
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, d.WithID(id))
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := s.known(w, r)
	if !ok {
		return
	}
	var d model.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, d.WithID(id))
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := s.known(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	var it model.Item
	for _, v := range s.seed {
		if v.ID == id {
			it = v
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"id":        it.ID,
		"todo":      it.Text,
		"completed": it.Completed,
		"userId":    it.OwnerID,
		"isDeleted": true,
		"deletedOn": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) known(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.seed {
		if it.ID == id {
			return id, true
		}
	}
	http.Error(w, `{"message":"Todo with id '`+strconv.Itoa(id)+`' not found"}`, http.StatusNotFound)
	return 0, false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
