// Package mopidytest provides an in-process fake Mopidy server for tests.
package mopidytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Server is a fake Mopidy HTTP server answering JSON-RPC on /mopidy/rpc and
// serving images registered with SetImage.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	results map[string]any
	errors  map[string]int
	images  map[string][]byte
	calls   map[string]int
	fetches map[string]int
	down    bool
}

// NewServer starts a fake server. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		results: make(map[string]any),
		errors:  make(map[string]int),
		images:  make(map[string][]byte),
		calls:   make(map[string]int),
		fetches: make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/mopidy/rpc", s.handleRPC)
	mux.HandleFunc("/images/", s.handleImage)
	s.Server = httptest.NewServer(mux)
	return s
}

// SetResult makes method return result. A nil result is sent as JSON null.
func (s *Server) SetResult(method string, result any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.errors, method)
	s.results[method] = result
}

// SetError makes method return a JSON-RPC error envelope with code.
func (s *Server) SetError(method string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors[method] = code
}

// SetImage serves data at path, which must start with /images/.
func (s *Server) SetImage(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[path] = data
}

// SetDown makes every request fail with 503 until called with false.
func (s *Server) SetDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

// Calls returns how many times method was requested.
func (s *Server) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// Fetches returns how many times the image at path was downloaded.
func (s *Server) Fetches(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[path]
}

type request struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls[req.Method]++
	down := s.down
	code, failed := s.errors[req.Method]
	result, known := s.results[req.Method]
	s.mu.Unlock()

	if down {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	switch {
	case failed:
		resp["error"] = map[string]any{"code": code, "message": "fake failure"}
	case known:
		resp["result"] = result
	default:
		resp["error"] = map[string]any{"code": -32601, "message": "Method not found"}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data, ok := s.images[r.URL.Path]
	if ok {
		s.fetches[r.URL.Path]++
	}
	down := s.down
	s.mu.Unlock()

	if down {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(data)
}
