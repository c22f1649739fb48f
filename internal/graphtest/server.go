// Package graphtest runs a fake Graph/REST API server for tests. Routes
// return canned replies and every request is recorded for assertions.
package graphtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Reply is a canned response.
type Reply struct {
	Status int
	Body   string
	Header http.Header
}

// Request is what the server saw for one incoming call.
type Request struct {
	Method string
	Path   string
	Host   string
	Query  url.Values
	Form   url.Values // POST form fields only
	Header http.Header
}

// Server is an httptest.Server backed by a gorilla/mux router.
type Server struct {
	*httptest.Server

	router *mux.Router

	mu       sync.Mutex
	requests []Request
}

// errorResponse mirrors the error envelope the real API uses for unknown paths.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// New starts a server with no routes. Unknown routes answer 404 with a JSON
// error envelope. Callers must Close it.
func New() *Server {
	s := &Server{router: mux.NewRouter()}
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body errorResponse
		body.Error.Message = "Unknown path components: " + r.URL.Path
		body.Error.Type = "OAuthException"
		body.Error.Code = 2500
		writeJSON(w, http.StatusNotFound, body)
	})
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Handle registers reply for method and path. Path may use mux variables
// such as "/{id}".
func (s *Server) Handle(method, path string, reply Reply) {
	s.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		for k, vs := range reply.Header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		status := reply.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply.Body))
	}).Methods(method)
}

// HandleJSON registers a 200 reply whose body is v encoded as JSON.
func (s *Server) HandleJSON(method, path string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	s.Handle(method, path, Reply{Status: http.StatusOK, Body: string(b)})
}

// Requests returns a copy of everything received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Last returns the most recent request.
func (s *Server) Last() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		log.Error().Err(err).Msg("graphtest: parse form")
	}
	rec := Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Host:   r.Host,
		Query:  r.URL.Query(),
		Form:   r.PostForm,
		Header: r.Header.Clone(),
	}
	s.mu.Lock()
	s.requests = append(s.requests, rec)
	s.mu.Unlock()

	s.router.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("graphtest: encode response")
	}
}
