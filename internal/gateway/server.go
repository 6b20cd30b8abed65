// Package gateway exposes the inboxd HTTP API: todo management, manual
// message submission, the integrations catalog, and poller control.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/inboxd/inboxd/internal/classify"
	"github.com/inboxd/inboxd/internal/events"
	"github.com/inboxd/inboxd/internal/integrations"
	"github.com/inboxd/inboxd/internal/poller"
	"github.com/inboxd/inboxd/internal/todo"
)

// Server is the inboxd gateway HTTP server.
type Server struct {
	httpServer *http.Server
	bus        *events.Bus
	todos      todo.Store
	registry   *integrations.Registry
	poller     *poller.Poller
	classifier classify.Classifier
	host       string
	port       int
}

// Deps holds the collaborators the server exposes over HTTP.
type Deps struct {
	Bus        *events.Bus
	Todos      todo.Store
	Registry   *integrations.Registry
	Poller     *poller.Poller
	Classifier classify.Classifier
}

// NewServer creates a new gateway server.
func NewServer(host string, port int, deps Deps) *Server {
	s := &Server{
		bus:        deps.Bus,
		todos:      deps.Todos,
		registry:   deps.Registry,
		poller:     deps.Poller,
		classifier: deps.Classifier,
		host:       host,
		port:       port,
	}

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: s.routes(),
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/events", s.handleEvents)

	r.Route("/api/todos", func(r chi.Router) {
		r.Get("/", s.handleListTodos)
		r.Post("/", s.handleCreateTodo)
		r.Get("/{id}", s.handleGetTodo)
		r.Put("/{id}", s.handleUpdateTodo)
		r.Delete("/{id}", s.handleDeleteTodo)
		r.Patch("/{id}/toggle", s.handleToggleTodo)
	})

	r.Route("/api/messages", func(r chi.Router) {
		r.Post("/process", s.handleProcessMessage)
		r.Post("/{channel}", s.handleChannelMessage)
	})

	r.Route("/api/integrations", func(r chi.Router) {
		r.Get("/", s.handleListIntegrations)
		r.Get("/{name}", s.handleGetIntegration)
		r.Post("/{name}/toggle", s.handleToggleIntegration)
	})

	r.Route("/api/poller", func(r chi.Router) {
		r.Get("/status", s.handlePollerStatus)
		r.Post("/trigger", s.handlePollerTrigger)
		r.Post("/start", s.handlePollerStart)
		r.Post("/stop", s.handlePollerStop)
	})

	return r
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("inboxd gateway listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	limit := 50
	if limitStr != "" {
		fmt.Sscanf(limitStr, "%d", &limit)
	}

	history := s.bus.History(limit)

	type eventJSON struct {
		ID        string             `json:"id"`
		Type      string             `json:"type"`
		Timestamp string             `json:"timestamp"`
		Source    events.EventSource `json:"source"`
		Payload   map[string]any     `json:"payload"`
	}

	result := make([]eventJSON, len(history))
	for i, e := range history {
		result[i] = eventJSON{
			ID:        e.ID,
			Type:      string(e.Type),
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Source:    e.Source,
			Payload:   e.Payload,
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
