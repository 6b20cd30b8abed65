package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inboxd/inboxd/internal/classify"
	"github.com/inboxd/inboxd/internal/events"
	"github.com/inboxd/inboxd/internal/mail"
	"github.com/inboxd/inboxd/internal/todo"
)

// messageRequest is an inbound message submitted through the API rather than
// fetched by the poller.
type messageRequest struct {
	Content string `json:"content"`
	Sender  string `json:"sender"`
	Source  string `json:"source"`
	Subject string `json:"subject,omitempty"`
}

// processedResponse reports what a submitted message produced.
type processedResponse struct {
	Message      messageRequest `json:"message"`
	TodosCreated []string       `json:"todos_created"`
}

// handleProcessMessage classifies a submitted message and files a todo when
// it is actionable. The source field is taken from the body.
func (s *Server) handleProcessMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMessage(w, r)
	if !ok {
		return
	}
	if req.Source == "" {
		req.Source = "manual"
	}
	s.processMessage(w, r, req)
}

// handleChannelMessage is the per-channel variant: the channel comes from the
// URL and must be a known integration.
func (s *Server) handleChannelMessage(w http.ResponseWriter, r *http.Request) {
	channel := strings.ToLower(chi.URLParam(r, "channel"))
	if _, err := s.registry.Get(channel); err != nil {
		writeError(w, http.StatusNotFound, "unknown channel: "+channel)
		return
	}

	req, ok := s.decodeMessage(w, r)
	if !ok {
		return
	}
	req.Source = channel
	s.processMessage(w, r, req)
}

func (s *Server) decodeMessage(w http.ResponseWriter, r *http.Request) (messageRequest, bool) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.Content == "" || req.Sender == "" {
		writeError(w, http.StatusBadRequest, "content and sender are required")
		return req, false
	}
	return req, true
}

func (s *Server) processMessage(w http.ResponseWriter, r *http.Request, req messageRequest) {
	msg := mail.Message{
		ID:         "api_" + uuid.New().String(),
		Sender:     req.Sender,
		Subject:    req.Subject,
		Body:       req.Content,
		ReceivedAt: time.Now(),
	}

	verdict, err := s.classifier.Classify(r.Context(), msg)
	if err != nil {
		var ce *classify.ClassificationError
		if errors.As(err, &ce) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var created []string
	if verdict.Actionable && verdict.Title != "" {
		priority := todo.Priority(verdict.Priority)
		if !todo.ValidPriority(priority) {
			priority = todo.PriorityMedium
		}
		t := &todo.Todo{
			Title:       verdict.Title,
			Description: fmt.Sprintf("From: %s\nSubject: %s", req.Sender, req.Subject),
			Priority:    priority,
			DueDate:     verdict.DueDate,
			Source:      req.Source,
		}
		if err := s.todos.Create(t); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		created = append(created, t.ID)

		s.bus.Publish(events.NewTypedEvent(events.SourceGateway, events.TaskCreatedPayload{
			TaskID: t.ID, MessageID: msg.ID, Title: t.Title, Channel: req.Source,
		}))
	}

	if created == nil {
		created = []string{}
	}
	writeJSON(w, http.StatusOK, processedResponse{Message: req, TodosCreated: created})
}
