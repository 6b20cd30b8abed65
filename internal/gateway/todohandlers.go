package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/inboxd/inboxd/internal/todo"
)

// todoCreateRequest is the POST /api/todos body.
type todoCreateRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Priority    todo.Priority `json:"priority"`
	DueDate     string        `json:"due_date"`
	Source      string        `json:"source"`
}

// todoUpdateRequest is the PUT /api/todos/{id} body. Pointer fields
// distinguish "not provided" from zero values.
type todoUpdateRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Priority    *todo.Priority `json:"priority"`
	DueDate     *string        `json:"due_date"`
	Completed   *bool          `json:"completed"`
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	filter := todo.ListFilter{
		Priority: todo.Priority(r.URL.Query().Get("priority")),
		Source:   r.URL.Query().Get("source"),
	}
	if v := r.URL.Query().Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid completed filter")
			return
		}
		filter.Completed = &completed
	}

	todos, err := s.todos.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if todos == nil {
		todos = []*todo.Todo{}
	}
	writeJSON(w, http.StatusOK, todos)
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req todoCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Priority != "" && !todo.ValidPriority(req.Priority) {
		writeError(w, http.StatusBadRequest, "invalid priority")
		return
	}

	source := req.Source
	if source == "" {
		source = "manual"
	}

	t := &todo.Todo{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Source:      source,
	}
	if err := s.todos.Create(t); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	t, err := s.todos.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeTodoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	var req todoUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Priority != nil && !todo.ValidPriority(*req.Priority) {
		writeError(w, http.StatusBadRequest, "invalid priority")
		return
	}

	t, err := s.todos.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeTodoError(w, err)
		return
	}

	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.DueDate != nil {
		t.DueDate = *req.DueDate
	}
	if req.Completed != nil {
		t.Completed = *req.Completed
	}

	if err := s.todos.Update(t); err != nil {
		writeTodoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	if err := s.todos.Delete(chi.URLParam(r, "id")); err != nil {
		writeTodoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Todo deleted successfully"})
}

func (s *Server) handleToggleTodo(w http.ResponseWriter, r *http.Request) {
	t, err := s.todos.Toggle(chi.URLParam(r, "id"))
	if err != nil {
		writeTodoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func writeTodoError(w http.ResponseWriter, err error) {
	if errors.Is(err, todo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Todo not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
