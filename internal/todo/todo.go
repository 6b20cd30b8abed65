// Package todo provides persistent todo management for extracted action items.
package todo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority represents the urgency of a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriority reports whether p is one of the known priority levels.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Todo represents a single actionable item, either extracted from a message
// or created directly through the API.
type Todo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    Priority  `json:"priority"`
	DueDate     string    `json:"due_date,omitempty"` // YYYY-MM-DD
	Completed   bool      `json:"completed"`
	Source      string    `json:"source,omitempty"` // originating channel, e.g. "gmail"
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFilter defines criteria for filtering todo lists.
type ListFilter struct {
	Completed *bool    `json:"completed,omitempty"`
	Priority  Priority `json:"priority,omitempty"`
	Source    string   `json:"source,omitempty"`
}

// Store defines the persistence interface for todos.
type Store interface {
	Create(t *Todo) error
	Get(id string) (*Todo, error)
	List(filter ListFilter) ([]*Todo, error)
	Update(t *Todo) error
	Delete(id string) error
	Toggle(id string) (*Todo, error)
}

// ErrNotFound is returned when a todo ID does not exist.
var ErrNotFound = errors.New("todo not found")

// StoreError wraps a persistence failure.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("todo store: %v", e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// GenerateTodoID creates a unique todo identifier.
func GenerateTodoID() string {
	u := uuid.New().String()
	return "todo_" + strings.ReplaceAll(u[:8], "-", "")
}
