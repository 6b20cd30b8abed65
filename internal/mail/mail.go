// Package mail defines the message model and the source boundary the poller
// fetches from.
package mail

import (
	"context"
	"fmt"
	"time"
)

// Message is a single unit fetched from a channel. Immutable once fetched.
type Message struct {
	ID         string    `json:"id"` // stable, unique within the source
	Sender     string    `json:"sender"`
	Subject    string    `json:"subject,omitempty"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
	Unread     bool      `json:"unread"`
}

// Source supplies batches of unseen messages.
type Source interface {
	// Fetch returns up to limit messages, newest first. An empty inbox yields
	// an empty slice, not an error. Connectivity and auth failures return a
	// *SourceError.
	Fetch(ctx context.Context, limit int, unreadOnly bool) ([]Message, error)

	// Configured reports whether the source has credentials to fetch with.
	Configured() bool
}

// SourceError indicates the source could not be reached or refused the fetch.
// It is fatal to the poll cycle that encountered it.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("mail source: %v", e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
