// Package classify decides whether a message contains an actionable request.
package classify

import (
	"context"
	"fmt"

	"github.com/inboxd/inboxd/internal/mail"
)

// Verdict is the classifier's judgment on a single message. Title, DueDate
// and Priority are meaningful only when Actionable is true.
type Verdict struct {
	Actionable bool   `json:"is_action_item"`
	Title      string `json:"action_item,omitempty"`
	DueDate    string `json:"due_date,omitempty"` // YYYY-MM-DD when present
	Priority   string `json:"priority,omitempty"` // "low", "medium", "high"
}

// Classifier turns a message into a Verdict.
type Classifier interface {
	// Classify returns a *ClassificationError when the verdict could not be
	// produced. It never reports a failure as a non-actionable verdict.
	Classify(ctx context.Context, msg mail.Message) (Verdict, error)
}

// ClassificationError indicates the classification service was unreachable,
// timed out, or returned output that could not be parsed into a Verdict.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }
