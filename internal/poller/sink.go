package poller

import (
	"fmt"

	"github.com/inboxd/inboxd/internal/classify"
	"github.com/inboxd/inboxd/internal/mail"
	"github.com/inboxd/inboxd/internal/todo"
)

// todoFromVerdict builds the todo record for an actionable verdict. The
// description carries enough of the source message to trace the todo back.
func todoFromVerdict(v classify.Verdict, msg mail.Message, channel string) *todo.Todo {
	priority := todo.Priority(v.Priority)
	if !todo.ValidPriority(priority) {
		priority = todo.PriorityMedium
	}

	return &todo.Todo{
		Title:       v.Title,
		Description: fmt.Sprintf("From: %s\nSubject: %s", msg.Sender, msg.Subject),
		Priority:    priority,
		DueDate:     v.DueDate,
		Source:      channel,
	}
}
