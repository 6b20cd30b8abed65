package events

import (
	"encoding/json"
	"time"
)

// EventPayload is implemented by all typed event payloads.
type EventPayload interface {
	EventType() EventType
}

// PollStartedPayload is emitted when a poll cycle begins.
type PollStartedPayload struct {
	Trigger string `json:"trigger"` // "scheduled" or "manual"
}

func (PollStartedPayload) EventType() EventType { return EventPollStarted }

// PollCompletedPayload summarizes a finished poll cycle.
type PollCompletedPayload struct {
	Trigger      string `json:"trigger"`
	Fetched      int    `json:"fetched"`
	New          int    `json:"new"`
	TasksCreated int    `json:"tasks_created"`
	Failed       int    `json:"failed"`
}

func (PollCompletedPayload) EventType() EventType { return EventPollCompleted }

// TaskCreatedPayload is emitted when a message produced a todo.
type TaskCreatedPayload struct {
	TaskID    string `json:"task_id"`
	MessageID string `json:"message_id"`
	Title     string `json:"title"`
	Channel   string `json:"channel"`
}

func (TaskCreatedPayload) EventType() EventType { return EventTaskCreated }

// MessageSkippedPayload is emitted when a message was handled but produced no
// todo, either because it was non-actionable or because handling failed.
type MessageSkippedPayload struct {
	MessageID string `json:"message_id"`
	Reason    string `json:"reason"` // "not_actionable", "classify_failed", "store_failed"
	Error     string `json:"error,omitempty"`
}

func (MessageSkippedPayload) EventType() EventType { return EventMessageSkipped }

// SourceErrorPayload is emitted when a fetch from the message source failed.
type SourceErrorPayload struct {
	Error string `json:"error"`
}

func (SourceErrorPayload) EventType() EventType { return EventSourceError }

// NewTypedEvent builds an Event from a typed payload.
func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return Event{
		ID:        generateEventID(),
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

func toMap(v any) map[string]any {
	var result map[string]any
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// ExtractPayload decodes an event's payload back into its typed form.
func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var result T
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}
