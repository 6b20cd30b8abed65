package poller

import "time"

// Outcome classifies how the most recent poll cycle ended.
type Outcome string

const (
	OutcomeUnset              Outcome = ""
	OutcomeSuccess            Outcome = "success"
	OutcomeCredentialsMissing Outcome = "credentials_missing"
	OutcomeError              Outcome = "error"
)

// Status is a point-in-time snapshot of the poller. Counters are cumulative
// over the process lifetime, not per cycle.
type Status struct {
	IsRunning              bool       `json:"is_running"`
	Interval               string     `json:"interval"`
	Channel                string     `json:"channel"`
	LastPollTime           *time.Time `json:"last_poll_time,omitempty"`
	LastOutcome            Outcome    `json:"last_outcome,omitempty"`
	LastError              string     `json:"last_error,omitempty"`
	TotalMessagesProcessed int        `json:"total_messages_processed"`
	TotalTasksCreated      int        `json:"total_tasks_created"`
	DedupSize              int        `json:"dedup_size"`
}
