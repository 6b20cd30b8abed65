package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/inboxd/inboxd/internal/events"
)

// CycleError records a single message that could not be handled during a
// cycle. A message with a CycleError is still marked handled so it is not
// retried on the next cycle.
type CycleError struct {
	MessageID string `json:"message_id"`
	Err       string `json:"error"`
}

// CycleResult summarizes one poll cycle.
type CycleResult struct {
	Trigger      string       `json:"trigger"` // "scheduled" or "manual"
	Fetched      int          `json:"fetched"`
	New          int          `json:"new"` // fetched minus already-handled
	TasksCreated int          `json:"tasks_created"`
	Errors       []CycleError `json:"errors,omitempty"`
}

// runCycle performs one fetch-classify-store pass. Source failures abort the
// cycle; per-message failures are recorded and the message is marked handled
// so one poisoned message cannot wedge the loop.
func (p *Poller) runCycle(ctx context.Context, trigger string) (CycleResult, error) {
	result := CycleResult{Trigger: trigger}

	if !p.source.Configured() {
		p.recordCycle(result, OutcomeCredentialsMissing, ErrCredentialsMissing)
		return result, ErrCredentialsMissing
	}

	p.bus.Publish(events.NewTypedEvent(events.SourcePoller, events.PollStartedPayload{Trigger: trigger}))

	msgs, err := p.source.Fetch(ctx, p.batchSize, true)
	if err != nil {
		p.bus.Publish(events.NewTypedEvent(events.SourcePoller, events.SourceErrorPayload{Error: err.Error()}))
		// "*" marks a cycle-wide failure rather than a single message.
		result.Errors = append(result.Errors, CycleError{MessageID: "*", Err: err.Error()})
		p.recordCycle(result, OutcomeError, err)
		return result, fmt.Errorf("fetch: %w", err)
	}
	result.Fetched = len(msgs)

	for _, msg := range msgs {
		if p.ledger.Contains(msg.ID) {
			continue
		}
		result.New++

		verdict, err := p.classifier.Classify(ctx, msg)
		if err != nil {
			slog.Warn("classification failed", "message_id", msg.ID, "error", err)
			result.Errors = append(result.Errors, CycleError{MessageID: msg.ID, Err: err.Error()})
			p.bus.Publish(events.NewTypedEvent(events.SourcePoller, events.MessageSkippedPayload{
				MessageID: msg.ID, Reason: "classify_failed", Error: err.Error(),
			}))
			p.ledger.Insert(msg.ID)
			continue
		}

		if !verdict.Actionable || verdict.Title == "" {
			p.bus.Publish(events.NewTypedEvent(events.SourcePoller, events.MessageSkippedPayload{
				MessageID: msg.ID, Reason: "not_actionable",
			}))
			p.ledger.Insert(msg.ID)
			continue
		}

		t := todoFromVerdict(verdict, msg, p.channel)
		if err := p.todos.Create(t); err != nil {
			slog.Warn("todo creation failed", "message_id", msg.ID, "error", err)
			result.Errors = append(result.Errors, CycleError{MessageID: msg.ID, Err: err.Error()})
			p.bus.Publish(events.NewTypedEvent(events.SourcePoller, events.MessageSkippedPayload{
				MessageID: msg.ID, Reason: "store_failed", Error: err.Error(),
			}))
			p.ledger.Insert(msg.ID)
			continue
		}

		result.TasksCreated++
		slog.Info("todo created from message",
			"todo_id", t.ID, "message_id", msg.ID, "title", t.Title, "priority", t.Priority)
		p.bus.Publish(events.NewTypedEvent(events.SourcePoller, events.TaskCreatedPayload{
			TaskID: t.ID, MessageID: msg.ID, Title: t.Title, Channel: p.channel,
		}))
		p.ledger.Insert(msg.ID)
	}

	p.bus.Publish(events.NewTypedEvent(events.SourcePoller, events.PollCompletedPayload{
		Trigger:      trigger,
		Fetched:      result.Fetched,
		New:          result.New,
		TasksCreated: result.TasksCreated,
		Failed:       len(result.Errors),
	}))

	p.recordCycle(result, OutcomeSuccess, nil)
	return result, nil
}

// recordCycle folds a finished (or aborted) cycle into the status counters.
func (p *Poller) recordCycle(result CycleResult, outcome Outcome, err error) {
	now := time.Now()

	p.statusMu.Lock()
	defer p.statusMu.Unlock()

	p.lastPollTime = &now
	p.lastOutcome = outcome
	if err != nil {
		p.lastError = err.Error()
	} else {
		p.lastError = ""
	}
	p.totalProcessed += result.New
	p.totalTasks += result.TasksCreated
}
