// Package poller runs the supervised background loop that fetches messages,
// filters already-handled ones, classifies the rest, and files actionable
// items as todos.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/inboxd/inboxd/internal/classify"
	"github.com/inboxd/inboxd/internal/config"
	"github.com/inboxd/inboxd/internal/events"
	"github.com/inboxd/inboxd/internal/mail"
	"github.com/inboxd/inboxd/internal/todo"
)

// Deps holds the collaborators a Poller needs.
type Deps struct {
	Source     mail.Source
	Classifier classify.Classifier
	Todos      todo.Store
	Bus        *events.Bus
}

// Poller owns the poll loop and its dedup ledger.
type Poller struct {
	source     mail.Source
	classifier classify.Classifier
	todos      todo.Store
	bus        *events.Bus
	ledger     *Ledger

	interval  time.Duration
	batchSize int
	channel   string
	window    cron.Schedule // nil means every tick qualifies

	mu   sync.Mutex // guards the running state machine
	stop chan struct{}
	done chan struct{}

	runMu sync.Mutex // serializes cycles across the loop and manual triggers

	statusMu       sync.Mutex
	lastPollTime   *time.Time
	lastOutcome    Outcome
	lastError      string
	totalProcessed int
	totalTasks     int
}

// New creates a Poller from config and dependencies. An invalid cron window
// expression is an error; an empty one disables window gating.
func New(cfg config.PollerConfig, deps Deps) (*Poller, error) {
	p := &Poller{
		source:     deps.Source,
		classifier: deps.Classifier,
		todos:      deps.Todos,
		bus:        deps.Bus,
		ledger:     NewLedger(),
		interval:   time.Duration(cfg.Interval),
		batchSize:  cfg.BatchSize,
		channel:    cfg.Channel,
	}
	if p.interval <= 0 {
		p.interval = 60 * time.Second
	}
	if p.batchSize <= 0 {
		p.batchSize = 10
	}
	if p.channel == "" {
		p.channel = "gmail"
	}

	if cfg.CronWindow != "" {
		sched, err := cron.ParseStandard(cfg.CronWindow)
		if err != nil {
			return nil, err
		}
		p.window = sched
	}

	return p, nil
}

// Start launches the background loop. It returns ErrAlreadyRunning if the
// loop is already up.
func (p *Poller) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop != nil {
		return ErrAlreadyRunning
	}

	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	slog.Info("poller started", "interval", p.interval, "channel", p.channel)
	go p.loop(p.stop)
	return nil
}

// Stop signals the loop to halt and waits for any in-flight cycle to finish.
// It never interrupts a message mid-classification; the stop signal is only
// observed between cycles. It returns ErrNotRunning if the loop is not up.
func (p *Poller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop == nil {
		return ErrNotRunning
	}

	close(p.stop)
	<-p.done
	p.stop = nil
	p.done = nil

	slog.Info("poller stopped")
	return nil
}

// Running reports whether the background loop is up.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stop != nil
}

// TriggerCycle runs one cycle immediately, independent of the loop's timer.
// It returns ErrAlreadyRunning if another cycle is in flight.
func (p *Poller) TriggerCycle(ctx context.Context) (CycleResult, error) {
	if !p.runMu.TryLock() {
		return CycleResult{}, ErrAlreadyRunning
	}
	defer p.runMu.Unlock()

	// A caller hanging up must not abort classification mid-message; once
	// started, the cycle runs to completion.
	return p.runCycle(context.WithoutCancel(ctx), "manual")
}

// Status returns a snapshot of the poller state.
func (p *Poller) Status() Status {
	running := p.Running()

	p.statusMu.Lock()
	defer p.statusMu.Unlock()

	return Status{
		IsRunning:              running,
		Interval:               p.interval.String(),
		Channel:                p.channel,
		LastPollTime:           p.lastPollTime,
		LastOutcome:            p.lastOutcome,
		LastError:              p.lastError,
		TotalMessagesProcessed: p.totalProcessed,
		TotalTasksCreated:      p.totalTasks,
		DedupSize:              p.ledger.Len(),
	}
}

// loop runs scheduled cycles until stopped. A failed cycle never stops the
// loop; the next tick retries. The stop signal interrupts only the
// inter-cycle sleep, never a cycle in flight.
func (p *Poller) loop(stop <-chan struct{}) {
	defer close(p.done)

	for {
		p.runScheduled()

		select {
		case <-stop:
			return
		case <-time.After(p.interval):
		}
	}
}

// runScheduled executes one scheduled cycle with panic isolation. The cycle
// runs under its own context so a concurrent Stop cannot cancel fetch or
// classification calls already in flight.
func (p *Poller) runScheduled() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("poll cycle panicked", "panic", r, "stack", string(debug.Stack()))
			p.recordCycle(CycleResult{}, OutcomeError, fmt.Errorf("panic: %v", r))
		}
	}()

	if p.window != nil && !p.inWindow(time.Now()) {
		return
	}

	p.runMu.Lock()
	defer p.runMu.Unlock()

	result, err := p.runCycle(context.Background(), "scheduled")
	switch {
	case err == nil:
		slog.Debug("poll cycle completed",
			"fetched", result.Fetched, "new", result.New,
			"tasks_created", result.TasksCreated, "failed", len(result.Errors))
	case errors.Is(err, ErrCredentialsMissing):
		slog.Warn("poll cycle skipped, credentials missing")
	default:
		slog.Error("poll cycle failed", "error", err)
	}
}

// inWindow reports whether the cron window matches the minute containing t.
func (p *Poller) inWindow(t time.Time) bool {
	minute := t.Truncate(time.Minute)
	return p.window.Next(minute.Add(-time.Second)).Equal(minute)
}
