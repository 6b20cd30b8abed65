package poller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inboxd/inboxd/internal/classify"
	"github.com/inboxd/inboxd/internal/config"
	"github.com/inboxd/inboxd/internal/events"
	"github.com/inboxd/inboxd/internal/mail"
	"github.com/inboxd/inboxd/internal/todo"
)

// fakeSource serves a fixed set of messages, or an error.
type fakeSource struct {
	mu         sync.Mutex
	msgs       []mail.Message
	err        error
	configured bool
	fetches    int
}

func (f *fakeSource) Fetch(ctx context.Context, limit int, unreadOnly bool) ([]mail.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetches++
	if f.err != nil {
		return nil, &mail.SourceError{Err: f.err}
	}
	if len(f.msgs) > limit {
		return f.msgs[:limit], nil
	}
	return f.msgs, nil
}

func (f *fakeSource) Configured() bool { return f.configured }

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

// fakeClassifier maps message IDs to verdicts or errors.
type fakeClassifier struct {
	verdicts map[string]classify.Verdict
	errs     map[string]error
}

func (f *fakeClassifier) Classify(ctx context.Context, msg mail.Message) (classify.Verdict, error) {
	if err, ok := f.errs[msg.ID]; ok {
		return classify.Verdict{}, &classify.ClassificationError{Err: err}
	}
	return f.verdicts[msg.ID], nil
}

// blockingClassifier parks in Classify until released. It honors context
// cancellation so an aborted call is visible as a classification error.
type blockingClassifier struct {
	entered chan struct{}
	release chan struct{}
	verdict classify.Verdict
}

func (b *blockingClassifier) Classify(ctx context.Context, msg mail.Message) (classify.Verdict, error) {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	select {
	case <-ctx.Done():
		return classify.Verdict{}, &classify.ClassificationError{Err: ctx.Err()}
	case <-b.release:
		return b.verdict, nil
	}
}

// ctxFailClassifier fails when its context is already done.
type ctxFailClassifier struct {
	verdict classify.Verdict
}

func (c *ctxFailClassifier) Classify(ctx context.Context, msg mail.Message) (classify.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return classify.Verdict{}, &classify.ClassificationError{Err: err}
	}
	return c.verdict, nil
}

type panickyClassifier struct{}

func (panickyClassifier) Classify(ctx context.Context, msg mail.Message) (classify.Verdict, error) {
	panic("classifier blew up")
}

// failingStore rejects creates for specific titles.
type failingStore struct {
	todo.Store
	failTitle string
}

func (f *failingStore) Create(t *todo.Todo) error {
	if t.Title == f.failTitle {
		return &todo.StoreError{Err: errors.New("disk full")}
	}
	return f.Store.Create(t)
}

func newTestPoller(t *testing.T, src mail.Source, cl classify.Classifier, store todo.Store) (*Poller, *events.Bus) {
	t.Helper()

	if store == nil {
		store = todo.NewFileStore(t.TempDir())
	}
	bus := events.NewBus(64)
	t.Cleanup(bus.Close)

	p, err := New(config.PollerConfig{Channel: "gmail"}, Deps{
		Source:     src,
		Classifier: cl,
		Todos:      store,
		Bus:        bus,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, bus
}

func twoMessages() []mail.Message {
	return []mail.Message{
		{ID: "m1", Sender: "boss@example.com", Subject: "Report", Body: "Send the report by Friday"},
		{ID: "m2", Sender: "news@example.com", Subject: "Digest", Body: "This week in tech"},
	}
}

func TestCycleCreatesTodosForActionableMessages(t *testing.T) {
	src := &fakeSource{msgs: twoMessages(), configured: true}
	cl := &fakeClassifier{verdicts: map[string]classify.Verdict{
		"m1": {Actionable: true, Title: "Send the report", DueDate: "2025-07-04", Priority: "high"},
		"m2": {Actionable: false},
	}}
	store := todo.NewFileStore(t.TempDir())
	p, _ := newTestPoller(t, src, cl, store)

	result, err := p.TriggerCycle(context.Background())
	if err != nil {
		t.Fatalf("TriggerCycle: %v", err)
	}
	if result.Fetched != 2 || result.New != 2 || result.TasksCreated != 1 {
		t.Errorf("result: %+v", result)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %+v", result.Errors)
	}

	todos, err := store.List(todo.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(todos) != 1 {
		t.Fatalf("todos: got %d, want 1", len(todos))
	}
	created := todos[0]
	if created.Title != "Send the report" {
		t.Errorf("title: got %q", created.Title)
	}
	if created.Priority != todo.PriorityHigh {
		t.Errorf("priority: got %q", created.Priority)
	}
	if created.DueDate != "2025-07-04" {
		t.Errorf("due date: got %q", created.DueDate)
	}
	if created.Source != "gmail" {
		t.Errorf("source: got %q", created.Source)
	}
	if created.Description != "From: boss@example.com\nSubject: Report" {
		t.Errorf("description: got %q", created.Description)
	}

	if !p.ledger.Contains("m1") || !p.ledger.Contains("m2") {
		t.Error("both messages should be marked handled")
	}
}

func TestCycleIsIdempotentAcrossRepolls(t *testing.T) {
	src := &fakeSource{msgs: twoMessages(), configured: true}
	cl := &fakeClassifier{verdicts: map[string]classify.Verdict{
		"m1": {Actionable: true, Title: "Send the report"},
	}}
	store := todo.NewFileStore(t.TempDir())
	p, _ := newTestPoller(t, src, cl, store)

	if _, err := p.TriggerCycle(context.Background()); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	result, err := p.TriggerCycle(context.Background())
	if err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if result.Fetched != 2 || result.New != 0 || result.TasksCreated != 0 {
		t.Errorf("re-poll result: %+v", result)
	}

	todos, _ := store.List(todo.ListFilter{})
	if len(todos) != 1 {
		t.Errorf("duplicate todos after re-poll: got %d", len(todos))
	}

	status := p.Status()
	if status.TotalMessagesProcessed != 2 {
		t.Errorf("TotalMessagesProcessed: got %d, want 2", status.TotalMessagesProcessed)
	}
	if status.TotalTasksCreated != 1 {
		t.Errorf("TotalTasksCreated: got %d, want 1", status.TotalTasksCreated)
	}
	if status.DedupSize != 2 {
		t.Errorf("DedupSize: got %d, want 2", status.DedupSize)
	}
}

func TestCycleIsolatesClassificationFailures(t *testing.T) {
	src := &fakeSource{msgs: twoMessages(), configured: true}
	cl := &fakeClassifier{
		verdicts: map[string]classify.Verdict{
			"m2": {Actionable: true, Title: "Read the digest"},
		},
		errs: map[string]error{"m1": errors.New("model timeout")},
	}
	store := todo.NewFileStore(t.TempDir())
	p, _ := newTestPoller(t, src, cl, store)

	result, err := p.TriggerCycle(context.Background())
	if err != nil {
		t.Fatalf("TriggerCycle: %v", err)
	}
	if result.TasksCreated != 1 {
		t.Errorf("healthy message should still produce a todo, result: %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].MessageID != "m1" {
		t.Errorf("errors: %+v", result.Errors)
	}

	// The failed message is marked handled and not retried.
	if !p.ledger.Contains("m1") {
		t.Error("failed message should be marked handled")
	}
	result, err = p.TriggerCycle(context.Background())
	if err != nil {
		t.Fatalf("re-poll: %v", err)
	}
	if result.New != 0 {
		t.Errorf("failed message was retried: %+v", result)
	}

	if p.Status().LastOutcome != OutcomeSuccess {
		t.Errorf("per-message failures should not fail the cycle, outcome: %q", p.Status().LastOutcome)
	}
}

func TestCycleIsolatesStoreFailures(t *testing.T) {
	src := &fakeSource{msgs: twoMessages(), configured: true}
	cl := &fakeClassifier{verdicts: map[string]classify.Verdict{
		"m1": {Actionable: true, Title: "doomed"},
		"m2": {Actionable: true, Title: "healthy"},
	}}
	base := todo.NewFileStore(t.TempDir())
	store := &failingStore{Store: base, failTitle: "doomed"}
	p, _ := newTestPoller(t, src, cl, store)

	result, err := p.TriggerCycle(context.Background())
	if err != nil {
		t.Fatalf("TriggerCycle: %v", err)
	}
	if result.TasksCreated != 1 {
		t.Errorf("result: %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].MessageID != "m1" {
		t.Errorf("errors: %+v", result.Errors)
	}
	if !p.ledger.Contains("m1") {
		t.Error("store-failed message should be marked handled")
	}
}

func TestCycleAbortsOnSourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("rate limited"), configured: true}
	cl := &fakeClassifier{}
	p, _ := newTestPoller(t, src, cl, nil)

	result, err := p.TriggerCycle(context.Background())
	var se *mail.SourceError
	if !errors.As(err, &se) {
		t.Fatalf("expected SourceError, got %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0].MessageID != "*" {
		t.Errorf("fetch failure should be recorded as a cycle-wide error, got %+v", result.Errors)
	}

	status := p.Status()
	if status.LastOutcome != OutcomeError {
		t.Errorf("outcome: got %q, want %q", status.LastOutcome, OutcomeError)
	}
	if status.LastError == "" {
		t.Error("expected error detail in status")
	}
	if status.DedupSize != 0 {
		t.Errorf("ledger should be untouched after fetch failure, size %d", status.DedupSize)
	}
}

func TestCycleSkipsWhenCredentialsMissing(t *testing.T) {
	src := &fakeSource{configured: false}
	p, _ := newTestPoller(t, src, &fakeClassifier{}, nil)

	_, err := p.TriggerCycle(context.Background())
	if !errors.Is(err, ErrCredentialsMissing) {
		t.Fatalf("got %v, want ErrCredentialsMissing", err)
	}
	if p.Status().LastOutcome != OutcomeCredentialsMissing {
		t.Errorf("outcome: got %q", p.Status().LastOutcome)
	}
	if src.fetchCount() != 0 {
		t.Error("should not fetch without credentials")
	}
}

func TestCycleSkipsActionableVerdictWithoutTitle(t *testing.T) {
	src := &fakeSource{msgs: []mail.Message{{ID: "m1", Sender: "a@b.c", Body: "hi"}}, configured: true}
	cl := &fakeClassifier{verdicts: map[string]classify.Verdict{
		"m1": {Actionable: true, Title: ""},
	}}
	store := todo.NewFileStore(t.TempDir())
	p, _ := newTestPoller(t, src, cl, store)

	result, err := p.TriggerCycle(context.Background())
	if err != nil {
		t.Fatalf("TriggerCycle: %v", err)
	}
	if result.TasksCreated != 0 {
		t.Errorf("titleless verdict should not create a todo: %+v", result)
	}
	if !p.ledger.Contains("m1") {
		t.Error("message should still be marked handled")
	}
}

func TestCycleRespectsBatchSize(t *testing.T) {
	var msgs []mail.Message
	for i := 0; i < 25; i++ {
		msgs = append(msgs, mail.Message{ID: fmt.Sprintf("m%d", i), Sender: "a@b.c", Body: "x"})
	}
	src := &fakeSource{msgs: msgs, configured: true}
	store := todo.NewFileStore(t.TempDir())

	bus := events.NewBus(64)
	t.Cleanup(bus.Close)
	p, err := New(config.PollerConfig{BatchSize: 5}, Deps{
		Source: src, Classifier: &fakeClassifier{}, Todos: store, Bus: bus,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := p.TriggerCycle(context.Background())
	if err != nil {
		t.Fatalf("TriggerCycle: %v", err)
	}
	if result.Fetched != 5 {
		t.Errorf("Fetched: got %d, want 5", result.Fetched)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	src := &fakeSource{configured: true}
	p, _ := newTestPoller(t, src, &fakeClassifier{}, nil)

	if p.Running() {
		t.Fatal("should not be running before Start")
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !p.Running() {
		t.Error("should be running after Start")
	}
	if err := p.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start: got %v, want ErrAlreadyRunning", err)
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if p.Running() {
		t.Error("should not be running after Stop")
	}
	if err := p.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("second Stop: got %v, want ErrNotRunning", err)
	}

	// Restart works.
	if err := p.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("stop after restart: %v", err)
	}
}

func TestStopDoesNotAbortInFlightClassification(t *testing.T) {
	src := &fakeSource{
		msgs:       []mail.Message{{ID: "m1", Sender: "boss@example.com", Subject: "Report", Body: "Send it"}},
		configured: true,
	}
	cl := &blockingClassifier{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
		verdict: classify.Verdict{Actionable: true, Title: "Send the report"},
	}
	store := todo.NewFileStore(t.TempDir())

	bus := events.NewBus(64)
	t.Cleanup(bus.Close)
	p, err := New(config.PollerConfig{Interval: config.Duration(time.Hour)}, Deps{
		Source: src, Classifier: cl, Todos: store, Bus: bus,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-cl.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("classification never started")
	}

	stopped := make(chan error, 1)
	go func() { stopped <- p.Stop() }()

	select {
	case err := <-stopped:
		t.Fatalf("Stop returned while a cycle was in flight: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(cl.release)

	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("Stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the cycle finished")
	}

	// The message was classified for real, not aborted and falsely marked
	// handled.
	todos, err := store.List(todo.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(todos) != 1 {
		t.Fatalf("todos after stop: got %d, want 1", len(todos))
	}
	status := p.Status()
	if status.LastOutcome != OutcomeSuccess {
		t.Errorf("outcome: got %q, want %q (error: %s)", status.LastOutcome, OutcomeSuccess, status.LastError)
	}
}

func TestTriggerCycleIgnoresCallerCancellation(t *testing.T) {
	src := &fakeSource{
		msgs:       []mail.Message{{ID: "m1", Sender: "boss@example.com", Subject: "Report", Body: "Send it"}},
		configured: true,
	}
	cl := &ctxFailClassifier{verdict: classify.Verdict{Actionable: true, Title: "Send the report"}}
	store := todo.NewFileStore(t.TempDir())
	p, _ := newTestPoller(t, src, cl, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := p.TriggerCycle(ctx)
	if err != nil {
		t.Fatalf("TriggerCycle: %v", err)
	}
	if result.TasksCreated != 1 || len(result.Errors) != 0 {
		t.Errorf("cancelled caller context leaked into the cycle: %+v", result)
	}
}

func TestScheduledCyclePanicIsRecordedInStatus(t *testing.T) {
	src := &fakeSource{
		msgs:       []mail.Message{{ID: "m1", Sender: "a@b.c", Body: "x"}},
		configured: true,
	}
	p, _ := newTestPoller(t, src, panickyClassifier{}, nil)

	p.runScheduled() // must not propagate

	status := p.Status()
	if status.LastOutcome != OutcomeError {
		t.Errorf("outcome: got %q, want %q", status.LastOutcome, OutcomeError)
	}
	if !strings.Contains(status.LastError, "panic") {
		t.Errorf("LastError: got %q, want panic detail", status.LastError)
	}
	if status.LastPollTime == nil {
		t.Error("LastPollTime should be set after a panicked cycle")
	}
}

func TestLoopRunsScheduledCycles(t *testing.T) {
	src := &fakeSource{msgs: twoMessages(), configured: true}
	cl := &fakeClassifier{verdicts: map[string]classify.Verdict{
		"m1": {Actionable: true, Title: "Send the report"},
	}}
	store := todo.NewFileStore(t.TempDir())

	bus := events.NewBus(64)
	t.Cleanup(bus.Close)

	completed := make(chan events.Event, 8)
	unsubscribe := bus.Subscribe(func(e events.Event) {
		select {
		case completed <- e:
		default:
		}
	}, events.EventPollCompleted)
	defer unsubscribe()

	p, err := New(config.PollerConfig{Interval: config.Duration(20 * time.Millisecond)}, Deps{
		Source: src, Classifier: cl, Todos: store, Bus: bus,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	select {
	case e := <-completed:
		payload, ok := events.ExtractPayload[events.PollCompletedPayload](e)
		if !ok {
			t.Fatal("could not extract payload")
		}
		if payload.Trigger != "scheduled" {
			t.Errorf("trigger: got %q", payload.Trigger)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no scheduled cycle within 2s")
	}

	todos, _ := store.List(todo.ListFilter{})
	if len(todos) != 1 {
		t.Errorf("todos after scheduled cycle: got %d, want 1", len(todos))
	}
}

func TestTriggerCycleWhileBusy(t *testing.T) {
	src := &fakeSource{configured: true}
	p, _ := newTestPoller(t, src, &fakeClassifier{}, nil)

	p.runMu.Lock()
	defer p.runMu.Unlock()

	if _, err := p.TriggerCycle(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("got %v, want ErrAlreadyRunning", err)
	}
}

func TestCycleEmitsEvents(t *testing.T) {
	src := &fakeSource{msgs: twoMessages(), configured: true}
	cl := &fakeClassifier{verdicts: map[string]classify.Verdict{
		"m1": {Actionable: true, Title: "Send the report"},
		"m2": {Actionable: false},
	}}
	store := todo.NewFileStore(t.TempDir())
	p, bus := newTestPoller(t, src, cl, store)

	got := make(chan events.Event, 16)
	unsubscribe := bus.Subscribe(func(e events.Event) { got <- e })
	defer unsubscribe()

	if _, err := p.TriggerCycle(context.Background()); err != nil {
		t.Fatalf("TriggerCycle: %v", err)
	}

	want := map[events.EventType]bool{
		events.EventPollStarted:    false,
		events.EventTaskCreated:    false,
		events.EventMessageSkipped: false,
		events.EventPollCompleted:  false,
	}
	deadline := time.After(2 * time.Second)
	for {
		allSeen := true
		for _, seen := range want {
			if !seen {
				allSeen = false
			}
		}
		if allSeen {
			break
		}
		select {
		case e := <-got:
			if _, ok := want[e.Type]; ok {
				want[e.Type] = true
			}
		case <-deadline:
			t.Fatalf("missing events, seen: %v", want)
		}
	}
}

func TestNewRejectsBadCronWindow(t *testing.T) {
	bus := events.NewBus(8)
	t.Cleanup(bus.Close)

	_, err := New(config.PollerConfig{CronWindow: "not a cron"}, Deps{
		Source:     &fakeSource{},
		Classifier: &fakeClassifier{},
		Todos:      todo.NewFileStore(t.TempDir()),
		Bus:        bus,
	})
	if err == nil {
		t.Fatal("expected error for invalid cron window")
	}
}

func TestInWindow(t *testing.T) {
	bus := events.NewBus(8)
	t.Cleanup(bus.Close)

	// Business hours on weekdays.
	p, err := New(config.PollerConfig{CronWindow: "* 9-17 * * 1-5"}, Deps{
		Source:     &fakeSource{},
		Classifier: &fakeClassifier{},
		Todos:      todo.NewFileStore(t.TempDir()),
		Bus:        bus,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// 2025-07-02 is a Wednesday.
	inside := time.Date(2025, 7, 2, 10, 30, 45, 0, time.UTC)
	if !p.inWindow(inside) {
		t.Error("10:30 Wednesday should be in window")
	}
	night := time.Date(2025, 7, 2, 3, 0, 0, 0, time.UTC)
	if p.inWindow(night) {
		t.Error("03:00 should be outside window")
	}
	sunday := time.Date(2025, 7, 6, 10, 30, 0, 0, time.UTC)
	if p.inWindow(sunday) {
		t.Error("Sunday should be outside window")
	}
}
