package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inboxd/inboxd/internal/events"
)

func TestEventLoggerWritesDailyFiles(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(16)
	t.Cleanup(bus.Close)

	el := NewEventLogger(dir, bus)
	defer el.Close()

	bus.Publish(events.NewTypedEvent(events.SourcePoller, events.PollStartedPayload{Trigger: "manual"}))
	bus.Publish(events.NewTypedEvent(events.SourcePoller, events.PollCompletedPayload{Trigger: "manual", Fetched: 2}))

	path := filepath.Join(dir, time.Now().Format("2006-01-02")+".jsonl")
	var lines []string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		lines = nil
		if f, err := os.Open(path); err == nil {
			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
			}
			f.Close()
		}
		if len(lines) >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(lines) != 2 {
		t.Fatalf("log lines: got %d, want 2", len(lines))
	}

	var e events.Event
	if err := json.Unmarshal([]byte(lines[0]), &e); err != nil {
		t.Fatalf("unmarshal first line: %v", err)
	}
	if e.Type != events.EventPollStarted {
		t.Errorf("first event type: got %q", e.Type)
	}
}

func TestEventLoggerCloseStopsWriting(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(16)
	t.Cleanup(bus.Close)

	el := NewEventLogger(dir, bus)
	el.Close()

	bus.Publish(events.NewTypedEvent(events.SourcePoller, events.PollStartedPayload{Trigger: "manual"}))
	time.Sleep(50 * time.Millisecond)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no log files after Close, found %d", len(entries))
	}
}
