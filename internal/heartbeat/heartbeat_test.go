package heartbeat

import (
	"path/filepath"
	"testing"
	"time"
)

func TestWriterLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heartbeat.json")

	now := time.Now()
	w := NewWriter(path, "127.0.0.1:8420", func() PollSnapshot {
		return PollSnapshot{Running: true, LastPollTime: &now, TasksCreated: 3}
	})
	w.Start()

	state, hb, err := Check(path, time.Minute)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if state != Alive {
		t.Errorf("state: got %q, want %q", state, Alive)
	}
	if hb == nil {
		t.Fatal("expected heartbeat data")
	}
	if hb.Addr != "127.0.0.1:8420" {
		t.Errorf("addr: got %q", hb.Addr)
	}
	if !hb.Poll.Running || hb.Poll.TasksCreated != 3 {
		t.Errorf("poll snapshot: got %+v", hb.Poll)
	}

	w.Stop()

	state, _, err = Check(path, time.Minute)
	if err != nil {
		t.Fatalf("Check after stop: %v", err)
	}
	if state != Dead {
		t.Errorf("state after stop: got %q, want %q", state, Dead)
	}
}

func TestCheckStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heartbeat.json")

	w := NewWriter(path, "", nil)
	w.Start()
	defer w.Stop()

	// A tiny maxAge makes the just-written heartbeat look old.
	time.Sleep(10 * time.Millisecond)
	state, _, err := Check(path, time.Millisecond)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if state != Stale {
		t.Errorf("state: got %q, want %q", state, Stale)
	}
}

func TestCheckMissingFile(t *testing.T) {
	state, hb, err := Check(filepath.Join(t.TempDir(), "nope.json"), time.Minute)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if state != Dead || hb != nil {
		t.Errorf("got %q, %+v", state, hb)
	}
}
