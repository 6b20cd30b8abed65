// Package heartbeat provides liveness detection for the inboxd daemon. The
// serve process periodically writes a heartbeat file; the status command
// reads it to tell a live daemon from a crashed one.
package heartbeat

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Liveness represents the state of the daemon as seen from its heartbeat file.
type Liveness string

const (
	Alive Liveness = "alive"
	Stale Liveness = "stale"
	Dead  Liveness = "dead"
)

// PollSnapshot is the slice of poller state embedded in each heartbeat so the
// status command can report it without an HTTP round trip.
type PollSnapshot struct {
	Running      bool       `json:"running"`
	LastPollTime *time.Time `json:"last_poll_time,omitempty"`
	TasksCreated int        `json:"tasks_created"`
}

// Heartbeat is the data written to the heartbeat file.
type Heartbeat struct {
	PID       int          `json:"pid"`
	StartedAt time.Time    `json:"started_at"`
	Timestamp time.Time    `json:"timestamp"`
	Uptime    string       `json:"uptime"`
	Addr      string       `json:"addr,omitempty"` // gateway listen address
	Poll      PollSnapshot `json:"poll"`
}

// SnapshotFunc supplies the current poll snapshot for each heartbeat write.
type SnapshotFunc func() PollSnapshot

// Writer periodically writes a heartbeat file to disk.
type Writer struct {
	path     string
	addr     string
	interval time.Duration
	snapshot SnapshotFunc
	started  time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWriter creates a heartbeat writer that writes to path every 30s. The
// snapshot func may be nil.
func NewWriter(path, addr string, snapshot SnapshotFunc) *Writer {
	return &Writer{
		path:     path,
		addr:     addr,
		interval: 30 * time.Second,
		snapshot: snapshot,
	}
}

// Start begins writing heartbeat files in a background goroutine.
func (w *Writer) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return // already running
	}

	w.started = time.Now()
	w.done = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	// Write initial heartbeat immediately
	w.write()

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.write()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops writing and removes the heartbeat file.
func (w *Writer) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel == nil {
		return
	}

	w.cancel()
	<-w.done
	w.cancel = nil

	os.Remove(w.path)
}

func (w *Writer) write() {
	hb := Heartbeat{
		PID:       os.Getpid(),
		StartedAt: w.started,
		Timestamp: time.Now(),
		Uptime:    time.Since(w.started).Truncate(time.Second).String(),
		Addr:      w.addr,
	}
	if w.snapshot != nil {
		hb.Poll = w.snapshot()
	}

	data, err := json.MarshalIndent(hb, "", "  ")
	if err != nil {
		return
	}

	// Atomic write: tmp + rename
	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return
	}
	os.Rename(tmp, w.path)
}

// Check reads a heartbeat file and returns the liveness state. maxAge
// determines how old a heartbeat can be before it's considered stale.
func Check(path string, maxAge time.Duration) (Liveness, *Heartbeat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Dead, nil, nil
		}
		return Dead, nil, fmt.Errorf("read heartbeat: %w", err)
	}

	var hb Heartbeat
	if err := json.Unmarshal(data, &hb); err != nil {
		return Dead, nil, fmt.Errorf("unmarshal heartbeat: %w", err)
	}

	age := time.Since(hb.Timestamp)
	if age > maxAge {
		return Stale, &hb, nil
	}

	return Alive, &hb, nil
}
