package poller

import "sync"

// Ledger tracks which message IDs have already been handled so a message is
// classified at most once per process lifetime. It is in-memory only; after
// a restart the inbox is re-inspected from scratch.
type Ledger struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{seen: make(map[string]struct{})}
}

// Contains reports whether the message ID has been handled.
func (l *Ledger) Contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.seen[id]
	return ok
}

// Insert marks a message ID as handled.
func (l *Ledger) Insert(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seen[id] = struct{}{}
}

// Len returns the number of handled message IDs.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.seen)
}
