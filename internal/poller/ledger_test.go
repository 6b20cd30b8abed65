package poller

import (
	"fmt"
	"sync"
	"testing"
)

func TestLedger(t *testing.T) {
	l := NewLedger()

	if l.Contains("m1") {
		t.Error("empty ledger should not contain m1")
	}
	if l.Len() != 0 {
		t.Errorf("Len: got %d, want 0", l.Len())
	}

	l.Insert("m1")
	l.Insert("m1") // duplicate insert is a no-op
	l.Insert("m2")

	if !l.Contains("m1") || !l.Contains("m2") {
		t.Error("inserted IDs should be present")
	}
	if l.Len() != 2 {
		t.Errorf("Len: got %d, want 2", l.Len())
	}
}

func TestLedgerConcurrent(t *testing.T) {
	l := NewLedger()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := fmt.Sprintf("m%d-%d", n, j)
				l.Insert(id)
				if !l.Contains(id) {
					t.Errorf("missing %s after insert", id)
				}
			}
		}(i)
	}
	wg.Wait()

	if l.Len() != 1000 {
		t.Errorf("Len: got %d, want 1000", l.Len())
	}
}
