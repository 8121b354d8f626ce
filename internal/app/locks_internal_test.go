package app

import (
	"sync"
	"testing"
)

func TestUserLocks_ReleasedEntriesAreDropped(t *testing.T) {
	l := newUserLocks()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  = map[int64]int{}
		overlap bool
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			unlock := l.lock(userID)
			defer unlock()

			mu.Lock()
			inside[userID]++
			if inside[userID] > 1 {
				overlap = true
			}
			mu.Unlock()

			mu.Lock()
			inside[userID]--
			mu.Unlock()
		}(int64(i % 5))
	}
	wg.Wait()

	if overlap {
		t.Error("two callers held the same user's lock at once")
	}
	if n := l.held(); n != 0 {
		t.Fatalf("expected no lock entries after release, got %d", n)
	}

	unlock := l.lock(7)
	if n := l.held(); n != 1 {
		t.Fatalf("expected one held entry, got %d", n)
	}
	unlock()
	if n := l.held(); n != 0 {
		t.Fatalf("expected entry dropped on unlock, got %d", n)
	}
}
