package app

import (
	"sync"

	"trimtrack/internal/domain"
)

// userLocks serializes load-mutate-persist cycles per user. Entries live only
// while some caller holds or waits on them.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*userLock)}
}

func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}

// held reports how many users currently have a lock entry.
func (l *userLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// InFlight rejects a second advisory submission for a user while the first is
// still running.
type InFlight struct {
	mu   sync.Mutex
	busy map[int64]struct{}
}

// NewInFlight returns an empty guard.
func NewInFlight() *InFlight {
	return &InFlight{busy: make(map[int64]struct{})}
}

// Acquire marks userID busy. It fails with domain.ErrAnalysisInProgress when
// the user already holds the guard. The returned func releases it.
func (g *InFlight) Acquire(userID int64) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.busy[userID]; ok {
		return nil, domain.ErrAnalysisInProgress
	}
	g.busy[userID] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.busy, userID)
		g.mu.Unlock()
	}, nil
}

// Busy reports whether userID currently holds the guard.
func (g *InFlight) Busy(userID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.busy[userID]
	return ok
}
