// Package ledger holds the per-user weight ledger and the statistics derived
// from it. Nothing in this package performs I/O.
package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"trimtrack/internal/domain"

	"github.com/google/uuid"
)

// Ledger is an ordered collection of weight entries, at most one per day.
// Entries are kept in ascending day order. All mutations are serialized.
type Ledger struct {
	mu      sync.RWMutex
	entries []domain.WeightEntry

	now   func() time.Time
	newID func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used for "today" and creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides the entry identifier generator.
func WithIDGenerator(f func() string) Option {
	return func(l *Ledger) { l.newID = f }
}

// New returns a ledger seeded with entries. When the seed holds several
// entries for one day, the most recently created one wins.
func New(entries []domain.WeightEntry, opts ...Option) *Ledger {
	l := &Ledger{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}

	byDay := make(map[string]domain.WeightEntry, len(entries))
	for _, e := range entries {
		if prev, ok := byDay[e.Day]; ok && prev.CreatedAt.After(e.CreatedAt) {
			continue
		}
		byDay[e.Day] = e
	}
	l.entries = make([]domain.WeightEntry, 0, len(byDay))
	for _, e := range byDay {
		l.entries = append(l.entries, e)
	}
	l.sort()
	return l
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// AddOrReplace records a weight for day, or for today when day is empty. An
// existing entry for the same day is replaced by a new entry with a fresh
// identifier and returned as replaced.
func (l *Ledger) AddOrReplace(value float64, unit domain.Unit, day, note string) (added domain.WeightEntry, replaced *domain.WeightEntry, err error) {
	if !domain.ValidWeight(value) {
		return domain.WeightEntry{}, nil, fmt.Errorf("%w: weight must be a positive finite number", domain.ErrInvalidValue)
	}
	if !unit.Valid() {
		return domain.WeightEntry{}, nil, fmt.Errorf("%w: unit must be \"kg\" or \"lb\"", domain.ErrInvalidValue)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if day == "" {
		day = now.Format(domain.DayLayout)
	}
	day, err = normalizeDay(day)
	if err != nil {
		return domain.WeightEntry{}, nil, err
	}

	added = domain.WeightEntry{
		ID:        l.newID(),
		Day:       day,
		Value:     value,
		Unit:      unit,
		Note:      note,
		CreatedAt: now.UTC(),
	}

	if i := l.indexOfDay(day); i >= 0 {
		prev := l.entries[i]
		replaced = &prev
		l.entries[i] = added
		return added, replaced, nil
	}

	l.entries = append(l.entries, added)
	l.sort()
	return added, nil, nil
}

// Update merges patch into the entry identified by id. Moving an entry onto a
// day that already holds another entry fails with domain.ErrDuplicateDate.
func (l *Ledger) Update(id string, patch domain.WeightPatch) (domain.WeightEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOfID(id)
	if i < 0 {
		return domain.WeightEntry{}, fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
	}
	e := l.entries[i]

	if patch.Value != nil {
		if !domain.ValidWeight(*patch.Value) {
			return domain.WeightEntry{}, fmt.Errorf("%w: weight must be a positive finite number", domain.ErrInvalidValue)
		}
		e.Value = *patch.Value
	}
	if patch.Unit != nil {
		if !patch.Unit.Valid() {
			return domain.WeightEntry{}, fmt.Errorf("%w: unit must be \"kg\" or \"lb\"", domain.ErrInvalidValue)
		}
		e.Unit = *patch.Unit
	}
	if patch.Note != nil {
		e.Note = *patch.Note
	}

	resort := false
	if patch.Day != nil {
		day, err := normalizeDay(*patch.Day)
		if err != nil {
			return domain.WeightEntry{}, err
		}
		if day != e.Day {
			if j := l.indexOfDay(day); j >= 0 {
				return domain.WeightEntry{}, fmt.Errorf("%s: %w", day, domain.ErrDuplicateDate)
			}
			e.Day = day
			resort = true
		}
	}

	l.entries[i] = e
	if resort {
		l.sort()
	}
	return e, nil
}

// Delete removes the entry identified by id and returns it.
func (l *Ledger) Delete(id string) (domain.WeightEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOfID(id)
	if i < 0 {
		return domain.WeightEntry{}, fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
	}
	removed := l.entries[i]
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	return removed, nil
}

// Get returns the entry identified by id.
func (l *Ledger) Get(id string) (domain.WeightEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.indexOfID(id)
	if i < 0 {
		return domain.WeightEntry{}, fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
	}
	return l.entries[i], nil
}

// MostRecent returns the latest entry by day.
func (l *Ledger) MostRecent() (domain.WeightEntry, error) {
	return l.fromEnd(1)
}

// SecondMostRecent returns the entry before the latest one.
func (l *Ledger) SecondMostRecent() (domain.WeightEntry, error) {
	return l.fromEnd(2)
}

// Change returns the most recent weight minus the one before it, in unit.
// It is 0 when fewer than two entries exist.
func (l *Ledger) Change(unit domain.Unit) float64 {
	cur, err := l.MostRecent()
	if err != nil {
		return 0
	}
	prev, err := l.SecondMostRecent()
	if err != nil {
		return 0
	}
	return cur.In(unit) - prev.In(unit)
}

// Snapshot returns a copy of the entries, oldest first.
func (l *Ledger) Snapshot() []domain.WeightEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.WeightEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Recent returns up to n entries, newest first.
func (l *Ledger) Recent(n int) []domain.WeightEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]domain.WeightEntry, 0, n)
	for i := len(l.entries) - 1; i >= len(l.entries)-n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

func (l *Ledger) fromEnd(k int) (domain.WeightEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) < k {
		return domain.WeightEntry{}, domain.ErrEmptyLedger
	}
	return l.entries[len(l.entries)-k], nil
}

func (l *Ledger) indexOfID(id string) int {
	for i := range l.entries {
		if l.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) indexOfDay(day string) int {
	for i := range l.entries {
		if l.entries[i].Day == day {
			return i
		}
	}
	return -1
}

func (l *Ledger) sort() {
	sort.SliceStable(l.entries, func(i, j int) bool {
		return l.entries[i].Day < l.entries[j].Day
	})
}

func normalizeDay(day string) (string, error) {
	t, err := time.Parse(domain.DayLayout, day)
	if err != nil {
		return "", fmt.Errorf("%w: day must be YYYY-MM-DD", domain.ErrInvalidValue)
	}
	return t.Format(domain.DayLayout), nil
}
