// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"trimtrack/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	weights  map[int64]map[string]domain.WeightEntry
	profiles map[int64]domain.Profile
	analyses map[int64][]domain.CalorieAnalysis
	users    []*domain.User
	sessions map[string]*domain.Session

	userIDCounter int64
	now           func() time.Time
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		weights:  make(map[int64]map[string]domain.WeightEntry),
		profiles: make(map[int64]domain.Profile),
		analyses: make(map[int64][]domain.CalorieAnalysis),
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// Ensure interfaces are met.
var _ domain.WeightRepository = (*DB)(nil)
var _ domain.ProfileRepository = (*DB)(nil)
var _ domain.CalorieRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- WeightRepository ---

// ListWeightEntries returns all entries of userID ordered by day.
func (db *DB) ListWeightEntries(ctx context.Context, userID int64) ([]domain.WeightEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.WeightEntry, 0, len(db.weights[userID]))
	for _, e := range db.weights[userID] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// SaveWeightEntry inserts or replaces the entry with e.ID. Another entry on
// the same day is rejected.
func (db *DB) SaveWeightEntry(ctx context.Context, userID int64, e domain.WeightEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	entries, ok := db.weights[userID]
	if !ok {
		entries = make(map[string]domain.WeightEntry)
		db.weights[userID] = entries
	}
	for id, other := range entries {
		if id != e.ID && other.Day == e.Day {
			return fmt.Errorf("save %s: %w", e.Day, domain.ErrDuplicateDate)
		}
	}
	e.CreatedAt = e.CreatedAt.UTC()
	entries[e.ID] = e
	return nil
}

// ReplaceWeightEntry removes oldID and stores e under a single lock hold.
func (db *DB) ReplaceWeightEntry(ctx context.Context, userID int64, oldID string, e domain.WeightEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	entries, ok := db.weights[userID]
	if !ok {
		entries = make(map[string]domain.WeightEntry)
		db.weights[userID] = entries
	}
	for id, other := range entries {
		if id != e.ID && id != oldID && other.Day == e.Day {
			return fmt.Errorf("replace %s: %w", e.Day, domain.ErrDuplicateDate)
		}
	}
	delete(entries, oldID)
	e.CreatedAt = e.CreatedAt.UTC()
	entries[e.ID] = e
	return nil
}

// DeleteWeightEntry removes an entry and reports whether it existed.
func (db *DB) DeleteWeightEntry(ctx context.Context, userID int64, id string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.weights[userID][id]; !ok {
		return false, nil
	}
	delete(db.weights[userID], id)
	return true, nil
}

// --- ProfileRepository ---

// GetProfile returns a copy of the stored profile, or nil.
func (db *DB) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// SaveProfile upserts p.
func (db *DB) SaveProfile(ctx context.Context, p *domain.Profile) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.profiles[p.UserID] = *p
	return nil
}

// --- CalorieRepository ---

// AddAnalysis appends a to the user's food log.
func (db *DB) AddAnalysis(ctx context.Context, userID int64, a domain.CalorieAnalysis) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	a.Foods = append([]domain.FoodItem(nil), a.Foods...)
	db.analyses[userID] = append(db.analyses[userID], a)
	return nil
}

// ListAnalysesSince returns the analyses at or after since, newest first.
func (db *DB) ListAnalysesSince(ctx context.Context, userID int64, since time.Time) ([]domain.CalorieAnalysis, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.CalorieAnalysis
	for _, a := range db.analyses[userID] {
		if !a.Timestamp.Before(since) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// DeleteAnalysis removes an analysis and reports whether it existed.
func (db *DB) DeleteAnalysis(ctx context.Context, userID int64, id string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	list := db.analyses[userID]
	for i, a := range list {
		if a.ID == id {
			db.analyses[userID] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// --- UserRepository ---

// GetByUsername retrieves a user by username, case-insensitively.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	// Return nil if not found
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if strings.EqualFold(u.Username, username) {
			return nil, fmt.Errorf("create %q: %w", username, domain.ErrUsernameTaken)
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    db.now().UTC(),
	}
	db.users = append(db.users, u)
	cp := *u
	return &cp, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: r.db.now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token. Expired sessions are returned as
// well; the caller decides what expiry means.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := r.db.now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
