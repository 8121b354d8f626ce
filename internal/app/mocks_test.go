package app_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"trimtrack/internal/advisor"
	"trimtrack/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type mockWeightRepo struct {
	listFn    func(ctx context.Context, userID int64) ([]domain.WeightEntry, error)
	saveFn    func(ctx context.Context, userID int64, e domain.WeightEntry) error
	deleteFn  func(ctx context.Context, userID int64, id string) (bool, error)
	replaceFn func(ctx context.Context, userID int64, oldID string, e domain.WeightEntry) error
}

func (m *mockWeightRepo) ListWeightEntries(ctx context.Context, userID int64) ([]domain.WeightEntry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockWeightRepo) SaveWeightEntry(ctx context.Context, userID int64, e domain.WeightEntry) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, userID, e)
	}
	return nil
}

func (m *mockWeightRepo) DeleteWeightEntry(ctx context.Context, userID int64, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return false, nil
}

func (m *mockWeightRepo) ReplaceWeightEntry(ctx context.Context, userID int64, oldID string, e domain.WeightEntry) error {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, userID, oldID, e)
	}
	return nil
}

// weightStore wires a mockWeightRepo to a map so services can round-trip.
type weightStore struct {
	mu      sync.Mutex
	entries map[string]domain.WeightEntry
	saves    int
	deletes  int
	replaces int
}

func newWeightStore(seed ...domain.WeightEntry) (*weightStore, *mockWeightRepo) {
	s := &weightStore{entries: map[string]domain.WeightEntry{}}
	for _, e := range seed {
		s.entries[e.ID] = e
	}
	repo := &mockWeightRepo{
		listFn: func(_ context.Context, _ int64) ([]domain.WeightEntry, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			out := make([]domain.WeightEntry, 0, len(s.entries))
			for _, e := range s.entries {
				out = append(out, e)
			}
			sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
			return out, nil
		},
		saveFn: func(_ context.Context, _ int64, e domain.WeightEntry) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.saves++
			s.entries[e.ID] = e
			return nil
		},
		deleteFn: func(_ context.Context, _ int64, id string) (bool, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.deletes++
			_, ok := s.entries[id]
			delete(s.entries, id)
			return ok, nil
		},
		replaceFn: func(_ context.Context, _ int64, oldID string, e domain.WeightEntry) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.replaces++
			delete(s.entries, oldID)
			s.entries[e.ID] = e
			return nil
		},
	}
	return s, repo
}

func (s *weightStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

type mockProfileRepo struct {
	getFn  func(ctx context.Context, userID int64) (*domain.Profile, error)
	saveFn func(ctx context.Context, p *domain.Profile) error
}

func (m *mockProfileRepo) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockProfileRepo) SaveProfile(ctx context.Context, p *domain.Profile) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, p)
	}
	return nil
}

// profileStore keeps the last saved profile.
func profileStore(initial *domain.Profile) *mockProfileRepo {
	var mu sync.Mutex
	current := initial
	return &mockProfileRepo{
		getFn: func(context.Context, int64) (*domain.Profile, error) {
			mu.Lock()
			defer mu.Unlock()
			if current == nil {
				return nil, nil
			}
			cp := *current
			return &cp, nil
		},
		saveFn: func(_ context.Context, p *domain.Profile) error {
			mu.Lock()
			defer mu.Unlock()
			cp := *p
			current = &cp
			return nil
		},
	}
}

func completeProfile(userID int64) *domain.Profile {
	p := domain.NewProfile(userID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	p.Age = 30
	p.HeightCm = 165
	return p
}

type mockUserRepo struct {
	getByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	getByIDFn       func(ctx context.Context, id int64) (*domain.User, error)
	createFn        func(ctx context.Context, username, passwordHash string) (*domain.User, error)
	countFn         func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, username, passwordHash)
	}
	return &domain.User{ID: 1, Username: username, PasswordHash: passwordHash}, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context) error
}

func (m *mockSessionRepo) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	if m.createFn != nil {
		return m.createFn(ctx, userID, token, expiresAt)
	}
	return nil
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) error {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return nil
}

type mockCalorieRepo struct {
	mu       sync.Mutex
	analyses []domain.CalorieAnalysis
	addErr   error
}

func (m *mockCalorieRepo) AddAnalysis(_ context.Context, _ int64, a domain.CalorieAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	m.analyses = append(m.analyses, a)
	return nil
}

func (m *mockCalorieRepo) ListAnalysesSince(_ context.Context, _ int64, since time.Time) ([]domain.CalorieAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CalorieAnalysis
	for _, a := range m.analyses {
		if !a.Timestamp.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockCalorieRepo) DeleteAnalysis(_ context.Context, _ int64, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.analyses {
		if a.ID == id {
			m.analyses = append(m.analyses[:i], m.analyses[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCalorieRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.analyses)
}

type mockAnalyzer struct {
	analyzeFn func(ctx context.Context, input string) (*advisor.FoodAnalysis, error)
}

func (m *mockAnalyzer) AnalyzeFood(ctx context.Context, input string) (*advisor.FoodAnalysis, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, input)
	}
	return nil, errors.New("not configured")
}

type mockAdvisor struct {
	dietFn func(ctx context.Context, req advisor.DietRequest) (*advisor.DietAdvice, error)
	planFn func(ctx context.Context, req advisor.PlanRequest) (*advisor.PlanAnalysis, error)
}

func (m *mockAdvisor) DietSuggestions(ctx context.Context, req advisor.DietRequest) (*advisor.DietAdvice, error) {
	if m.dietFn != nil {
		return m.dietFn(ctx, req)
	}
	return &advisor.DietAdvice{UserID: req.UserID}, nil
}

func (m *mockAdvisor) WeightLossPlan(ctx context.Context, req advisor.PlanRequest) (*advisor.PlanAnalysis, error) {
	if m.planFn != nil {
		return m.planFn(ctx, req)
	}
	return &advisor.PlanAnalysis{}, nil
}
