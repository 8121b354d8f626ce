package app

import (
	"context"
	"fmt"
	"time"

	"trimtrack/internal/domain"
	"trimtrack/internal/ledger"
	"trimtrack/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

// WeightService encapsulates weight-tracking use cases. Every call loads the
// user's ledger from the repository, applies the operation and persists the
// change.
type WeightService struct {
	repo     domain.WeightRepository
	profiles domain.ProfileRepository
	locks    *userLocks
	now      func() time.Time
	newID    func() string
	recorded func()
}

// NewWeightService creates a WeightService backed by the given repositories.
func NewWeightService(repo domain.WeightRepository, profiles domain.ProfileRepository) *WeightService {
	return &WeightService{
		repo:     repo,
		profiles: profiles,
		locks:    newUserLocks(),
		now:      time.Now,
		recorded: func() {},
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *WeightService) WithClock(now func() time.Time) *WeightService {
	s.now = now
	return s
}

// WithIDGenerator overrides the entry id source. Intended for tests.
func (s *WeightService) WithIDGenerator(newID func() string) *WeightService {
	s.newID = newID
	return s
}

// OnRecorded registers a callback run after each successful Record.
func (s *WeightService) OnRecorded(fn func()) *WeightService {
	s.recorded = fn
	return s
}

// RecordResult is returned by Record.
type RecordResult struct {
	Entry    domain.WeightEntry `json:"entry"`
	Replaced bool               `json:"replaced"`
}

// LatestView pairs the most recent entry with the one before it.
type LatestView struct {
	Current  *domain.WeightEntry `json:"current"`
	Previous *domain.WeightEntry `json:"previous"`
	Change   float64             `json:"change"`
	Unit     domain.Unit         `json:"unit"`
}

// StatsView is the statistics payload for one user.
type StatsView struct {
	ledger.Stats
	Progress   float64     `json:"progressPercentage"`
	Current    float64     `json:"currentWeight"`
	Start      float64     `json:"startWeight"`
	Target     float64     `json:"targetWeight"`
	Unit       domain.Unit `json:"unit"`
	EntryCount int         `json:"entryCount"`
}

func (s *WeightService) load(ctx context.Context, userID int64) (*ledger.Ledger, error) {
	entries, err := s.repo.ListWeightEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list weight entries: %w", err)
	}
	opts := []ledger.Option{ledger.WithClock(s.now)}
	if s.newID != nil {
		opts = append(opts, ledger.WithIDGenerator(s.newID))
	}
	return ledger.New(entries, opts...), nil
}

func checkPlausible(value float64, unit domain.Unit) error {
	if !unit.Valid() || !domain.ValidWeight(value) {
		// Left to the ledger, which reports the precise reason.
		return nil
	}
	if !domain.PlausibleWeight(value, unit) {
		return fmt.Errorf("%w: %s %s is outside the plausible range", domain.ErrInvalidValue, domain.FormatWeight(value), unit)
	}
	return nil
}

// Record adds a weight for day, replacing any entry already on that day. An
// empty day means today.
func (s *WeightService) Record(ctx context.Context, userID int64, value float64, unit domain.Unit, day, note string) (_ *RecordResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.weight.record")
	defer func() { tracing.End(span, err) }()

	if err := checkPlausible(value, unit); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	l, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	added, replaced, err := l.AddOrReplace(value, unit, day, note)
	if err != nil {
		return nil, err
	}
	if replaced != nil {
		if err := s.repo.ReplaceWeightEntry(ctx, userID, replaced.ID, added); err != nil {
			return nil, fmt.Errorf("replace weight entry: %w", err)
		}
	} else if err := s.repo.SaveWeightEntry(ctx, userID, added); err != nil {
		return nil, fmt.Errorf("save weight entry: %w", err)
	}

	s.recorded()
	log.WithFields(log.Fields{
		"user_id":  userID,
		"day":      added.Day,
		"replaced": replaced != nil,
	}).Debug("weight recorded")

	return &RecordResult{Entry: added, Replaced: replaced != nil}, nil
}

// Update applies patch to the entry with id.
func (s *WeightService) Update(ctx context.Context, userID int64, id string, patch domain.WeightPatch) (_ *domain.WeightEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.weight.update")
	defer func() { tracing.End(span, err) }()

	unlock := s.locks.lock(userID)
	defer unlock()

	l, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	updated, err := l.Update(id, patch)
	if err != nil {
		return nil, err
	}
	// The ledger is discarded on error, so checking after the update is safe.
	if err := checkPlausible(updated.Value, updated.Unit); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWeightEntry(ctx, userID, updated); err != nil {
		return nil, fmt.Errorf("save weight entry: %w", err)
	}
	return &updated, nil
}

// Delete removes the entry with id.
func (s *WeightService) Delete(ctx context.Context, userID int64, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.weight.delete")
	defer func() { tracing.End(span, err) }()

	unlock := s.locks.lock(userID)
	defer unlock()

	deleted, err := s.repo.DeleteWeightEntry(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete weight entry: %w", err)
	}
	if !deleted {
		return fmt.Errorf("entry %q: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List returns up to limit entries, newest first. limit <= 0 means all.
func (s *WeightService) List(ctx context.Context, userID int64, limit int) ([]domain.WeightEntry, error) {
	l, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return l.Recent(limit), nil
}

// Latest returns the most recent entry, the one before it, and the change
// between them in unit.
func (s *WeightService) Latest(ctx context.Context, userID int64, unit domain.Unit) (*LatestView, error) {
	l, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	cur, err := l.MostRecent()
	if err != nil {
		return nil, err
	}
	view := &LatestView{Current: &cur, Unit: unit}
	if prev, err := l.SecondMostRecent(); err == nil {
		view.Previous = &prev
		view.Change = l.Change(unit)
	}
	return view, nil
}

// Stats computes the statistics of the user's ledger in unit, against the
// profile's target weight.
func (s *WeightService) Stats(ctx context.Context, userID int64, unit domain.Unit) (_ *StatsView, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.weight.stats")
	defer func() { tracing.End(span, err) }()

	l, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := loadProfile(ctx, s.profiles, userID, s.now())
	if err != nil {
		return nil, err
	}

	entries := l.Snapshot()
	target := profile.Target(unit)
	view := &StatsView{
		Stats:      ledger.Compute(entries, target, unit, s.now()),
		Progress:   ledger.ProgressPercentage(entries, target, unit),
		Target:     target,
		Unit:       unit,
		EntryCount: len(entries),
	}
	if n := len(entries); n > 0 {
		view.Start = entries[0].In(unit)
		view.Current = entries[n-1].In(unit)
	}
	return view, nil
}

// SetTarget stores the goal weight on the user's profile.
func (s *WeightService) SetTarget(ctx context.Context, userID int64, value float64, unit domain.Unit) (_ *domain.Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.weight.settarget")
	defer func() { tracing.End(span, err) }()

	if !unit.Valid() {
		return nil, fmt.Errorf("%w: unit must be \"kg\" or \"lb\"", domain.ErrInvalidValue)
	}
	if !domain.PlausibleWeight(value, unit) {
		return nil, fmt.Errorf("%w: target %s %s is outside the plausible range", domain.ErrInvalidValue, domain.FormatWeight(value), unit)
	}

	now := s.now()
	profile, err := loadProfile(ctx, s.profiles, userID, now)
	if err != nil {
		return nil, err
	}
	profile.TargetWeight = value
	profile.TargetUnit = unit
	profile.UpdatedAt = now
	if err := s.profiles.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}
