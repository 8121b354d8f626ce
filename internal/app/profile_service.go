package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trimtrack/internal/domain"
	"trimtrack/internal/ledger"
	"trimtrack/internal/telemetry/tracing"
)

// loadProfile returns the stored profile or a fresh one populated with
// defaults. The fresh profile is not persisted.
func loadProfile(ctx context.Context, profiles domain.ProfileRepository, userID int64, now time.Time) (*domain.Profile, error) {
	p, err := profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if p == nil {
		p = domain.NewProfile(userID, now)
	}
	return p, nil
}

// validateProfilePatch rejects values no real person has.
func validateProfilePatch(patch domain.ProfilePatch) error {
	switch {
	case patch.Age != nil && (*patch.Age < 1 || *patch.Age > 150):
		return fmt.Errorf("%w: age must be between 1 and 150", domain.ErrInvalidValue)
	case patch.HeightCm != nil && (*patch.HeightCm < 50 || *patch.HeightCm > 300):
		return fmt.Errorf("%w: height must be between 50 and 300 cm", domain.ErrInvalidValue)
	case patch.Gender != nil && *patch.Gender != domain.Male && *patch.Gender != domain.Female:
		return fmt.Errorf("%w: gender must be \"male\" or \"female\"", domain.ErrInvalidValue)
	case patch.ActivityLevel != nil && !validActivity(*patch.ActivityLevel):
		return fmt.Errorf("%w: unknown activity level %q", domain.ErrInvalidValue, *patch.ActivityLevel)
	case patch.DailyCalorieGoal != nil && *patch.DailyCalorieGoal <= 0:
		return fmt.Errorf("%w: calorie goal must be positive", domain.ErrInvalidValue)
	case patch.DailyBurnedCalories != nil && *patch.DailyBurnedCalories <= 0:
		return fmt.Errorf("%w: burned calories must be positive", domain.ErrInvalidValue)
	case patch.Name != nil && len(strings.TrimSpace(*patch.Name)) > 64:
		return fmt.Errorf("%w: name is too long", domain.ErrInvalidValue)
	}
	return nil
}

func validActivity(a domain.ActivityLevel) bool {
	switch a {
	case domain.Sedentary, domain.LightlyActive, domain.ModeratelyActive, domain.VeryActive:
		return true
	}
	return false
}

// ProfileService encapsulates profile and health-metric use cases.
type ProfileService struct {
	profiles domain.ProfileRepository
	users    domain.UserRepository
	weights  domain.WeightRepository
	now      func() time.Time
}

// NewProfileService creates a ProfileService backed by the given repositories.
func NewProfileService(profiles domain.ProfileRepository, users domain.UserRepository, weights domain.WeightRepository) *ProfileService {
	return &ProfileService{profiles: profiles, users: users, weights: weights, now: time.Now}
}

// WithClock overrides the time source. Intended for tests.
func (s *ProfileService) WithClock(now func() time.Time) *ProfileService {
	s.now = now
	return s
}

// PublicProfile is the view of a user shown to others.
type PublicProfile struct {
	Username string          `json:"username"`
	Profile  *domain.Profile `json:"profile"`
}

// MetricsView is the health-metrics payload.
type MetricsView struct {
	domain.HealthMetrics
	Category string  `json:"bmiCategory"`
	WeightKg float64 `json:"weightKg"`
}

// Get returns the user's profile, with defaults if none was saved yet.
func (s *ProfileService) Get(ctx context.Context, userID int64) (*domain.Profile, error) {
	return loadProfile(ctx, s.profiles, userID, s.now())
}

// GetByUsername returns the public profile of username.
func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*PublicProfile, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
	}
	p, err := loadProfile(ctx, s.profiles, user.ID, s.now())
	if err != nil {
		return nil, err
	}
	return &PublicProfile{Username: user.Username, Profile: p}, nil
}

// Update merges patch into the user's profile.
func (s *ProfileService) Update(ctx context.Context, userID int64, patch domain.ProfilePatch) (_ *domain.Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profile.update")
	defer func() { tracing.End(span, err) }()

	if err := validateProfilePatch(patch); err != nil {
		return nil, err
	}
	now := s.now()
	p, err := loadProfile(ctx, s.profiles, userID, now)
	if err != nil {
		return nil, err
	}
	p.Apply(patch)
	p.UpdatedAt = now
	if err := s.profiles.SaveProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

// Complete reports whether the profile is complete enough for advice.
func (s *ProfileService) Complete(ctx context.Context, userID int64) (bool, error) {
	p, err := loadProfile(ctx, s.profiles, userID, s.now())
	if err != nil {
		return false, err
	}
	return p.Complete(), nil
}

// HealthMetrics computes BMR, TDEE and BMI from the profile and the most
// recent ledger weight.
func (s *ProfileService) HealthMetrics(ctx context.Context, userID int64) (_ *MetricsView, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profile.metrics")
	defer func() { tracing.End(span, err) }()

	p, err := loadProfile(ctx, s.profiles, userID, s.now())
	if err != nil {
		return nil, err
	}
	if !p.Complete() {
		return nil, domain.ErrIncompleteProfile
	}
	weightKg, err := latestKg(ctx, s.weights, userID)
	if err != nil {
		return nil, err
	}
	m := domain.ComputeHealthMetrics(p, weightKg)
	return &MetricsView{HealthMetrics: m, Category: domain.BMICategory(m.BMI), WeightKg: weightKg}, nil
}

// latestKg returns the most recent ledger weight in kg.
func latestKg(ctx context.Context, weights domain.WeightRepository, userID int64) (float64, error) {
	entries, err := weights.ListWeightEntries(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list weight entries: %w", err)
	}
	cur, err := ledger.New(entries).MostRecent()
	if err != nil {
		return 0, err
	}
	return cur.In(domain.Kilograms), nil
}
