package app

import (
	"context"
	"fmt"
	"time"

	"trimtrack/internal/advisor"
	"trimtrack/internal/domain"
	"trimtrack/internal/ledger"
	"trimtrack/internal/telemetry/tracing"
)

// Advisor produces diet suggestions and weight-loss plans.
type Advisor interface {
	DietSuggestions(ctx context.Context, req advisor.DietRequest) (*advisor.DietAdvice, error)
	WeightLossPlan(ctx context.Context, req advisor.PlanRequest) (*advisor.PlanAnalysis, error)
}

// planHistoryLen is how many recent weights are sent along with a plan request.
const planHistoryLen = 30

// AdviceService assembles advisory requests from the user's profile, ledger
// and food log.
type AdviceService struct {
	advisor  Advisor
	profiles domain.ProfileRepository
	weights  domain.WeightRepository
	calories *CalorieService
	inFlight *InFlight
	now      func() time.Time
}

// NewAdviceService creates an AdviceService. It shares the in-flight guard of
// calories.
func NewAdviceService(adv Advisor, profiles domain.ProfileRepository, weights domain.WeightRepository, calories *CalorieService) *AdviceService {
	return &AdviceService{
		advisor:  adv,
		profiles: profiles,
		weights:  weights,
		calories: calories,
		inFlight: calories.inFlight,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *AdviceService) WithClock(now func() time.Time) *AdviceService {
	s.now = now
	return s
}

// gather loads the profile, which must be complete, and a non-empty ledger.
func (s *AdviceService) gather(ctx context.Context, userID int64) (*domain.Profile, *ledger.Ledger, error) {
	p, err := loadProfile(ctx, s.profiles, userID, s.now())
	if err != nil {
		return nil, nil, err
	}
	if !p.Complete() {
		return nil, nil, domain.ErrIncompleteProfile
	}
	entries, err := s.weights.ListWeightEntries(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list weight entries: %w", err)
	}
	l := ledger.New(entries)
	if l.Len() == 0 {
		return nil, nil, domain.ErrEmptyLedger
	}
	return p, l, nil
}

// DietSuggestions asks the advisor what to eat for the rest of the day.
func (s *AdviceService) DietSuggestions(ctx context.Context, userID int64) (_ *advisor.DietAdvice, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.advice.diet")
	defer func() { tracing.End(span, err) }()

	p, l, err := s.gather(ctx, userID)
	if err != nil {
		return nil, err
	}
	today, err := s.calories.Today(ctx, userID)
	if err != nil {
		return nil, err
	}

	release, err := s.inFlight.Acquire(userID)
	if err != nil {
		return nil, err
	}
	defer release()

	cur, _ := l.MostRecent()
	return s.advisor.DietSuggestions(ctx, advisor.DietRequest{
		UserID:        userID,
		Profile:       *p,
		CurrentWeight: cur.In(domain.Kilograms),
		TargetWeight:  p.Target(domain.Kilograms),
		DailyCalories: today.TotalCalories,
		TodayFoods:    today.Foods,
	})
}

// WeightLossPlan asks the advisor for a plan from the current weight to the
// profile's target.
func (s *AdviceService) WeightLossPlan(ctx context.Context, userID int64) (_ *advisor.PlanAnalysis, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.advice.plan")
	defer func() { tracing.End(span, err) }()

	p, l, err := s.gather(ctx, userID)
	if err != nil {
		return nil, err
	}

	release, err := s.inFlight.Acquire(userID)
	if err != nil {
		return nil, err
	}
	defer release()

	recent := l.Recent(planHistoryLen)
	history := make([]advisor.HistoryPoint, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		history = append(history, advisor.HistoryPoint{Weight: recent[i].In(domain.Kilograms), Date: recent[i].Day})
	}

	cur, _ := l.MostRecent()
	return s.advisor.WeightLossPlan(ctx, advisor.PlanRequest{
		Profile:       *p,
		CurrentWeight: cur.In(domain.Kilograms),
		TargetWeight:  p.Target(domain.Kilograms),
		History:       history,
	})
}
