package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"trimtrack/internal/advisor"
	"trimtrack/internal/domain"
	"trimtrack/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// FoodAnalyzer turns a free-text meal into a food analysis.
type FoodAnalyzer interface {
	AnalyzeFood(ctx context.Context, input string) (*advisor.FoodAnalysis, error)
}

// CalorieService encapsulates food logging use cases.
type CalorieService struct {
	repo     domain.CalorieRepository
	profiles domain.ProfileRepository
	analyzer FoodAnalyzer
	inFlight *InFlight
	now      func() time.Time
	newID    func() string
}

// NewCalorieService creates a CalorieService. inFlight may be shared with
// other advisory services so a user runs one analysis at a time.
func NewCalorieService(repo domain.CalorieRepository, profiles domain.ProfileRepository, analyzer FoodAnalyzer, inFlight *InFlight) *CalorieService {
	if inFlight == nil {
		inFlight = NewInFlight()
	}
	return &CalorieService{
		repo:     repo,
		profiles: profiles,
		analyzer: analyzer,
		inFlight: inFlight,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *CalorieService) WithClock(now func() time.Time) *CalorieService {
	s.now = now
	return s
}

// WithIDGenerator overrides the id source. Intended for tests.
func (s *CalorieService) WithIDGenerator(newID func() string) *CalorieService {
	s.newID = newID
	return s
}

// CalorieHistory buckets analyses by age. Each bucket is newest first and
// the wider buckets include the narrower ones.
type CalorieHistory struct {
	Today     []domain.CalorieAnalysis `json:"today"`
	ThisWeek  []domain.CalorieAnalysis `json:"thisWeek"`
	ThisMonth []domain.CalorieAnalysis `json:"thisMonth"`
}

// DailySummary is the calorie balance of the current day.
type DailySummary struct {
	Date           string            `json:"date"`
	TotalCalories  float64           `json:"totalCalories"`
	Goal           int               `json:"dailyCalorieGoal"`
	Burned         int               `json:"dailyBurnedCalories"`
	Deficit        float64           `json:"calorieDeficit"`
	Remaining      float64           `json:"remainingCalories"`
	AnalysisCount  int               `json:"analysisCount"`
	Foods          []domain.FoodItem `json:"foods"`
	GoalPercentage float64           `json:"goalPercentage"`
}

// AnalyzeFood runs the analyzer on input and appends the result to the
// user's history. Nothing is stored when the analyzer fails.
func (s *CalorieService) AnalyzeFood(ctx context.Context, userID int64, input string) (_ *domain.CalorieAnalysis, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.calorie.analyze")
	defer func() { tracing.End(span, err) }()

	release, err := s.inFlight.Acquire(userID)
	if err != nil {
		return nil, err
	}
	defer release()

	res, err := s.analyzer.AnalyzeFood(ctx, input)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("food analysis failed")
		return nil, err
	}

	a := domain.CalorieAnalysis{
		ID:            s.newID(),
		Timestamp:     s.now().UTC(),
		OriginalInput: input,
		Foods:         make([]domain.FoodItem, 0, len(res.Foods)),
		TotalCalories: res.TotalCalories(),
		Nutrition:     res.Nutrition,
		Suggestions:   res.Suggestions,
		Confidence:    res.Confidence,
	}
	for _, f := range res.Foods {
		a.Foods = append(a.Foods, domain.FoodItem{
			ID:         s.newID(),
			Name:       f.Name,
			Calories:   f.Calories,
			Unit:       f.Unit,
			Quantity:   f.Quantity,
			Confidence: f.Confidence,
		})
	}
	if err := s.repo.AddAnalysis(ctx, userID, a); err != nil {
		return nil, fmt.Errorf("add analysis: %w", err)
	}
	return &a, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *CalorieService) since(ctx context.Context, userID int64, since time.Time) ([]domain.CalorieAnalysis, error) {
	list, err := s.repo.ListAnalysesSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.After(list[j].Timestamp) })
	return list, nil
}

// History returns the analyses of today, the last 7 days and the last 30
// days.
func (s *CalorieService) History(ctx context.Context, userID int64) (*CalorieHistory, error) {
	now := s.now()
	todayStart := startOfDay(now)
	weekStart := now.AddDate(0, 0, -7)
	monthStart := now.AddDate(0, 0, -30)

	list, err := s.since(ctx, userID, monthStart)
	if err != nil {
		return nil, err
	}

	h := &CalorieHistory{
		Today:     []domain.CalorieAnalysis{},
		ThisWeek:  []domain.CalorieAnalysis{},
		ThisMonth: []domain.CalorieAnalysis{},
	}
	for _, a := range list {
		if a.Timestamp.Before(monthStart) {
			continue
		}
		h.ThisMonth = append(h.ThisMonth, a)
		if !a.Timestamp.Before(weekStart) {
			h.ThisWeek = append(h.ThisWeek, a)
		}
		if !a.Timestamp.Before(todayStart) {
			h.Today = append(h.Today, a)
		}
	}
	return h, nil
}

// todayAnalyses returns the analyses recorded since local midnight.
func (s *CalorieService) todayAnalyses(ctx context.Context, userID int64) ([]domain.CalorieAnalysis, error) {
	return s.since(ctx, userID, startOfDay(s.now()))
}

// Today summarises the calorie balance of the current day. The deficit is
// burned minus eaten.
func (s *CalorieService) Today(ctx context.Context, userID int64) (*DailySummary, error) {
	now := s.now()
	profile, err := loadProfile(ctx, s.profiles, userID, now)
	if err != nil {
		return nil, err
	}
	list, err := s.todayAnalyses(ctx, userID)
	if err != nil {
		return nil, err
	}

	sum := &DailySummary{
		Date:          now.Format(domain.DayLayout),
		Goal:          profile.DailyCalorieGoal,
		Burned:        profile.DailyBurnedCalories,
		AnalysisCount: len(list),
		Foods:         []domain.FoodItem{},
	}
	for _, a := range list {
		sum.TotalCalories += a.TotalCalories
		sum.Foods = append(sum.Foods, a.Foods...)
	}
	sum.Deficit = float64(sum.Burned) - sum.TotalCalories
	sum.Remaining = float64(sum.Goal) - sum.TotalCalories
	if sum.Goal > 0 {
		sum.GoalPercentage = sum.TotalCalories / float64(sum.Goal) * 100
	}
	return sum, nil
}

// SetGoals updates the daily calorie goal and the expected daily burn. Nil
// values are left unchanged.
func (s *CalorieService) SetGoals(ctx context.Context, userID int64, goal, burned *int) (*domain.Profile, error) {
	patch := domain.ProfilePatch{DailyCalorieGoal: goal, DailyBurnedCalories: burned}
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

// Delete removes one analysis from the user's history.
func (s *CalorieService) Delete(ctx context.Context, userID int64, id string) error {
	ok, err := s.repo.DeleteAnalysis(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	if !ok {
		return fmt.Errorf("analysis %q: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Analyzing reports whether an advisory call is running for the user.
func (s *CalorieService) Analyzing(userID int64) bool {
	return s.inFlight.Busy(userID)
}
