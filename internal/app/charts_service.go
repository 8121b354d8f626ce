package app

import (
	"context"
	"fmt"
	"time"

	"trimtrack/internal/domain"
)

// MaxChartDays bounds the range of GetDaily.
const MaxChartDays = 366

// ChartsService encapsulates chart data retrieval use cases.
type ChartsService struct {
	weightRepo domain.WeightRepository
	now        func() time.Time
}

// NewChartsService creates a ChartsService backed by the given repository.
func NewChartsService(wr domain.WeightRepository) *ChartsService {
	return &ChartsService{weightRepo: wr, now: time.Now}
}

// WithClock overrides the time source. Intended for tests.
func (s *ChartsService) WithClock(now func() time.Time) *ChartsService {
	s.now = now
	return s
}

// DayPoint is a single data point returned by GetDaily.
type DayPoint struct {
	Day    string       `json:"day"`
	Weight *WeightPoint `json:"weight"`
}

// WeightPoint is the optional weight value within a DayPoint.
type WeightPoint struct {
	Value float64     `json:"value"`
	Unit  domain.Unit `json:"unit"`
}

// GetDaily returns one point per day for the last days days, oldest first,
// with weights converted to the requested unit. Days without an entry have a
// nil Weight.
func (s *ChartsService) GetDaily(ctx context.Context, userID int64, days int, unit domain.Unit) ([]DayPoint, error) {
	if !unit.Valid() {
		return nil, fmt.Errorf("%w: unit must be \"kg\" or \"lb\"", domain.ErrInvalidValue)
	}
	if days < 1 {
		return nil, fmt.Errorf("%w: days must be positive", domain.ErrInvalidValue)
	}
	if days > MaxChartDays {
		days = MaxChartDays
	}

	entries, err := s.weightRepo.ListWeightEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list weight entries: %w", err)
	}
	byDay := make(map[string]domain.WeightEntry, len(entries))
	for _, e := range entries {
		if prev, ok := byDay[e.Day]; !ok || e.CreatedAt.After(prev.CreatedAt) {
			byDay[e.Day] = e
		}
	}

	today := s.now()
	points := make([]DayPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		dayStr := today.AddDate(0, 0, -i).Format(domain.DayLayout)

		var wp *WeightPoint
		if e, ok := byDay[dayStr]; ok {
			wp = &WeightPoint{Value: e.In(unit), Unit: unit}
		}
		points = append(points, DayPoint{Day: dayStr, Weight: wp})
	}
	return points, nil
}
