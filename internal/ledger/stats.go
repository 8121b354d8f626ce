package ledger

import (
	"math"
	"time"

	"trimtrack/internal/domain"
)

// Stats are the aggregate metrics derived from a ledger snapshot and a
// target weight. They are recomputed on every request.
type Stats struct {
	TotalLoss     float64 `json:"totalLoss"`
	WeeklyLoss    float64 `json:"weeklyLoss"`
	MonthlyLoss   float64 `json:"monthlyLoss"`
	AverageWeekly float64 `json:"averageWeekly"`
	DaysToGoal    int     `json:"daysToGoal"`
}

const (
	weekDays  = 7
	monthDays = 30
)

// Compute derives all Stats from entries (oldest first), expressing every
// weight in unit. target must already be in unit.
func Compute(entries []domain.WeightEntry, target float64, unit domain.Unit, now time.Time) Stats {
	if len(entries) == 0 {
		return Stats{}
	}
	return Stats{
		TotalLoss:     TotalLoss(entries, unit),
		WeeklyLoss:    WeeklyLoss(entries, unit, now),
		MonthlyLoss:   MonthlyLoss(entries, unit, now),
		AverageWeekly: AverageWeekly(entries, unit),
		DaysToGoal:    DaysToGoal(entries, target, unit),
	}
}

// TotalLoss is the first weight minus the last. Positive means net loss.
func TotalLoss(entries []domain.WeightEntry, unit domain.Unit) float64 {
	if len(entries) == 0 {
		return 0
	}
	return entries[0].In(unit) - entries[len(entries)-1].In(unit)
}

// WeeklyLoss is the weight of the earliest entry dated within the last 7
// days minus the last weight. It is 0 when no entry falls in the window.
func WeeklyLoss(entries []domain.WeightEntry, unit domain.Unit, now time.Time) float64 {
	start, ok := firstInWindow(entries, now, weekDays)
	if !ok {
		return 0
	}
	return start.In(unit) - entries[len(entries)-1].In(unit)
}

// MonthlyLoss is WeeklyLoss over a 30 day window, falling back to TotalLoss
// when no entry falls in the window.
func MonthlyLoss(entries []domain.WeightEntry, unit domain.Unit, now time.Time) float64 {
	start, ok := firstInWindow(entries, now, monthDays)
	if !ok {
		return TotalLoss(entries, unit)
	}
	return start.In(unit) - entries[len(entries)-1].In(unit)
}

// AverageWeekly divides TotalLoss by the number of entries over seven, with a
// floor of one week. The divisor approximates elapsed weeks by record count
// rather than calendar span, so sparse or bursty logging skews it and
// DaysToGoal inherits the skew.
func AverageWeekly(entries []domain.WeightEntry, unit domain.Unit) float64 {
	if len(entries) == 0 {
		return 0
	}
	weeks := math.Max(1, float64(len(entries))/weekDays)
	return TotalLoss(entries, unit) / weeks
}

// DaysToGoal projects the days needed to reach target at the average daily
// loss rate. It is 0 when the goal is already met or no progress is being made.
func DaysToGoal(entries []domain.WeightEntry, target float64, unit domain.Unit) int {
	if len(entries) == 0 {
		return 0
	}
	needToLose := entries[len(entries)-1].In(unit) - target
	if needToLose <= 0 {
		return 0
	}
	avgDailyLoss := AverageWeekly(entries, unit) / weekDays
	if avgDailyLoss <= 0 {
		return 0
	}
	days := math.Ceil(needToLose / avgDailyLoss)
	if days > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(days)
}

// ProgressPercentage is the share of the distance from the first weight to
// target already covered, clamped to [0, 100].
func ProgressPercentage(entries []domain.WeightEntry, target float64, unit domain.Unit) float64 {
	if len(entries) == 0 {
		return 0
	}
	first := entries[0].In(unit)
	if first <= target {
		return 100
	}
	last := entries[len(entries)-1].In(unit)
	pct := (first - last) / (first - target) * 100
	return math.Min(100, math.Max(0, pct))
}

// firstInWindow returns the earliest entry dated on or after the day that lies
// days before now. Comparison is by calendar day in now's location.
func firstInWindow(entries []domain.WeightEntry, now time.Time, days int) (domain.WeightEntry, bool) {
	cutoff := now.AddDate(0, 0, -days).Format(domain.DayLayout)
	for _, e := range entries {
		if e.Day >= cutoff {
			return e, true
		}
	}
	return domain.WeightEntry{}, false
}
