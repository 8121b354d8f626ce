package app_test

import (
	"context"
	"testing"
	"time"

	"trimtrack/internal/advisor"
	"trimtrack/internal/app"
	"trimtrack/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adviceFixture(t *testing.T, profile *domain.Profile, entries []domain.WeightEntry, adv app.Advisor) (*app.AdviceService, *mockCalorieRepo) {
	t.Helper()
	_, weights := newWeightStore(entries...)
	profiles := profileStore(profile)
	calRepo := &mockCalorieRepo{}
	calories := newCalorieService(calRepo, profiles, &mockAnalyzer{})
	return app.NewAdviceService(adv, profiles, weights, calories).WithClock(fixedClock(noon)), calRepo
}

func twoWeights() []domain.WeightEntry {
	return []domain.WeightEntry{
		{ID: "a", Day: "2024-01-01", Value: 160, Unit: domain.Pounds},
		{ID: "b", Day: "2024-01-15", Value: 70, Unit: domain.Kilograms},
	}
}

func TestDietSuggestions_BuildsRequest(t *testing.T) {
	var got advisor.DietRequest
	adv := &mockAdvisor{dietFn: func(_ context.Context, req advisor.DietRequest) (*advisor.DietAdvice, error) {
		got = req
		return &advisor.DietAdvice{UserID: req.UserID}, nil
	}}
	p := completeProfile(1)
	p.TargetWeight = 132.277
	p.TargetUnit = domain.Pounds
	svc, calRepo := adviceFixture(t, p, twoWeights(), adv)
	require.NoError(t, calRepo.AddAnalysis(context.Background(), 1, domain.CalorieAnalysis{
		ID:            "x",
		Timestamp:     noon.Add(-time.Hour),
		TotalCalories: 450,
		Foods:         []domain.FoodItem{{Name: "oatmeal", Calories: 450}},
	}))

	res, err := svc.DietSuggestions(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.UserID)
	assert.Equal(t, int64(1), got.UserID)
	assert.Equal(t, 70.0, got.CurrentWeight)
	assert.InDelta(t, 60, got.TargetWeight, 0.001)
	assert.Equal(t, 450.0, got.DailyCalories)
	require.Len(t, got.TodayFoods, 1)
	assert.Equal(t, "oatmeal", got.TodayFoods[0].Name)
}

func TestDietSuggestions_Preconditions(t *testing.T) {
	adv := &mockAdvisor{dietFn: func(context.Context, advisor.DietRequest) (*advisor.DietAdvice, error) {
		t.Error("advisor must not be called")
		return nil, nil
	}}

	incomplete, _ := adviceFixture(t, domain.NewProfile(1, noon), twoWeights(), adv)
	_, err := incomplete.DietSuggestions(context.Background(), 1)
	require.ErrorIs(t, err, domain.ErrIncompleteProfile)

	noWeights, _ := adviceFixture(t, completeProfile(1), nil, adv)
	_, err = noWeights.DietSuggestions(context.Background(), 1)
	require.ErrorIs(t, err, domain.ErrEmptyLedger)
}

func TestWeightLossPlan_HistoryOldestFirstInKg(t *testing.T) {
	var got advisor.PlanRequest
	adv := &mockAdvisor{planFn: func(_ context.Context, req advisor.PlanRequest) (*advisor.PlanAnalysis, error) {
		got = req
		return &advisor.PlanAnalysis{}, nil
	}}
	svc, _ := adviceFixture(t, completeProfile(1), twoWeights(), adv)

	_, err := svc.WeightLossPlan(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got.History, 2)
	assert.Equal(t, "2024-01-01", got.History[0].Date)
	assert.InDelta(t, 160/2.20462, got.History[0].Weight, 1e-9)
	assert.Equal(t, "2024-01-15", got.History[1].Date)
	assert.Equal(t, 70.0, got.CurrentWeight)
	assert.Equal(t, domain.DefaultTargetWeight, got.TargetWeight)
}

func TestWeightLossPlan_MockAdvisorEndToEnd(t *testing.T) {
	svc, _ := adviceFixture(t, completeProfile(1), twoWeights(), advisor.New(advisor.Config{}))

	res, err := svc.WeightLossPlan(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Plan.UserID)
	assert.Equal(t, 10, res.Plan.EstimatedWeeks)
	require.NotNil(t, res.HealthMetrics)
}

func TestAdvice_SharesInFlightGuard(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	adv := &mockAdvisor{planFn: func(context.Context, advisor.PlanRequest) (*advisor.PlanAnalysis, error) {
		close(started)
		<-release
		return &advisor.PlanAnalysis{}, nil
	}}
	svc, _ := adviceFixture(t, completeProfile(1), twoWeights(), adv)

	done := make(chan error, 1)
	go func() {
		_, err := svc.WeightLossPlan(context.Background(), 1)
		done <- err
	}()
	<-started

	_, err := svc.DietSuggestions(context.Background(), 1)
	require.ErrorIs(t, err, domain.ErrAnalysisInProgress)

	close(release)
	require.NoError(t, <-done)
}
