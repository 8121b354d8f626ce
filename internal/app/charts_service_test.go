package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"trimtrack/internal/app"
	"trimtrack/internal/domain"
)

func chartsRepo(entries ...domain.WeightEntry) *mockWeightRepo {
	return &mockWeightRepo{
		listFn: func(context.Context, int64) ([]domain.WeightEntry, error) { return entries, nil },
	}
}

func TestGetDaily_BadInput(t *testing.T) {
	svc := app.NewChartsService(chartsRepo())
	if _, err := svc.GetDaily(context.Background(), 1, 7, "stones"); !errors.Is(err, domain.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue for bad unit, got %v", err)
	}
	if _, err := svc.GetDaily(context.Background(), 1, 0, domain.Kilograms); !errors.Is(err, domain.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue for zero days, got %v", err)
	}
}

func TestGetDaily_Success(t *testing.T) {
	repo := chartsRepo(
		domain.WeightEntry{ID: "a", Day: "2024-01-14", Value: 80, Unit: domain.Kilograms},
		domain.WeightEntry{ID: "b", Day: "2024-01-16", Value: 79.5, Unit: domain.Kilograms},
	)

	svc := app.NewChartsService(repo).WithClock(fixedClock(jan16))
	points, err := svc.GetDaily(context.Background(), 1, 3, domain.Kilograms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[0].Day != "2024-01-14" || points[2].Day != "2024-01-16" {
		t.Errorf("unexpected day range %s..%s", points[0].Day, points[2].Day)
	}
	if points[0].Weight == nil || points[0].Weight.Value != 80 {
		t.Errorf("expected weight 80, got %v", points[0].Weight)
	}
	if points[1].Weight != nil {
		t.Errorf("expected gap on 2024-01-15, got %v", points[1].Weight)
	}
	if points[2].Weight == nil || points[2].Weight.Value != 79.5 {
		t.Errorf("expected weight 79.5, got %v", points[2].Weight)
	}
}

func TestGetDaily_ConvertUnit(t *testing.T) {
	repo := chartsRepo(domain.WeightEntry{ID: "a", Day: "2024-01-16", Value: 100, Unit: domain.Kilograms})

	svc := app.NewChartsService(repo).WithClock(fixedClock(jan16))
	points, err := svc.GetDaily(context.Background(), 1, 1, domain.Pounds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	if points[0].Weight == nil || points[0].Weight.Value < 220 || points[0].Weight.Value > 221 {
		t.Errorf("expected ~220.46 lb, got %v", points[0].Weight)
	}
	if points[0].Weight.Unit != domain.Pounds {
		t.Errorf("expected lb, got %s", points[0].Weight.Unit)
	}
}

func TestGetDaily_ClampsTo366(t *testing.T) {
	svc := app.NewChartsService(chartsRepo())
	points, err := svc.GetDaily(context.Background(), 1, 500, domain.Kilograms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 366 {
		t.Fatalf("expected 366 points (clamped), got %d", len(points))
	}
}

func TestGetDaily_NewestWinsOnDuplicateDay(t *testing.T) {
	base := time.Date(2024, 1, 16, 7, 0, 0, 0, time.UTC)
	repo := chartsRepo(
		domain.WeightEntry{ID: "late", Day: "2024-01-16", Value: 79, Unit: domain.Kilograms, CreatedAt: base.Add(time.Hour)},
		domain.WeightEntry{ID: "early", Day: "2024-01-16", Value: 81, Unit: domain.Kilograms, CreatedAt: base},
	)
	svc := app.NewChartsService(repo).WithClock(fixedClock(jan16))

	points, err := svc.GetDaily(context.Background(), 1, 1, domain.Kilograms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if points[0].Weight == nil || points[0].Weight.Value != 79 {
		t.Errorf("expected newest value 79, got %v", points[0].Weight)
	}
}
