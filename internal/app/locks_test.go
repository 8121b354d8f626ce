package app_test

import (
	"errors"
	"testing"

	"trimtrack/internal/app"
	"trimtrack/internal/domain"
)

func TestInFlight(t *testing.T) {
	g := app.NewInFlight()

	release, err := g.Acquire(1)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if !g.Busy(1) {
		t.Fatal("expected user 1 busy")
	}
	if _, err := g.Acquire(1); !errors.Is(err, domain.ErrAnalysisInProgress) {
		t.Fatalf("expected ErrAnalysisInProgress, got %v", err)
	}

	other, err := g.Acquire(2)
	if err != nil {
		t.Fatalf("other user must not be blocked: %v", err)
	}
	other()

	release()
	if g.Busy(1) {
		t.Fatal("expected user 1 released")
	}
	again, err := g.Acquire(1)
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	again()
}
