package domain_test

import (
	"errors"
	"math"
	"testing"

	"trimtrack/internal/domain"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestConvertWeight(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		from, to domain.Unit
		want     float64
	}{
		{"kg to lb", 100.0, "kg", "lb", 220.462},
		{"lb to kg", 220.462, "lb", "kg", 100.0},
		{"same unit kg", 80.0, "kg", "kg", 80.0},
		{"same unit lb", 180.0, "lb", "lb", 180.0},
		{"unknown units", 50.0, "st", "kg", 50.0},
		{"zero value", 0, "kg", "lb", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.ConvertWeight(tc.value, tc.from, tc.to)
			if !almostEqual(got, tc.want, 0.001) {
				t.Errorf("ConvertWeight(%v, %q, %q) = %v; want %v",
					tc.value, tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestConvertWeight_RoundTrip(t *testing.T) {
	for _, w := range []float64{0.1, 45.3, 70.5, 72.8, 199.99, 1234.5} {
		got := domain.ConvertWeight(domain.ConvertWeight(w, domain.Kilograms, domain.Pounds), domain.Pounds, domain.Kilograms)
		if !almostEqual(got, w, 1e-9) {
			t.Errorf("round trip of %v = %v", w, got)
		}
	}
}

func TestValidWeight(t *testing.T) {
	tests := []struct {
		v    float64
		want bool
	}{
		{70, true},
		{0.01, true},
		{0, false},
		{-1, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}
	for _, tc := range tests {
		if got := domain.ValidWeight(tc.v); got != tc.want {
			t.Errorf("ValidWeight(%v) = %v; want %v", tc.v, got, tc.want)
		}
	}
}

func TestPlausibleWeight(t *testing.T) {
	if !domain.PlausibleWeight(70, domain.Kilograms) {
		t.Error("70kg should be plausible")
	}
	if domain.PlausibleWeight(10, domain.Kilograms) {
		t.Error("10kg should not be plausible")
	}
	if !domain.PlausibleWeight(150, domain.Pounds) {
		t.Error("150lb should be plausible")
	}
	if domain.PlausibleWeight(700, domain.Pounds) {
		t.Error("700lb should not be plausible")
	}
	if domain.PlausibleWeight(70, "st") {
		t.Error("unknown unit should not be plausible")
	}
}

func TestParseUnit(t *testing.T) {
	u, err := domain.ParseUnit("", domain.Kilograms)
	if err != nil || u != domain.Kilograms {
		t.Fatalf("empty unit: got %q, %v", u, err)
	}
	u, err = domain.ParseUnit("lb", domain.Kilograms)
	if err != nil || u != domain.Pounds {
		t.Fatalf("lb: got %q, %v", u, err)
	}
	if _, err := domain.ParseUnit("stone", domain.Kilograms); !errors.Is(err, domain.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestFormatWeight(t *testing.T) {
	if got := domain.FormatWeight(70.46); got != "70.5" {
		t.Errorf("FormatWeight = %q", got)
	}
}
