package domain_test

import (
	"testing"
	"time"

	"trimtrack/internal/domain"
)

func TestComputeHealthMetrics(t *testing.T) {
	p := &domain.Profile{Age: 30, Gender: domain.Male, HeightCm: 180, ActivityLevel: domain.ModeratelyActive}
	m := domain.ComputeHealthMetrics(p, 80)

	// 10*80 + 6.25*180 - 5*30 + 5
	if !almostEqual(m.BMR, 1780, 1e-9) {
		t.Errorf("BMR = %v", m.BMR)
	}
	if !almostEqual(m.TDEE, 1780*1.55, 1e-9) {
		t.Errorf("TDEE = %v", m.TDEE)
	}
	if !almostEqual(m.BMI, 80/(1.8*1.8), 1e-9) {
		t.Errorf("BMI = %v", m.BMI)
	}
	if !almostEqual(m.IdealWeightRange.Min, 18.5*1.8*1.8, 1e-9) || !almostEqual(m.IdealWeightRange.Max, 23.9*1.8*1.8, 1e-9) {
		t.Errorf("ideal range = %+v", m.IdealWeightRange)
	}

	p.Gender = domain.Female
	m = domain.ComputeHealthMetrics(p, 80)
	if !almostEqual(m.BMR, 1614, 1e-9) {
		t.Errorf("female BMR = %v", m.BMR)
	}
}

func TestBMICategory(t *testing.T) {
	tests := map[float64]string{
		17:   "underweight",
		18.5: "normal",
		23.9: "normal",
		24:   "overweight",
		28:   "obese",
	}
	for bmi, want := range tests {
		if got := domain.BMICategory(bmi); got != want {
			t.Errorf("BMICategory(%v) = %q; want %q", bmi, got, want)
		}
	}
}

func TestProfileComplete(t *testing.T) {
	p := domain.NewProfile(1, time.Now())
	if p.Complete() {
		t.Fatal("fresh profile should be incomplete")
	}

	age, height := 30, 170.0
	p.Apply(domain.ProfilePatch{Age: &age, HeightCm: &height})
	if !p.Complete() {
		t.Fatal("expected complete profile")
	}

	var nilProfile *domain.Profile
	if nilProfile.Complete() {
		t.Fatal("nil profile should be incomplete")
	}
}

func TestProfileTarget(t *testing.T) {
	p := domain.NewProfile(1, time.Now())
	if p.Target(domain.Kilograms) != domain.DefaultTargetWeight {
		t.Fatalf("default target = %v", p.Target(domain.Kilograms))
	}
	if !almostEqual(p.Target(domain.Pounds), 65*2.20462, 1e-9) {
		t.Fatalf("target in lb = %v", p.Target(domain.Pounds))
	}
}
