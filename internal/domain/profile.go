package domain

import (
	"context"
	"math"
	"time"
)

// Gender is used by the BMR equation.
type Gender string

// Supported genders.
const (
	Male   Gender = "male"
	Female Gender = "female"
)

// ActivityLevel selects the TDEE multiplier.
type ActivityLevel string

// Supported activity levels.
const (
	Sedentary        ActivityLevel = "sedentary"
	LightlyActive    ActivityLevel = "lightly_active"
	ModeratelyActive ActivityLevel = "moderately_active"
	VeryActive       ActivityLevel = "very_active"
)

var activityMultipliers = map[ActivityLevel]float64{
	Sedentary:        1.2,
	LightlyActive:    1.375,
	ModeratelyActive: 1.55,
	VeryActive:       1.725,
}

// Defaults applied to profiles that never set these fields.
const (
	DefaultTargetWeight        = 65.0
	DefaultTargetUnit          = Kilograms
	DefaultDailyCalorieGoal    = 1800
	DefaultDailyBurnedCalories = 2200
)

// Profile holds the body and goal data of one user.
type Profile struct {
	UserID              int64         `json:"userId"`
	Name                string        `json:"name"`
	Age                 int           `json:"age"`
	Gender              Gender        `json:"gender"`
	HeightCm            float64       `json:"height"`
	ActivityLevel       ActivityLevel `json:"activityLevel"`
	TargetWeight        float64       `json:"targetWeight"`
	TargetUnit          Unit          `json:"targetUnit"`
	DailyCalorieGoal    int           `json:"dailyCalorieGoal"`
	DailyBurnedCalories int           `json:"dailyBurnedCalories"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
}

// NewProfile returns a profile for userID populated with defaults.
func NewProfile(userID int64, now time.Time) *Profile {
	return &Profile{
		UserID:              userID,
		Gender:              Female,
		ActivityLevel:       LightlyActive,
		TargetWeight:        DefaultTargetWeight,
		TargetUnit:          DefaultTargetUnit,
		DailyCalorieGoal:    DefaultDailyCalorieGoal,
		DailyBurnedCalories: DefaultDailyBurnedCalories,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Complete reports whether the profile has everything needed for health
// metrics and advice.
func (p *Profile) Complete() bool {
	if p == nil {
		return false
	}
	_, ok := activityMultipliers[p.ActivityLevel]
	return p.Age > 0 && p.HeightCm > 0 && (p.Gender == Male || p.Gender == Female) && ok
}

// Target returns the goal weight expressed in unit.
func (p *Profile) Target(unit Unit) float64 {
	return ConvertWeight(p.TargetWeight, p.TargetUnit, unit)
}

// ProfilePatch carries the optional fields of a partial profile update.
type ProfilePatch struct {
	Name                *string        `json:"name,omitempty"`
	Age                 *int           `json:"age,omitempty"`
	Gender              *Gender        `json:"gender,omitempty"`
	HeightCm            *float64       `json:"height,omitempty"`
	ActivityLevel       *ActivityLevel `json:"activityLevel,omitempty"`
	DailyCalorieGoal    *int           `json:"dailyCalorieGoal,omitempty"`
	DailyBurnedCalories *int           `json:"dailyBurnedCalories,omitempty"`
}

// Apply merges the non-nil fields of patch into p.
func (p *Profile) Apply(patch ProfilePatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Age != nil {
		p.Age = *patch.Age
	}
	if patch.Gender != nil {
		p.Gender = *patch.Gender
	}
	if patch.HeightCm != nil {
		p.HeightCm = *patch.HeightCm
	}
	if patch.ActivityLevel != nil {
		p.ActivityLevel = *patch.ActivityLevel
	}
	if patch.DailyCalorieGoal != nil {
		p.DailyCalorieGoal = *patch.DailyCalorieGoal
	}
	if patch.DailyBurnedCalories != nil {
		p.DailyBurnedCalories = *patch.DailyBurnedCalories
	}
}

// WeightRange is an inclusive weight interval in kg.
type WeightRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// HealthMetrics are derived from a profile and a body weight.
type HealthMetrics struct {
	BMR              float64     `json:"bmr"`
	TDEE             float64     `json:"tdee"`
	BMI              float64     `json:"bmi"`
	IdealWeightRange WeightRange `json:"idealWeightRange"`
}

// ComputeHealthMetrics derives BMR (Mifflin-St Jeor), TDEE, BMI and the ideal
// weight range for BMI 18.5-23.9. weightKg must be in kilograms.
func ComputeHealthMetrics(p *Profile, weightKg float64) HealthMetrics {
	bmr := 10*weightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	if p.Gender == Male {
		bmr += 5
	} else {
		bmr -= 161
	}

	mult, ok := activityMultipliers[p.ActivityLevel]
	if !ok {
		mult = activityMultipliers[Sedentary]
	}

	h := p.HeightCm / 100
	var bmi float64
	if h > 0 {
		bmi = weightKg / math.Pow(h, 2)
	}

	return HealthMetrics{
		BMR:  bmr,
		TDEE: bmr * mult,
		BMI:  bmi,
		IdealWeightRange: WeightRange{
			Min: 18.5 * h * h,
			Max: 23.9 * h * h,
		},
	}
}

// BMICategory buckets a BMI value.
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "underweight"
	case bmi < 24:
		return "normal"
	case bmi < 28:
		return "overweight"
	default:
		return "obese"
	}
}

// ProfileRepository is the port for profile persistence.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	SaveProfile(ctx context.Context, p *Profile) error
}
