package advisor

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"trimtrack/internal/domain"
)

// Rough kcal per typical serving, used when no model is configured. Checked
// in order, so the first matching keyword wins.
var knownFoods = []struct {
	keyword string
	kcal    float64
}{
	{"sandwich", 300},
	{"pizza", 285},
	{"beef", 250},
	{"pork", 240},
	{"rice", 230},
	{"noodle", 220},
	{"chicken", 165},
	{"potato", 160},
	{"oatmeal", 150},
	{"fish", 140},
	{"milk", 120},
	{"banana", 105},
	{"yogurt", 100},
	{"apple", 95},
	{"tofu", 95},
	{"soup", 90},
	{"bread", 80},
	{"egg", 78},
	{"salad", 50},
	{"coffee", 5},
}

var mealSeparators = strings.NewReplacer(
	"，", ",", "、", ",", ";", ",", "；", ",", "\n", ",", "+", ",", " and ", ",", " with ", ",",
)

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func estimateCalories(name string) float64 {
	lower := strings.ToLower(name)
	for _, f := range knownFoods {
		if strings.Contains(lower, f.keyword) {
			return f.kcal
		}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(lower))
	return float64(100 + h.Sum32()%200)
}

// mockFood splits a meal description into items and estimates each from a
// small lookup table. The same input always yields the same analysis.
func mockFood(input string) *FoodAnalysis {
	var foods []FoodEstimate
	for _, part := range strings.Split(mealSeparators.Replace(input), ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		foods = append(foods, FoodEstimate{
			Name:       name,
			Calories:   estimateCalories(name),
			Unit:       "serving",
			Quantity:   1,
			Confidence: 0.6,
		})
	}
	if len(foods) == 0 {
		foods = []FoodEstimate{{Name: input, Calories: estimateCalories(input), Unit: "serving", Quantity: 1, Confidence: 0.6}}
	}

	out := &FoodAnalysis{Foods: foods, Confidence: 0.6}
	total := out.TotalCalories()
	out.Nutrition = domain.Nutrition{
		Protein: round1(total * 0.2 / 4),
		Carbs:   round1(total * 0.5 / 4),
		Fat:     round1(total * 0.3 / 9),
		Fiber:   round1(total * 0.014),
		Sugar:   round1(total * 0.1 / 4),
	}
	switch {
	case total > 800:
		out.Suggestions = []string{"This meal is calorie dense. Keep the next meal light.", "Add vegetables to increase volume without many calories."}
	case total < 200:
		out.Suggestions = []string{"This is a light meal. Add a protein source to stay full longer."}
	default:
		out.Suggestions = []string{"Portion size looks reasonable.", "Pair it with a glass of water."}
	}
	return out
}

func nextMealAt(now time.Time) (mealType, at string) {
	switch h := now.Hour(); {
	case h < 10:
		return "lunch", "12:00"
	case h < 15:
		return "snack", "15:30"
	case h < 19:
		return "dinner", "18:30"
	default:
		return "breakfast", "07:30"
	}
}

// mockDiet builds diet advice from the TDEE with a 500 kcal deficit.
func mockDiet(req DietRequest, m domain.HealthMetrics, now time.Time) *DietAdvice {
	recommended := math.Max(1200, math.Round(m.TDEE-500))
	remaining := math.Max(0, recommended-req.DailyCalories)

	status := "balanced"
	switch {
	case req.DailyCalories > recommended:
		status = "calories_high"
	case req.DailyCalories < recommended*0.5 && now.Hour() >= 18:
		status = "calories_low"
	}
	score := 80.0
	if status != "balanced" {
		score = 60
	}

	mealType, at := nextMealAt(now)
	target := round1(math.Min(remaining, recommended*0.35))

	advice := &DietAdvice{
		Summary: DietSummary{
			CurrentCalories:     req.DailyCalories,
			RecommendedCalories: recommended,
			RemainingCalories:   remaining,
			NutritionScore:      score,
			BalanceStatus:       status,
		},
		Recommendations: []MealRecommendation{
			{
				Category:    mealType,
				Title:       "Lean protein with vegetables",
				Description: "A high protein, high fibre meal keeps you full within the remaining budget.",
				Foods: []RecommendedFood{
					{Name: "Grilled chicken breast", Calories: 165, Portion: "100 g", Benefits: "lean protein"},
					{Name: "Steamed broccoli", Calories: 55, Portion: "150 g", Benefits: "fibre and vitamin C"},
					{Name: "Brown rice", Calories: 110, Portion: "half cup", Benefits: "slow carbohydrates"},
				},
				TotalCalories: 330,
				Priority:      "high",
			},
		},
		Tips: []Tip{
			{Category: "hydration", Title: "Drink water first", Content: "A glass of water before meals reduces overeating.", Icon: "💧"},
			{Category: "habit", Title: "Eat slowly", Content: "Take at least 20 minutes per meal.", Icon: "⏱"},
		},
		Warnings: []string{},
		NextMealSuggestion: &NextMeal{
			MealType:      mealType,
			SuggestedTime: at,
			CalorieTarget: target,
			KeyNutrients:  []string{"protein", "fiber"},
		},
	}
	if status == "calories_high" {
		advice.Warnings = append(advice.Warnings, fmt.Sprintf("Today's intake is %.0f kcal above the recommendation.", req.DailyCalories-recommended))
	}
	return advice
}

// mockPlan assumes a steady 0.5 kg per week and a 500 kcal daily deficit.
func mockPlan(req PlanRequest, m domain.HealthMetrics, now time.Time) *PlanAnalysis {
	const weeklyGoal = 0.5

	toLose := math.Max(0, req.CurrentWeight-req.TargetWeight)
	weeks := int(math.Ceil(toLose / weeklyGoal))
	days := weeks * 7

	var milestones []Milestone
	if toLose > 0 {
		for _, frac := range []float64{0.25, 0.5, 0.75, 1} {
			offset := int(math.Round(float64(days) * frac))
			milestones = append(milestones, Milestone{
				Weight:        round1(req.CurrentWeight - toLose*frac),
				EstimatedDate: now.AddDate(0, 0, offset).Format(domain.DayLayout),
				Description:   fmt.Sprintf("%.0f%% of the way to the goal", frac*100),
			})
		}
	}

	burn := func(met float64, minutes int) float64 {
		return round1(met * req.CurrentWeight * float64(minutes) / 60)
	}

	analysis := &PlanAnalysis{
		Plan: WeightLossPlan{
			CurrentWeight:            req.CurrentWeight,
			TargetWeight:             req.TargetWeight,
			EstimatedDays:            days,
			EstimatedWeeks:           weeks,
			WeeklyGoal:               weeklyGoal,
			DailyCalorieDeficit:      500,
			RecommendedCalorieIntake: math.Max(1200, math.Round(m.TDEE-500)),
			Confidence:               0.7,
			Suggestions: []string{
				"Weigh yourself at the same time every morning.",
				"Keep protein at every meal.",
				"Sleep at least seven hours.",
			},
			Milestones: milestones,
		},
		Exercises: []ExerciseSuggestion{
			{
				ID:             "brisk-walk",
				Type:           "cardio",
				Name:           "Brisk walking",
				Description:    "Walk at a pace where talking is possible but singing is not.",
				Duration:       40,
				CaloriesBurned: burn(4.3, 40),
				Difficulty:     "easy",
				Equipment:      []string{},
				Instructions:   []string{"Warm up for 5 minutes", "Keep a steady pace", "Cool down for 5 minutes"},
			},
			{
				ID:             "bodyweight-circuit",
				Type:           "strength",
				Name:           "Bodyweight circuit",
				Description:    "Squats, push-ups, lunges and planks in rotation.",
				Duration:       25,
				CaloriesBurned: burn(5, 25),
				Difficulty:     "medium",
				Equipment:      []string{"mat"},
				Instructions:   []string{"12 squats", "8 push-ups", "10 lunges per leg", "30 second plank", "Repeat three times"},
			},
			{
				ID:             "yoga-flow",
				Type:           "flexibility",
				Name:           "Yoga flow",
				Description:    "Gentle stretching to aid recovery.",
				Duration:       20,
				CaloriesBurned: burn(2.5, 20),
				Difficulty:     "easy",
				Equipment:      []string{"mat"},
				Instructions:   []string{"Breathe slowly", "Hold each pose for five breaths"},
			},
		},
		Warnings:        []string{},
		Recommendations: []string{"Combine the calorie deficit with three exercise sessions per week."},
	}
	if req.TargetWeight < m.IdealWeightRange.Min {
		analysis.Warnings = append(analysis.Warnings, "The target weight is below the healthy BMI range.")
	}
	if toLose == 0 {
		analysis.Warnings = append(analysis.Warnings, "The current weight is already at or below the target.")
	}
	return analysis
}
