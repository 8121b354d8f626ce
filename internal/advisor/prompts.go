package advisor

import (
	"fmt"
	"strings"

	"trimtrack/internal/domain"
)

const foodSystemPrompt = `You are a nutritionist. Estimate the calories and nutrition of the food the user describes.
Answer with a single JSON object and nothing else, shaped as:
{
  "foods": [{"name": string, "calories": number, "unit": string, "quantity": number, "confidence": number}],
  "nutrition": {"protein": number, "carbs": number, "fat": number, "fiber": number, "sugar": number},
  "suggestions": [string],
  "confidence": number
}
Calories are kcal for the stated quantity. Nutrition values are grams. Confidence is between 0 and 1.`

const dietSystemPrompt = `You are a registered dietitian helping a user lose weight safely.
Answer with a single JSON object and nothing else, shaped as:
{
  "summary": {"currentCalories": number, "recommendedCalories": number, "remainingCalories": number, "nutritionScore": number, "balanceStatus": "balanced"|"protein_low"|"carbs_high"|"fat_high"|"calories_high"|"calories_low"},
  "recommendations": [{"category": string, "title": string, "description": string, "foods": [{"name": string, "calories": number, "portion": string, "benefits": string}], "totalCalories": number, "priority": "high"|"medium"|"low"}],
  "tips": [{"category": string, "title": string, "content": string, "icon": string}],
  "warnings": [string],
  "nextMealSuggestion": {"mealType": string, "suggestedTime": string, "calorieTarget": number, "keyNutrients": [string]}
}
Never recommend fewer than 1200 kcal per day.`

const planSystemPrompt = `You are a fitness coach building a realistic weight-loss plan.
Answer with a single JSON object and nothing else, shaped as:
{
  "plan": {"estimatedDays": number, "estimatedWeeks": number, "weeklyGoal": number, "dailyCalorieDeficit": number, "recommendedCalorieIntake": number, "confidence": number, "suggestions": [string], "milestones": [{"weight": number, "estimatedDate": "YYYY-MM-DD", "description": string}]},
  "exercises": [{"type": "cardio"|"strength"|"flexibility", "name": string, "description": string, "duration": number, "caloriesBurned": number, "difficulty": "easy"|"medium"|"hard", "equipment": [string], "instructions": [string]}],
  "warnings": [string],
  "recommendations": [string]
}
Weights are kilograms. A weekly goal above 1 kg is unsafe.`

func foodPrompt(input string) string {
	return fmt.Sprintf("Analyze this meal: %s", input)
}

func profileLines(b *strings.Builder, p domain.Profile) {
	fmt.Fprintf(b, "Age: %d\n", p.Age)
	fmt.Fprintf(b, "Gender: %s\n", p.Gender)
	fmt.Fprintf(b, "Height: %.0f cm\n", p.HeightCm)
	fmt.Fprintf(b, "Activity level: %s\n", p.ActivityLevel)
}

func dietPrompt(req DietRequest, m domain.HealthMetrics) string {
	var b strings.Builder
	b.WriteString("User profile:\n")
	profileLines(&b, req.Profile)
	fmt.Fprintf(&b, "Current weight: %.1f kg\n", req.CurrentWeight)
	fmt.Fprintf(&b, "Target weight: %.1f kg\n", req.TargetWeight)
	fmt.Fprintf(&b, "BMR: %.0f kcal, TDEE: %.0f kcal, BMI: %.1f\n", m.BMR, m.TDEE, m.BMI)
	fmt.Fprintf(&b, "Calories eaten today: %.0f kcal\n", req.DailyCalories)
	if len(req.TodayFoods) == 0 {
		b.WriteString("Nothing recorded today.\n")
	} else {
		b.WriteString("Foods eaten today:\n")
		for _, f := range req.TodayFoods {
			fmt.Fprintf(&b, "- %s (%g %s): %.0f kcal\n", f.Name, f.Quantity, f.Unit, f.Calories)
		}
	}
	b.WriteString("Suggest what to eat for the rest of the day.")
	return b.String()
}

func planPrompt(req PlanRequest, m domain.HealthMetrics) string {
	var b strings.Builder
	b.WriteString("User profile:\n")
	profileLines(&b, req.Profile)
	fmt.Fprintf(&b, "Current weight: %.1f kg\n", req.CurrentWeight)
	fmt.Fprintf(&b, "Target weight: %.1f kg\n", req.TargetWeight)
	fmt.Fprintf(&b, "BMR: %.0f kcal, TDEE: %.0f kcal, BMI: %.1f\n", m.BMR, m.TDEE, m.BMI)
	if len(req.History) > 0 {
		b.WriteString("Recent weight history:\n")
		for _, h := range req.History {
			fmt.Fprintf(&b, "- %s: %.1f kg\n", h.Date, h.Weight)
		}
	}
	b.WriteString("Build a weight-loss plan with milestones and exercises.")
	return b.String()
}
