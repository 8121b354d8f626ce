package advisor

import (
	"trimtrack/internal/domain"
)

// ChatMessage is one message of a chat-completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the transport-level request shared by every variant.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// FoodEstimate is one food recognised by the food-analysis variant.
type FoodEstimate struct {
	Name       string  `json:"name"`
	Calories   float64 `json:"calories"`
	Unit       string  `json:"unit"`
	Quantity   float64 `json:"quantity"`
	Confidence float64 `json:"confidence"`
}

// FoodAnalysis is the response of the food-analysis variant.
type FoodAnalysis struct {
	Foods       []FoodEstimate   `json:"foods"`
	Nutrition   domain.Nutrition `json:"nutrition"`
	Suggestions []string         `json:"suggestions"`
	Confidence  float64          `json:"confidence"`
}

// TotalCalories sums the calories of every recognised food.
func (a *FoodAnalysis) TotalCalories() float64 {
	var total float64
	for _, f := range a.Foods {
		total += f.Calories
	}
	return total
}

// DietRequest is the input of the diet-suggestion variant. Weights are in kg.
type DietRequest struct {
	UserID        int64             `json:"userId"`
	Profile       domain.Profile    `json:"profile"`
	CurrentWeight float64           `json:"currentWeight"`
	TargetWeight  float64           `json:"targetWeight"`
	DailyCalories float64           `json:"dailyCalories"`
	TodayFoods    []domain.FoodItem `json:"todayFoods"`
}

// DietSummary is the calorie overview of a diet suggestion.
type DietSummary struct {
	CurrentCalories     float64 `json:"currentCalories"`
	RecommendedCalories float64 `json:"recommendedCalories"`
	RemainingCalories   float64 `json:"remainingCalories"`
	NutritionScore      float64 `json:"nutritionScore"`
	BalanceStatus       string  `json:"balanceStatus"`
}

// RecommendedFood is a food proposed for a meal.
type RecommendedFood struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Portion  string  `json:"portion"`
	Benefits string  `json:"benefits"`
}

// MealRecommendation groups recommended foods for one meal category.
type MealRecommendation struct {
	Category      string            `json:"category"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Foods         []RecommendedFood `json:"foods"`
	TotalCalories float64           `json:"totalCalories"`
	Priority      string            `json:"priority"`
}

// Tip is a short practical hint.
type Tip struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Icon     string `json:"icon"`
}

// NextMeal describes the suggested next meal.
type NextMeal struct {
	MealType      string   `json:"mealType"`
	SuggestedTime string   `json:"suggestedTime"`
	CalorieTarget float64  `json:"calorieTarget"`
	KeyNutrients  []string `json:"keyNutrients"`
}

// DietAdvice is the response of the diet-suggestion variant.
type DietAdvice struct {
	Summary            DietSummary          `json:"summary"`
	Recommendations    []MealRecommendation `json:"recommendations"`
	Tips               []Tip                `json:"tips"`
	Warnings           []string             `json:"warnings"`
	NextMealSuggestion *NextMeal            `json:"nextMealSuggestion,omitempty"`
	GeneratedAt        string               `json:"generatedAt"`
	UserID             int64                `json:"userId"`
}

// HistoryPoint is one weight observation sent to the plan variant.
type HistoryPoint struct {
	Weight float64 `json:"weight"`
	Date   string  `json:"date"`
}

// PlanRequest is the input of the weight-loss plan variant. Weights are in kg.
type PlanRequest struct {
	Profile       domain.Profile `json:"profile"`
	CurrentWeight float64        `json:"currentWeight"`
	TargetWeight  float64        `json:"targetWeight"`
	History       []HistoryPoint `json:"weightHistory"`
}

// Milestone is an intermediate weight goal.
type Milestone struct {
	Weight        float64 `json:"weight"`
	EstimatedDate string  `json:"estimatedDate"`
	Description   string  `json:"description"`
}

// WeightLossPlan is the plan part of a plan analysis.
type WeightLossPlan struct {
	ID                       string      `json:"id"`
	UserID                   int64       `json:"userId"`
	CurrentWeight            float64     `json:"currentWeight"`
	TargetWeight             float64     `json:"targetWeight"`
	EstimatedDays            int         `json:"estimatedDays"`
	EstimatedWeeks           int         `json:"estimatedWeeks"`
	WeeklyGoal               float64     `json:"weeklyGoal"`
	DailyCalorieDeficit      float64     `json:"dailyCalorieDeficit"`
	RecommendedCalorieIntake float64     `json:"recommendedCalorieIntake"`
	Confidence               float64     `json:"confidence"`
	CreatedAt                string      `json:"createdAt"`
	Suggestions              []string    `json:"suggestions"`
	Milestones               []Milestone `json:"milestones"`
}

// ExerciseSuggestion is one recommended exercise.
type ExerciseSuggestion struct {
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Duration       int      `json:"duration"`
	CaloriesBurned float64  `json:"caloriesBurned"`
	Difficulty     string   `json:"difficulty"`
	Equipment      []string `json:"equipment"`
	Instructions   []string `json:"instructions"`
}

// PlanAnalysis is the response of the weight-loss plan variant.
type PlanAnalysis struct {
	Plan            WeightLossPlan        `json:"plan"`
	Exercises       []ExerciseSuggestion  `json:"exercises"`
	HealthMetrics   *domain.HealthMetrics `json:"healthMetrics,omitempty"`
	Warnings        []string              `json:"warnings"`
	Recommendations []string              `json:"recommendations"`
}
