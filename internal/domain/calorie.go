package domain

import (
	"context"
	"time"
)

// FoodItem is one food recognised in a calorie analysis.
type FoodItem struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Calories   float64 `json:"calories"`
	Unit       string  `json:"unit"`
	Quantity   float64 `json:"quantity"`
	Confidence float64 `json:"confidence"`
}

// Nutrition is the macro breakdown of an analysis, in grams.
type Nutrition struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
	Fiber   float64 `json:"fiber"`
	Sugar   float64 `json:"sugar"`
}

// CalorieAnalysis is a stored food analysis.
type CalorieAnalysis struct {
	ID            string     `json:"id"`
	Timestamp     time.Time  `json:"timestamp"`
	OriginalInput string     `json:"originalInput"`
	Foods         []FoodItem `json:"foods"`
	TotalCalories float64    `json:"totalCalories"`
	Nutrition     Nutrition  `json:"nutrition"`
	Suggestions   []string   `json:"suggestions"`
	Confidence    float64    `json:"confidence"`
}

// CalorieRepository is the port for calorie analysis history.
type CalorieRepository interface {
	AddAnalysis(ctx context.Context, userID int64, a CalorieAnalysis) error
	ListAnalysesSince(ctx context.Context, userID int64, since time.Time) ([]CalorieAnalysis, error)
	DeleteAnalysis(ctx context.Context, userID int64, id string) (bool, error)
}
