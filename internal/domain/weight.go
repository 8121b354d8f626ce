// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// DayLayout is the calendar-day format used for weight entries.
const DayLayout = "2006-01-02"

// WeightEntry represents a single dated weight observation.
type WeightEntry struct {
	ID        string    `json:"id"`
	Day       string    `json:"day"`
	Value     float64   `json:"value"`
	Unit      Unit      `json:"unit"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// In returns the entry value expressed in unit.
func (e WeightEntry) In(unit Unit) float64 {
	return ConvertWeight(e.Value, e.Unit, unit)
}

// WeightPatch carries the optional fields of a partial entry update.
type WeightPatch struct {
	Value *float64 `json:"value,omitempty"`
	Unit  *Unit    `json:"unit,omitempty"`
	Day   *string  `json:"day,omitempty"`
	Note  *string  `json:"note,omitempty"`
}

// WeightRepository is the port for weight persistence.
type WeightRepository interface {
	ListWeightEntries(ctx context.Context, userID int64) ([]WeightEntry, error)
	SaveWeightEntry(ctx context.Context, userID int64, e WeightEntry) error
	DeleteWeightEntry(ctx context.Context, userID int64, id string) (bool, error)
	// ReplaceWeightEntry swaps oldID for e in one step. On error the entry
	// under oldID is still stored.
	ReplaceWeightEntry(ctx context.Context, userID int64, oldID string, e WeightEntry) error
}
