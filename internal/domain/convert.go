package domain

import (
	"fmt"
	"math"
	"strconv"
)

const kgToLb = 2.20462

// Unit is a body-weight unit.
type Unit string

// Supported units.
const (
	Kilograms Unit = "kg"
	Pounds    Unit = "lb"
)

// Valid reports whether u is a supported unit.
func (u Unit) Valid() bool {
	return u == Kilograms || u == Pounds
}

// ParseUnit validates s as a unit, falling back to fallback when s is empty.
func ParseUnit(s string, fallback Unit) (Unit, error) {
	if s == "" {
		return fallback, nil
	}
	u := Unit(s)
	if !u.Valid() {
		return "", fmt.Errorf("%w: unit must be \"kg\" or \"lb\"", ErrInvalidValue)
	}
	return u, nil
}

// ConvertWeight converts a weight value between kg and lb.
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertWeight(v float64, from, to Unit) float64 {
	if from == to {
		return v
	}
	if from == Kilograms && to == Pounds {
		return v * kgToLb
	}
	if from == Pounds && to == Kilograms {
		return v / kgToLb
	}
	return v
}

// ValidWeight reports whether v is a positive, finite number.
func ValidWeight(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

var plausibleRanges = map[Unit][2]float64{
	Kilograms: {20, 300},
	Pounds:    {44, 661},
}

// PlausibleWeight reports whether v lies in the accepted human body-weight
// range for unit.
func PlausibleWeight(v float64, unit Unit) bool {
	r, ok := plausibleRanges[unit]
	if !ok || !ValidWeight(v) {
		return false
	}
	return v >= r[0] && v <= r[1]
}

// FormatWeight renders v with one decimal place.
func FormatWeight(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
