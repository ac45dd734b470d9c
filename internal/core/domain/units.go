package domain

import (
	"fmt"
	"math"
	"strings"
)

// Unit is the distance unit used on the boundary. Storage is always kilometres.
type Unit string

const (
	Kilometers Unit = "km"
	Miles      Unit = "mi"
)

const kmPerMile = 1.609344

const (
	// MaxEntryKm caps a single kilometrage log entry.
	MaxEntryKm = 100_000
	// MaxTotalKm bounds every running total kept for a bike or part.
	MaxTotalKm = 1_000_000_000
)

// DistanceKm converts a logged distance to kilometres, rejecting anything
// that is not a positive finite value within MaxEntryKm.
func DistanceKm(v float64, u Unit) (float64, error) {
	if math.IsNaN(v) || v <= 0 {
		return 0, ErrInvalidDistance
	}
	km := u.ToKm(v)
	if math.IsInf(km, 0) || km > MaxEntryKm {
		return 0, ErrInvalidDistance
	}
	return km, nil
}

// ValidTotalKm reports whether km can be stored as a running total.
func ValidTotalKm(km float64) bool {
	return !math.IsNaN(km) && km >= 0 && km <= MaxTotalKm
}

// ParseUnit accepts "km", "mi" or an empty string (kilometres).
func ParseUnit(s string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(s))) {
	case "", Kilometers:
		return Kilometers, nil
	case Miles:
		return Miles, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
}

// ToKm converts v expressed in u into kilometres.
func (u Unit) ToKm(v float64) float64 {
	if u == Miles {
		return v * kmPerMile
	}
	return v
}

// FromKm converts v kilometres into u.
func (u Unit) FromKm(v float64) float64 {
	if u == Miles {
		return v / kmPerMile
	}
	return v
}

// FromKmPtr is FromKm for optional values.
func (u Unit) FromKmPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := u.FromKm(*v)
	return &out
}

func (u Unit) String() string {
	if u == "" {
		return string(Kilometers)
	}
	return string(u)
}
