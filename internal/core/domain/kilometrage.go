package domain

import (
	"time"

	"github.com/google/uuid"
)

type DistanceSource string

const (
	SourceManual DistanceSource = "manual"
	SourceTrip   DistanceSource = "trip"
)

// KilometrageLogEntry is an append-only distance record for a bike.
type KilometrageLogEntry struct {
	ID         uuid.UUID      `json:"id"`
	BikeID     uuid.UUID      `json:"bike_id"`
	DistanceKm float64        `json:"distance_km"`
	Source     DistanceSource `json:"source"`
	LoggedAt   time.Time      `json:"logged_at"`
}

// DistanceResult is returned by a distance log: the entry, the bike after the
// increment and every part the increment cascaded to.
type DistanceResult struct {
	Entry *KilometrageLogEntry `json:"entry"`
	Bike  *Bike                `json:"bike"`
	Parts []*Part              `json:"parts"`
}
