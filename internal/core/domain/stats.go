package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// BikeStats distances are expressed in Unit.
type BikeStats struct {
	BikeID                      uuid.UUID `json:"bike_id"`
	Unit                        Unit      `json:"unit"`
	TotalKilometrage            float64   `json:"total_kilometrage"`
	KilometrageSinceMaintenance float64   `json:"kilometrage_since_last_maintenance"`
	DaysOwned                   int       `json:"days_owned"`
	DaysSinceLastMaintenance    *int      `json:"days_since_last_maintenance"`
	InstalledPartsCount         int       `json:"installed_parts_count"`
}

// PartStats distances are expressed in Unit.
type PartStats struct {
	PartID                   uuid.UUID `json:"part_id"`
	Unit                     Unit      `json:"unit"`
	TotalKilometrage         float64   `json:"total_kilometrage"`
	ReplacementThreshold     *float64  `json:"replacement_threshold,omitempty"`
	DaysOwned                int       `json:"days_owned"`
	DaysSinceLastMaintenance *int      `json:"days_since_last_maintenance"`
	CurrentBike              *Bike     `json:"current_bike"`
	InstallationCount        int       `json:"installation_count"`
	NeedsReplacement         *bool     `json:"needs_replacement,omitempty"`
}

// DaysBetween counts whole days from since to now, never negative.
func DaysBetween(since, now time.Time) int {
	d := now.Sub(since).Hours() / 24
	if d < 0 {
		return 0
	}
	return int(math.Floor(d))
}
