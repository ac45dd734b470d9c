package domain

import (
	"time"

	"github.com/google/uuid"
)

// Installation is the time-bounded association of a part with a bike.
// RemovedAt is nil while the part is mounted.
type Installation struct {
	ID          uuid.UUID  `json:"id"`
	PartID      uuid.UUID  `json:"part_id"`
	BikeID      uuid.UUID  `json:"bike_id"`
	InstalledAt time.Time  `json:"installed_at"`
	RemovedAt   *time.Time `json:"removed_at,omitempty"`
}

func (i *Installation) IsOpen() bool {
	return i.RemovedAt == nil
}

func (i *Installation) Clone() *Installation {
	c := *i
	if i.RemovedAt != nil {
		t := *i.RemovedAt
		c.RemovedAt = &t
	}
	return &c
}

// ActiveBike is the result of an active-bike lookup.
type ActiveBike struct {
	Bike  *Bike   `json:"bike"`
	Parts []*Part `json:"parts"`
}
