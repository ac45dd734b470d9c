package domain

import (
	"time"

	"github.com/google/uuid"
)

type SubjectType string

const (
	SubjectBike SubjectType = "bike"
	SubjectPart SubjectType = "part"
)

func (t SubjectType) Valid() bool {
	return t == SubjectBike || t == SubjectPart
}

type MaintenanceType string

const (
	Repair      MaintenanceType = "repair"
	Replacement MaintenanceType = "replacement"
	Adjustment  MaintenanceType = "adjustment"
	Cleaning    MaintenanceType = "cleaning"
	OtherWork   MaintenanceType = "other"
)

func (t MaintenanceType) Valid() bool {
	switch t {
	case Repair, Replacement, Adjustment, Cleaning, OtherWork:
		return true
	}
	return false
}

// MaintenanceRecord is an append-only service record for a bike or a part.
type MaintenanceRecord struct {
	ID              uuid.UUID       `json:"id"`
	SubjectType     SubjectType     `json:"subject_type"`
	SubjectID       uuid.UUID       `json:"subject_id"`
	MaintenanceType MaintenanceType `json:"maintenance_type"`
	Description     string          `json:"description,omitempty" validate:"max=1000"`
	PerformedAt     time.Time       `json:"performed_at"`
	Cost            *float64        `json:"cost,omitempty" validate:"omitempty,min=0"`
	CreatedAt       time.Time       `json:"created_at"`
}

type MaintenanceInput struct {
	MaintenanceType MaintenanceType
	Description     string
	PerformedAt     *time.Time
	Cost            *float64
}
