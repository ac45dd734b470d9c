package domain

import (
	"time"

	"github.com/google/uuid"
)

// swagger:model domain.Bike
type Bike struct {
	ID               uuid.UUID  `json:"id"`
	OwnerID          uuid.UUID  `json:"owner_id"`
	Name             string     `json:"name" validate:"required,max=100"`
	Type             BikeType   `json:"type" validate:"required,max=50"`
	Brand            string     `json:"brand,omitempty" validate:"max=100"`
	Model            string     `json:"model,omitempty" validate:"max=100"`
	PurchaseDate     *time.Time `json:"purchase_date,omitempty"`
	TotalKilometrage float64    `json:"total_kilometrage" validate:"min=0,max=1000000000"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type BikeType string

const (
	BMX    BikeType = "bmx"
	MTB    BikeType = "mtb"
	Road   BikeType = "road"
	Gravel BikeType = "gravel"
	City   BikeType = "city"
)

// BikeInput carries the attributes accepted by the bike registry on create.
// StartingDistance is expressed in Unit.
type BikeInput struct {
	Name             string
	Type             BikeType
	Brand            string
	Model            string
	PurchaseDate     *time.Time
	StartingDistance float64
	Unit             Unit
}

// BikePatch holds optional fields; nil means unchanged.
type BikePatch struct {
	Name         *string
	Type         *BikeType
	Brand        *string
	Model        *string
	PurchaseDate *time.Time
}

func (b *Bike) Apply(p BikePatch) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Type != nil {
		b.Type = *p.Type
	}
	if p.Brand != nil {
		b.Brand = *p.Brand
	}
	if p.Model != nil {
		b.Model = *p.Model
	}
	if p.PurchaseDate != nil {
		d := *p.PurchaseDate
		b.PurchaseDate = &d
	}
}

// Clone returns a deep copy.
func (b *Bike) Clone() *Bike {
	c := *b
	if b.PurchaseDate != nil {
		d := *b.PurchaseDate
		c.PurchaseDate = &d
	}
	return &c
}

// RowVersion identifies the stored state of a bike or part. A cached copy is
// current only while both fields still match.
type RowVersion struct {
	OwnerID   uuid.UUID
	UpdatedAt time.Time
}

func (v RowVersion) Matches(ownerID uuid.UUID, updatedAt time.Time) bool {
	return v.OwnerID == ownerID && v.UpdatedAt.Equal(updatedAt)
}
