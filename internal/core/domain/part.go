package domain

import (
	"time"

	"github.com/google/uuid"
)

type PartType string

const (
	Chain     PartType = "chain"
	Tires     PartType = "tires"
	BrakePads PartType = "brake_pads"
	Cassette  PartType = "cassette"
	Other     PartType = "other"
	Custom    PartType = "custom"
)

func (t PartType) Valid() bool {
	switch t {
	case Chain, Tires, BrakePads, Cassette, Other, Custom:
		return true
	}
	return false
}

// swagger:model domain.Part
type Part struct {
	ID                     uuid.UUID  `json:"id"`
	OwnerID                uuid.UUID  `json:"owner_id"`
	Name                   string     `json:"name" validate:"required,max=100"`
	Type                   PartType   `json:"type" validate:"required,oneof=chain tires brake_pads cassette other custom"`
	Brand                  string     `json:"brand,omitempty" validate:"max=100"`
	Model                  string     `json:"model,omitempty" validate:"max=100"`
	PurchaseDate           *time.Time `json:"purchase_date,omitempty"`
	TotalKilometrage       float64    `json:"total_kilometrage" validate:"min=0,max=1000000000"`
	ReplacementThresholdKm *float64   `json:"replacement_threshold_km,omitempty" validate:"omitempty,gt=0,max=1000000000"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// NeedsReplacement is nil when no threshold is configured.
func (p *Part) NeedsReplacement() *bool {
	if p.ReplacementThresholdKm == nil {
		return nil
	}
	due := p.TotalKilometrage >= *p.ReplacementThresholdKm
	return &due
}

func (p *Part) Clone() *Part {
	c := *p
	if p.PurchaseDate != nil {
		d := *p.PurchaseDate
		c.PurchaseDate = &d
	}
	if p.ReplacementThresholdKm != nil {
		t := *p.ReplacementThresholdKm
		c.ReplacementThresholdKm = &t
	}
	return &c
}

// PartInput carries create attributes. Distances are expressed in Unit.
type PartInput struct {
	Name                 string
	Type                 PartType
	Brand                string
	Model                string
	PurchaseDate         *time.Time
	StartingDistance     float64
	ReplacementThreshold *float64
	Unit                 Unit
}

// PartPatch holds optional fields; ReplacementThreshold is expressed in Unit.
type PartPatch struct {
	Name                 *string
	Type                 *PartType
	Brand                *string
	Model                *string
	PurchaseDate         *time.Time
	ReplacementThreshold *float64
	Unit                 Unit
}

func (p *Part) Apply(patch PartPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Type != nil {
		p.Type = *patch.Type
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
	if patch.Model != nil {
		p.Model = *patch.Model
	}
	if patch.PurchaseDate != nil {
		d := *patch.PurchaseDate
		p.PurchaseDate = &d
	}
	if patch.ReplacementThreshold != nil {
		km := patch.Unit.ToKm(*patch.ReplacementThreshold)
		p.ReplacementThresholdKm = &km
	}
}
