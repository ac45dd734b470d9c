package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
)

// Distances in every response are expressed in Unit.

type BikeResponse struct {
	ID               uuid.UUID  `json:"id"`
	OwnerID          uuid.UUID  `json:"owner_id"`
	Name             string     `json:"name" example:"Commuter"`
	Type             string     `json:"type" example:"city"`
	Brand            string     `json:"brand,omitempty" example:"Surly"`
	Model            string     `json:"model,omitempty" example:"Cross-Check"`
	PurchaseDate     *time.Time `json:"purchase_date,omitempty"`
	TotalKilometrage float64    `json:"total_kilometrage" example:"1520.5"`
	Unit             string     `json:"unit" example:"km"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type PartResponse struct {
	ID                   uuid.UUID  `json:"id"`
	OwnerID              uuid.UUID  `json:"owner_id"`
	Name                 string     `json:"name" example:"Chain A"`
	Type                 string     `json:"type" example:"chain"`
	Brand                string     `json:"brand,omitempty" example:"Shimano"`
	Model                string     `json:"model,omitempty" example:"CN-HG701"`
	PurchaseDate         *time.Time `json:"purchase_date,omitempty"`
	TotalKilometrage     float64    `json:"total_kilometrage" example:"830"`
	ReplacementThreshold *float64   `json:"replacement_threshold,omitempty" example:"3000"`
	NeedsReplacement     *bool      `json:"needs_replacement,omitempty"`
	Unit                 string     `json:"unit" example:"km"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type BikeListResponse struct {
	Bikes []BikeResponse `json:"bikes"`
	Count int            `json:"count"`
}

type PartListResponse struct {
	Parts []PartResponse `json:"parts"`
	Count int            `json:"count"`
}

type KilometrageEntryResponse struct {
	ID       uuid.UUID `json:"id"`
	BikeID   uuid.UUID `json:"bike_id"`
	Distance float64   `json:"distance" example:"42.2"`
	Source   string    `json:"source" example:"manual"`
	LoggedAt time.Time `json:"logged_at"`
	Unit     string    `json:"unit" example:"km"`
}

type DistanceLogResponse struct {
	Entry KilometrageEntryResponse `json:"entry"`
	Bike  BikeResponse             `json:"bike"`
	Parts []PartResponse           `json:"parts"`
}

type ActiveBikeResponse struct {
	Active bool           `json:"active"`
	Bike   *BikeResponse  `json:"bike,omitempty"`
	Parts  []PartResponse `json:"parts,omitempty"`
}

type BikeTransferResponse struct {
	Bike    BikeResponse                     `json:"bike"`
	Parts   []PartResponse                   `json:"parts"`
	Records []*domain.OwnershipHistoryRecord `json:"records"`
}

type PartTransferResponse struct {
	Part        PartResponse                   `json:"part"`
	Record      *domain.OwnershipHistoryRecord `json:"record"`
	Uninstalled *domain.Installation           `json:"uninstalled,omitempty"`
}

type PartStatsResponse struct {
	PartID                   uuid.UUID     `json:"part_id"`
	Unit                     domain.Unit   `json:"unit"`
	TotalKilometrage         float64       `json:"total_kilometrage"`
	ReplacementThreshold     *float64      `json:"replacement_threshold,omitempty"`
	DaysOwned                int           `json:"days_owned"`
	DaysSinceLastMaintenance *int          `json:"days_since_last_maintenance"`
	CurrentBike              *BikeResponse `json:"current_bike"`
	InstallationCount        int           `json:"installation_count"`
	NeedsReplacement         *bool         `json:"needs_replacement,omitempty"`
}

func newBikeResponse(b *domain.Bike, u domain.Unit) BikeResponse {
	return BikeResponse{
		ID:               b.ID,
		OwnerID:          b.OwnerID,
		Name:             b.Name,
		Type:             string(b.Type),
		Brand:            b.Brand,
		Model:            b.Model,
		PurchaseDate:     b.PurchaseDate,
		TotalKilometrage: u.FromKm(b.TotalKilometrage),
		Unit:             u.String(),
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func newBikeResponses(bikes []*domain.Bike, u domain.Unit) []BikeResponse {
	out := make([]BikeResponse, len(bikes))
	for i, b := range bikes {
		out[i] = newBikeResponse(b, u)
	}
	return out
}

func newPartResponse(p *domain.Part, u domain.Unit) PartResponse {
	return PartResponse{
		ID:                   p.ID,
		OwnerID:              p.OwnerID,
		Name:                 p.Name,
		Type:                 string(p.Type),
		Brand:                p.Brand,
		Model:                p.Model,
		PurchaseDate:         p.PurchaseDate,
		TotalKilometrage:     u.FromKm(p.TotalKilometrage),
		ReplacementThreshold: u.FromKmPtr(p.ReplacementThresholdKm),
		NeedsReplacement:     p.NeedsReplacement(),
		Unit:                 u.String(),
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func newPartResponses(parts []*domain.Part, u domain.Unit) []PartResponse {
	out := make([]PartResponse, len(parts))
	for i, p := range parts {
		out[i] = newPartResponse(p, u)
	}
	return out
}

func newEntryResponse(e *domain.KilometrageLogEntry, u domain.Unit) KilometrageEntryResponse {
	return KilometrageEntryResponse{
		ID:       e.ID,
		BikeID:   e.BikeID,
		Distance: u.FromKm(e.DistanceKm),
		Source:   string(e.Source),
		LoggedAt: e.LoggedAt,
		Unit:     u.String(),
	}
}

func newDistanceLogResponse(r *domain.DistanceResult, u domain.Unit) DistanceLogResponse {
	return DistanceLogResponse{
		Entry: newEntryResponse(r.Entry, u),
		Bike:  newBikeResponse(r.Bike, u),
		Parts: newPartResponses(r.Parts, u),
	}
}
