package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
)

// BikeRepository is only reachable through a Tx.
type BikeRepository interface {
	CreateBike(ctx context.Context, bike *domain.Bike) error
	// GetBikeForOwner is the guarded lookup: it locks the row and returns
	// domain.ErrNotOwner when the bike is missing or owned by someone else.
	GetBikeForOwner(ctx context.Context, bikeID, ownerID uuid.UUID) (*domain.Bike, error)
	// BikeVersion reads owner and updated_at without locking; a missing bike
	// is domain.ErrNotOwner.
	BikeVersion(ctx context.Context, bikeID uuid.UUID) (domain.RowVersion, error)
	GetBikesByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Bike, error)
	UpdateBike(ctx context.Context, bike *domain.Bike) error
	AddKilometrage(ctx context.Context, bikeID uuid.UUID, km float64, at time.Time) (*domain.Bike, error)
	SetBikeOwner(ctx context.Context, bikeID, ownerID uuid.UUID, at time.Time) error
	DeleteBike(ctx context.Context, bikeID uuid.UUID) error
}
