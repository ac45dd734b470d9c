package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
)

type PartRepository interface {
	CreatePart(ctx context.Context, part *domain.Part) error
	// GetPartForOwner locks the row; domain.ErrNotOwner when missing or foreign.
	GetPartForOwner(ctx context.Context, partID, ownerID uuid.UUID) (*domain.Part, error)
	PartVersion(ctx context.Context, partID uuid.UUID) (domain.RowVersion, error)
	GetPartsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Part, error)
	UpdatePart(ctx context.Context, part *domain.Part) error
	AddKilometrage(ctx context.Context, partIDs []uuid.UUID, km float64, at time.Time) ([]*domain.Part, error)
	SetPartsOwner(ctx context.Context, partIDs []uuid.UUID, ownerID uuid.UUID, at time.Time) error
	DeletePart(ctx context.Context, partID uuid.UUID) error
}
