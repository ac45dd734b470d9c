package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
)

type InstallationRepository interface {
	// OpenInstallation returns nil, nil when the part is not mounted.
	OpenInstallation(ctx context.Context, partID uuid.UUID) (*domain.Installation, error)
	CreateInstallation(ctx context.Context, inst *domain.Installation) error
	CloseInstallation(ctx context.Context, installationID uuid.UUID, at time.Time) error
	ActivePartsForBike(ctx context.Context, bikeID uuid.UUID) ([]*domain.Part, error)
	InstallationsForPart(ctx context.Context, partID uuid.UUID) ([]*domain.Installation, error)
}

type ActiveBikeRepository interface {
	// GetActiveBikeID returns nil when nothing is selected.
	GetActiveBikeID(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)
	SetActiveBikeID(ctx context.Context, userID uuid.UUID, bikeID *uuid.UUID, at time.Time) error
}

// The remaining ledgers are append-only: there is no update or delete.

type KilometrageRepository interface {
	AppendEntry(ctx context.Context, entry *domain.KilometrageLogEntry) error
	EntriesForBike(ctx context.Context, bikeID uuid.UUID, limit, offset int) ([]*domain.KilometrageLogEntry, error)
	SumSince(ctx context.Context, bikeID uuid.UUID, since time.Time) (float64, error)
}

type MaintenanceRepository interface {
	AppendRecord(ctx context.Context, record *domain.MaintenanceRecord) error
	RecordsForSubject(ctx context.Context, subjectType domain.SubjectType, subjectID uuid.UUID) ([]*domain.MaintenanceRecord, error)
}

type OwnershipRepository interface {
	AppendTransfer(ctx context.Context, record *domain.OwnershipHistoryRecord) error
	TransfersForEntity(ctx context.Context, entityType domain.SubjectType, entityID uuid.UUID) ([]*domain.OwnershipHistoryRecord, error)
}
