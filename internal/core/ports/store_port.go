package ports

import "context"

// Tx exposes the repositories bound to one transaction.
type Tx interface {
	Bikes() BikeRepository
	Parts() PartRepository
	Installations() InstallationRepository
	ActiveBikes() ActiveBikeRepository
	Kilometrage() KilometrageRepository
	Maintenance() MaintenanceRepository
	Ownership() OwnershipRepository
}

// Store is the unit of work. WithinTx runs fn in one serializable
// transaction and commits only if fn returns nil. Lost serialization races
// are reported as domain.ErrStoreConflict, other failures as
// domain.ErrStoreUnavailable.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	ReadOnly(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
