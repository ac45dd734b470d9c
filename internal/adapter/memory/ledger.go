package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
)

// Installations

func (t *tx) OpenInstallation(_ context.Context, partID uuid.UUID) (*domain.Installation, error) {
	for _, inst := range t.state.installations {
		if inst.PartID == partID && inst.IsOpen() {
			return inst.Clone(), nil
		}
	}
	return nil, nil
}

func (t *tx) CreateInstallation(ctx context.Context, inst *domain.Installation) error {
	if err := t.writable(); err != nil {
		return err
	}
	if inst.IsOpen() {
		// Same guarantee as the partial unique index in postgres.
		open, _ := t.OpenInstallation(ctx, inst.PartID)
		if open != nil {
			return fmt.Errorf("%w: part %s already has an open installation", domain.ErrStoreConflict, inst.PartID)
		}
	}
	t.state.installations = append(t.state.installations, inst.Clone())
	return nil
}

func (t *tx) CloseInstallation(_ context.Context, installationID uuid.UUID, at time.Time) error {
	if err := t.writable(); err != nil {
		return err
	}
	for _, inst := range t.state.installations {
		if inst.ID == installationID {
			if !inst.IsOpen() {
				return domain.ErrNotInstalled
			}
			removed := at
			inst.RemovedAt = &removed
			return nil
		}
	}
	return domain.ErrNotFound
}

func (t *tx) ActivePartsForBike(_ context.Context, bikeID uuid.UUID) ([]*domain.Part, error) {
	parts := make([]*domain.Part, 0)
	for _, inst := range t.state.installations {
		if inst.BikeID != bikeID || !inst.IsOpen() {
			continue
		}
		row, ok := t.state.parts[inst.PartID]
		if !ok {
			continue
		}
		parts = append(parts, row.part.Clone())
	}
	return parts, nil
}

func (t *tx) InstallationsForPart(_ context.Context, partID uuid.UUID) ([]*domain.Installation, error) {
	out := make([]*domain.Installation, 0)
	// Newest first; insertion order breaks ties on equal timestamps.
	for i := len(t.state.installations) - 1; i >= 0; i-- {
		if inst := t.state.installations[i]; inst.PartID == partID {
			out = append(out, inst.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].InstalledAt.After(out[j].InstalledAt) })
	return out, nil
}

// Active bike

func (t *tx) GetActiveBikeID(_ context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	row, ok := t.state.active[userID]
	if !ok || row.bikeID == nil {
		return nil, nil
	}
	id := *row.bikeID
	return &id, nil
}

func (t *tx) SetActiveBikeID(_ context.Context, userID uuid.UUID, bikeID *uuid.UUID, at time.Time) error {
	if err := t.writable(); err != nil {
		return err
	}
	row := activeRow{updatedAt: at}
	if bikeID != nil {
		if _, ok := t.state.bikes[*bikeID]; !ok {
			return domain.ErrNotFound
		}
		id := *bikeID
		row.bikeID = &id
	}
	t.state.active[userID] = row
	return nil
}

// Kilometrage log

func (t *tx) AppendEntry(_ context.Context, entry *domain.KilometrageLogEntry) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.bikes[entry.BikeID]; !ok {
		return domain.ErrNotFound
	}
	e := *entry
	t.state.kilometrage = append(t.state.kilometrage, &e)
	return nil
}

func (t *tx) EntriesForBike(_ context.Context, bikeID uuid.UUID, limit, offset int) ([]*domain.KilometrageLogEntry, error) {
	all := make([]*domain.KilometrageLogEntry, 0)
	for i := len(t.state.kilometrage) - 1; i >= 0; i-- {
		if e := t.state.kilometrage[i]; e.BikeID == bikeID {
			c := *e
			all = append(all, &c)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].LoggedAt.After(all[j].LoggedAt) })
	if offset >= len(all) {
		return []*domain.KilometrageLogEntry{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (t *tx) SumSince(_ context.Context, bikeID uuid.UUID, since time.Time) (float64, error) {
	var sum float64
	for _, e := range t.state.kilometrage {
		if e.BikeID == bikeID && e.LoggedAt.After(since) {
			sum += e.DistanceKm
		}
	}
	return sum, nil
}

// Maintenance log

func (t *tx) AppendRecord(_ context.Context, record *domain.MaintenanceRecord) error {
	if err := t.writable(); err != nil {
		return err
	}
	r := *record
	if record.Cost != nil {
		cost := *record.Cost
		r.Cost = &cost
	}
	t.state.maintenance = append(t.state.maintenance, &r)
	return nil
}

func (t *tx) RecordsForSubject(_ context.Context, subjectType domain.SubjectType, subjectID uuid.UUID) ([]*domain.MaintenanceRecord, error) {
	out := make([]*domain.MaintenanceRecord, 0)
	for i := len(t.state.maintenance) - 1; i >= 0; i-- {
		if r := t.state.maintenance[i]; r.SubjectType == subjectType && r.SubjectID == subjectID {
			c := *r
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PerformedAt.After(out[j].PerformedAt) })
	return out, nil
}

// Ownership history

func (t *tx) AppendTransfer(_ context.Context, record *domain.OwnershipHistoryRecord) error {
	if err := t.writable(); err != nil {
		return err
	}
	r := *record
	t.state.ownership = append(t.state.ownership, &r)
	return nil
}

func (t *tx) TransfersForEntity(_ context.Context, entityType domain.SubjectType, entityID uuid.UUID) ([]*domain.OwnershipHistoryRecord, error) {
	out := make([]*domain.OwnershipHistoryRecord, 0)
	for i := len(t.state.ownership) - 1; i >= 0; i-- {
		if r := t.state.ownership[i]; r.EntityType == entityType && r.EntityID == entityID {
			c := *r
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TransferredAt.After(out[j].TransferredAt) })
	return out, nil
}
