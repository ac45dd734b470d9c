// Package memory provides an in-process transactional store. Each
// transaction works on a cloned state under an exclusive lock and replaces the
// committed state only when it succeeds, so transactions are serializable.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
)

var errReadOnly = errors.New("memory: write in read-only transaction")

type bikeRow struct {
	bike *domain.Bike
	seq  int64
}

type partRow struct {
	part *domain.Part
	seq  int64
}

type activeRow struct {
	bikeID    *uuid.UUID
	updatedAt time.Time
}

type state struct {
	seq           int64
	bikes         map[uuid.UUID]bikeRow
	parts         map[uuid.UUID]partRow
	installations []*domain.Installation
	active        map[uuid.UUID]activeRow
	kilometrage   []*domain.KilometrageLogEntry
	maintenance   []*domain.MaintenanceRecord
	ownership     []*domain.OwnershipHistoryRecord
}

func newState() state {
	return state{
		bikes:  map[uuid.UUID]bikeRow{},
		parts:  map[uuid.UUID]partRow{},
		active: map[uuid.UUID]activeRow{},
	}
}

func (s state) clone() state {
	c := state{
		seq:         s.seq,
		bikes:       make(map[uuid.UUID]bikeRow, len(s.bikes)),
		parts:       make(map[uuid.UUID]partRow, len(s.parts)),
		active:      make(map[uuid.UUID]activeRow, len(s.active)),
		kilometrage: append([]*domain.KilometrageLogEntry(nil), s.kilometrage...),
		maintenance: append([]*domain.MaintenanceRecord(nil), s.maintenance...),
		ownership:   append([]*domain.OwnershipHistoryRecord(nil), s.ownership...),
	}
	for id, row := range s.bikes {
		c.bikes[id] = bikeRow{bike: row.bike.Clone(), seq: row.seq}
	}
	for id, row := range s.parts {
		c.parts[id] = partRow{part: row.part.Clone(), seq: row.seq}
	}
	for id, row := range s.active {
		c.active[id] = row
	}
	c.installations = make([]*domain.Installation, len(s.installations))
	for i, inst := range s.installations {
		c.installations[i] = inst.Clone()
	}
	return c
}

func (s *state) next() int64 {
	s.seq++
	return s.seq
}

// Store implements ports.Store in memory.
type Store struct {
	mu    sync.RWMutex
	state state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{state: s.state.clone()}
	if err := fn(ctx, t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = t.state
	return nil
}

func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	return fn(ctx, &tx{state: st, readOnly: true})
}

type tx struct {
	state    state
	readOnly bool
}

func (t *tx) Bikes() ports.BikeRepository                 { return bikeRepo{t} }
func (t *tx) Parts() ports.PartRepository                 { return partRepo{t} }
func (t *tx) Installations() ports.InstallationRepository { return t }
func (t *tx) ActiveBikes() ports.ActiveBikeRepository     { return t }
func (t *tx) Kilometrage() ports.KilometrageRepository    { return t }
func (t *tx) Maintenance() ports.MaintenanceRepository    { return t }
func (t *tx) Ownership() ports.OwnershipRepository        { return t }

type bikeRepo struct{ *tx }

type partRepo struct{ *tx }

func (t *tx) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

// Bikes

func (t bikeRepo) CreateBike(_ context.Context, bike *domain.Bike) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.bikes[bike.ID]; ok {
		return fmt.Errorf("memory: bike %s already exists", bike.ID)
	}
	t.state.bikes[bike.ID] = bikeRow{bike: bike.Clone(), seq: t.state.next()}
	return nil
}

func (t bikeRepo) GetBikeForOwner(_ context.Context, bikeID, ownerID uuid.UUID) (*domain.Bike, error) {
	row, ok := t.state.bikes[bikeID]
	if !ok || row.bike.OwnerID != ownerID {
		return nil, domain.ErrNotOwner
	}
	return row.bike.Clone(), nil
}

func (t bikeRepo) BikeVersion(_ context.Context, bikeID uuid.UUID) (domain.RowVersion, error) {
	row, ok := t.state.bikes[bikeID]
	if !ok {
		return domain.RowVersion{}, domain.ErrNotOwner
	}
	return domain.RowVersion{OwnerID: row.bike.OwnerID, UpdatedAt: row.bike.UpdatedAt}, nil
}

func (t bikeRepo) GetBikesByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Bike, error) {
	rows := make([]bikeRow, 0)
	for _, row := range t.state.bikes {
		if row.bike.OwnerID == ownerID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	bikes := make([]*domain.Bike, len(rows))
	for i, row := range rows {
		bikes[i] = row.bike.Clone()
	}
	return bikes, nil
}

func (t bikeRepo) UpdateBike(_ context.Context, bike *domain.Bike) error {
	if err := t.writable(); err != nil {
		return err
	}
	row, ok := t.state.bikes[bike.ID]
	if !ok {
		return domain.ErrNotFound
	}
	updated := bike.Clone()
	updated.OwnerID = row.bike.OwnerID
	updated.TotalKilometrage = row.bike.TotalKilometrage
	updated.CreatedAt = row.bike.CreatedAt
	t.state.bikes[bike.ID] = bikeRow{bike: updated, seq: row.seq}
	return nil
}

func (t bikeRepo) AddKilometrage(_ context.Context, bikeID uuid.UUID, km float64, at time.Time) (*domain.Bike, error) {
	if err := t.writable(); err != nil {
		return nil, err
	}
	row, ok := t.state.bikes[bikeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	row.bike.TotalKilometrage += km
	row.bike.UpdatedAt = at
	return row.bike.Clone(), nil
}

func (t bikeRepo) SetBikeOwner(_ context.Context, bikeID, ownerID uuid.UUID, at time.Time) error {
	if err := t.writable(); err != nil {
		return err
	}
	row, ok := t.state.bikes[bikeID]
	if !ok {
		return domain.ErrNotFound
	}
	row.bike.OwnerID = ownerID
	row.bike.UpdatedAt = at
	return nil
}

func (t bikeRepo) DeleteBike(_ context.Context, bikeID uuid.UUID) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.bikes[bikeID]; !ok {
		return domain.ErrNotFound
	}
	delete(t.state.bikes, bikeID)

	kept := t.state.installations[:0]
	for _, inst := range t.state.installations {
		if inst.BikeID != bikeID {
			kept = append(kept, inst)
		}
	}
	t.state.installations = kept

	for userID, row := range t.state.active {
		if row.bikeID != nil && *row.bikeID == bikeID {
			t.state.active[userID] = activeRow{updatedAt: row.updatedAt}
		}
	}
	return nil
}

// Parts

func (t partRepo) CreatePart(_ context.Context, part *domain.Part) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.parts[part.ID]; ok {
		return fmt.Errorf("memory: part %s already exists", part.ID)
	}
	t.state.parts[part.ID] = partRow{part: part.Clone(), seq: t.state.next()}
	return nil
}

func (t partRepo) GetPartForOwner(_ context.Context, partID, ownerID uuid.UUID) (*domain.Part, error) {
	row, ok := t.state.parts[partID]
	if !ok || row.part.OwnerID != ownerID {
		return nil, domain.ErrNotOwner
	}
	return row.part.Clone(), nil
}

func (t partRepo) PartVersion(_ context.Context, partID uuid.UUID) (domain.RowVersion, error) {
	row, ok := t.state.parts[partID]
	if !ok {
		return domain.RowVersion{}, domain.ErrNotOwner
	}
	return domain.RowVersion{OwnerID: row.part.OwnerID, UpdatedAt: row.part.UpdatedAt}, nil
}

func (t partRepo) GetPartsByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Part, error) {
	rows := make([]partRow, 0)
	for _, row := range t.state.parts {
		if row.part.OwnerID == ownerID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	parts := make([]*domain.Part, len(rows))
	for i, row := range rows {
		parts[i] = row.part.Clone()
	}
	return parts, nil
}

func (t partRepo) UpdatePart(_ context.Context, part *domain.Part) error {
	if err := t.writable(); err != nil {
		return err
	}
	row, ok := t.state.parts[part.ID]
	if !ok {
		return domain.ErrNotFound
	}
	updated := part.Clone()
	updated.OwnerID = row.part.OwnerID
	updated.TotalKilometrage = row.part.TotalKilometrage
	updated.CreatedAt = row.part.CreatedAt
	t.state.parts[part.ID] = partRow{part: updated, seq: row.seq}
	return nil
}

func (t partRepo) AddKilometrage(_ context.Context, partIDs []uuid.UUID, km float64, at time.Time) ([]*domain.Part, error) {
	if err := t.writable(); err != nil {
		return nil, err
	}
	parts := make([]*domain.Part, 0, len(partIDs))
	for _, id := range partIDs {
		row, ok := t.state.parts[id]
		if !ok {
			return nil, domain.ErrNotFound
		}
		row.part.TotalKilometrage += km
		row.part.UpdatedAt = at
		parts = append(parts, row.part.Clone())
	}
	return parts, nil
}

func (t partRepo) SetPartsOwner(_ context.Context, partIDs []uuid.UUID, ownerID uuid.UUID, at time.Time) error {
	if err := t.writable(); err != nil {
		return err
	}
	for _, id := range partIDs {
		row, ok := t.state.parts[id]
		if !ok {
			return domain.ErrNotFound
		}
		row.part.OwnerID = ownerID
		row.part.UpdatedAt = at
	}
	return nil
}

func (t partRepo) DeletePart(_ context.Context, partID uuid.UUID) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.parts[partID]; !ok {
		return domain.ErrNotFound
	}
	delete(t.state.parts, partID)

	kept := t.state.installations[:0]
	for _, inst := range t.state.installations {
		if inst.PartID != partID {
			kept = append(kept, inst)
		}
	}
	t.state.installations = kept
	return nil
}
