package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDiskFull = errors.New("could not extend file: no space left on device")

// brokenStore hands out transactions whose later writes fail, so a
// transfer gets partway through before it has to roll back.
type brokenStore struct {
	ports.Store
	failParts     bool
	failOwnership bool
}

func (s *brokenStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		return fn(ctx, &brokenTx{Tx: tx, store: s})
	})
}

type brokenTx struct {
	ports.Tx
	store *brokenStore
}

func (t *brokenTx) Parts() ports.PartRepository {
	if t.store.failParts {
		return brokenParts{t.Tx.Parts()}
	}
	return t.Tx.Parts()
}

func (t *brokenTx) Ownership() ports.OwnershipRepository {
	if t.store.failOwnership {
		return brokenOwnership{t.Tx.Ownership()}
	}
	return t.Tx.Ownership()
}

type brokenParts struct{ ports.PartRepository }

func (brokenParts) SetPartsOwner(context.Context, []uuid.UUID, uuid.UUID, time.Time) error {
	return errDiskFull
}

type brokenOwnership struct{ ports.OwnershipRepository }

func (brokenOwnership) AppendTransfer(context.Context, *domain.OwnershipHistoryRecord) error {
	return errDiskFull
}

// mountedGarage is alice's active commuter with a chain mounted and some
// distance on it.
func mountedGarage(t *testing.T) (g *garage, alice, bob uuid.UUID, bike *domain.Bike, chain *domain.Part) {
	g = newGarage(t)
	ctx := context.Background()
	alice, bob = g.user(), g.user()
	bike = g.bike(t, alice, "Commuter")
	chain = g.part(t, alice, "Chain A")

	_, err := g.installs.Install(ctx, chain.ID, bike.ID, alice)
	require.NoError(t, err)
	_, err = g.active.SetActive(ctx, alice, bike.ID)
	require.NoError(t, err)
	_, err = g.kilometrage.LogDistance(ctx, bike.ID, alice, 25, domain.Kilometers)
	require.NoError(t, err)
	return g, alice, bob, g.getBike(t, bike.ID, alice), g.getPart(t, chain.ID, alice)
}

func assertNothingMoved(t *testing.T, g *garage, alice, bob uuid.UUID, bike *domain.Bike, chain *domain.Part) {
	t.Helper()
	ctx := context.Background()
	g.wire(g.store)

	gotBike := g.getBike(t, bike.ID, alice)
	assert.Equal(t, alice, gotBike.OwnerID)
	assert.Equal(t, bike.TotalKilometrage, gotBike.TotalKilometrage)
	assert.True(t, bike.UpdatedAt.Equal(gotBike.UpdatedAt))
	gotChain := g.getPart(t, chain.ID, alice)
	assert.Equal(t, alice, gotChain.OwnerID)
	assert.Equal(t, chain.TotalKilometrage, gotChain.TotalKilometrage)
	assert.True(t, chain.UpdatedAt.Equal(gotChain.UpdatedAt))
	_, err := g.bikes.GetBike(ctx, bike.ID, bob)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = g.parts.GetPart(ctx, chain.ID, bob)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mounted, err := g.installs.ActivePartsFor(ctx, bike.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{chain.ID}, partIDs(mounted))
	history, err := g.installs.History(ctx, chain.ID, alice)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].IsOpen())

	active, err := g.active.GetActive(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, bike.ID, active.Bike.ID)

	records, err := g.transfers.History(ctx, domain.SubjectBike, bike.ID, alice)
	require.NoError(t, err)
	assert.Empty(t, records)
	records, err = g.transfers.History(ctx, domain.SubjectPart, chain.ID, alice)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, g.metrics.transfers)
}

func TestTransferBikeRollsBackOnHistoryFailure(t *testing.T) {
	g, alice, bob, bike, chain := mountedGarage(t)
	g.wire(&brokenStore{Store: g.store, failOwnership: true})

	_, err := g.transfers.TransferBike(context.Background(), bike.ID, alice, bob)
	require.ErrorIs(t, err, errDiskFull)

	assertNothingMoved(t, g, alice, bob, bike, chain)
}

func TestTransferBikeRollsBackOnPartsFailure(t *testing.T) {
	g, alice, bob, bike, chain := mountedGarage(t)
	g.wire(&brokenStore{Store: g.store, failParts: true})

	_, err := g.transfers.TransferBike(context.Background(), bike.ID, alice, bob)
	require.ErrorIs(t, err, errDiskFull)

	assertNothingMoved(t, g, alice, bob, bike, chain)
}

func TestTransferPartRollsBackOnHistoryFailure(t *testing.T) {
	g, alice, bob, bike, chain := mountedGarage(t)
	g.wire(&brokenStore{Store: g.store, failOwnership: true})

	_, err := g.transfers.TransferPart(context.Background(), chain.ID, alice, bob)
	require.ErrorIs(t, err, errDiskFull)

	// the installation it closed before failing is open again
	assertNothingMoved(t, g, alice, bob, bike, chain)
}

func TestTransferPartRollsBackOnOwnerFailure(t *testing.T) {
	g, alice, bob, bike, chain := mountedGarage(t)
	g.wire(&brokenStore{Store: g.store, failParts: true})

	_, err := g.transfers.TransferPart(context.Background(), chain.ID, alice, bob)
	require.ErrorIs(t, err, errDiskFull)

	assertNothingMoved(t, g, alice, bob, bike, chain)
}
