package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func countOpen(history []*domain.Installation) int {
	n := 0
	for _, inst := range history {
		if inst.IsOpen() {
			n++
		}
	}
	return n
}

func TestConcurrentInstallsLeaveOneOpenRow(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := newGarage(rt)
		ctx := context.Background()
		owner := g.user()
		part := g.part(rt, owner, "Chain")

		bikeCount := rapid.IntRange(1, 4).Draw(rt, "bikes")
		bikes := make([]*domain.Bike, bikeCount)
		for i := range bikes {
			bikes[i] = g.bike(rt, owner, "bike")
		}
		targets := rapid.SliceOfN(rapid.IntRange(0, bikeCount-1), 1, 12).Draw(rt, "installs")

		var wg sync.WaitGroup
		errs := make([]error, len(targets))
		for i, target := range targets {
			wg.Add(1)
			go func(i int, bikeID uuid.UUID) {
				defer wg.Done()
				_, errs[i] = g.installs.Install(ctx, part.ID, bikeID, owner)
			}(i, bikes[target].ID)
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(rt, err)
		}

		history, err := g.installs.History(ctx, part.ID, owner)
		require.NoError(rt, err)
		require.Len(rt, history, len(targets))
		require.Equal(rt, 1, countOpen(history))
	})
}

// TestDistanceCascadeMatchesModel replays random install, remove and log
// operations and compares every total with a plain in-test model.
func TestDistanceCascadeMatchesModel(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := newGarage(rt)
		ctx := context.Background()
		owner := g.user()

		bikes := []*domain.Bike{g.bike(rt, owner, "a"), g.bike(rt, owner, "b")}
		parts := []*domain.Part{g.part(rt, owner, "x"), g.part(rt, owner, "y"), g.part(rt, owner, "z")}

		bikeKm := map[uuid.UUID]float64{}
		partKm := map[uuid.UUID]float64{}
		mountedOn := map[uuid.UUID]uuid.UUID{}

		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			bike := rapid.SampledFrom(bikes).Draw(rt, "bike")
			part := rapid.SampledFrom(parts).Draw(rt, "part")
			switch rapid.SampledFrom([]string{"install", "remove", "log"}).Draw(rt, "op") {
			case "install":
				_, err := g.installs.Install(ctx, part.ID, bike.ID, owner)
				require.NoError(rt, err)
				mountedOn[part.ID] = bike.ID
			case "remove":
				_, err := g.installs.Remove(ctx, part.ID, bike.ID, owner)
				if on, ok := mountedOn[part.ID]; ok && on == bike.ID {
					require.NoError(rt, err)
					delete(mountedOn, part.ID)
				} else {
					require.ErrorIs(rt, err, domain.ErrNotInstalled)
				}
			case "log":
				km := rapid.Float64Range(0.5, 200).Draw(rt, "km")
				res, err := g.kilometrage.LogDistance(ctx, bike.ID, owner, km, domain.Kilometers)
				require.NoError(rt, err)
				bikeKm[bike.ID] += km
				n := 0
				for partID, on := range mountedOn {
					if on == bike.ID {
						partKm[partID] += km
						n++
					}
				}
				require.Len(rt, res.Parts, n)
			}
		}

		for _, b := range bikes {
			require.InDelta(rt, bikeKm[b.ID], g.getBike(rt, b.ID, owner).TotalKilometrage, 1e-6)
		}
		for _, p := range parts {
			require.InDelta(rt, partKm[p.ID], g.getPart(rt, p.ID, owner).TotalKilometrage, 1e-6)
			history, err := g.installs.History(ctx, p.ID, owner)
			require.NoError(rt, err)
			require.LessOrEqual(rt, countOpen(history), 1)
		}
	})
}

func TestTransfersPreserveKilometrage(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := newGarage(rt)
		ctx := context.Background()
		alice, bob := g.user(), g.user()
		bike := g.bike(rt, alice, "Commuter")

		partCount := rapid.IntRange(0, 4).Draw(rt, "parts")
		mounted := map[uuid.UUID]bool{}
		for i := 0; i < partCount; i++ {
			p := g.part(rt, alice, "p")
			if rapid.Bool().Draw(rt, "mount") {
				_, err := g.installs.Install(ctx, p.ID, bike.ID, alice)
				require.NoError(rt, err)
				mounted[p.ID] = true
			}
		}
		_, err := g.kilometrage.LogDistance(ctx, bike.ID, alice, rapid.Float64Range(1, 500).Draw(rt, "km"), domain.Kilometers)
		require.NoError(rt, err)

		before := map[uuid.UUID]float64{}
		all, err := g.parts.ListParts(ctx, alice)
		require.NoError(rt, err)
		for _, p := range all {
			before[p.ID] = p.TotalKilometrage
		}
		bikeBefore := g.getBike(rt, bike.ID, alice).TotalKilometrage

		res, err := g.transfers.TransferBike(ctx, bike.ID, alice, bob)
		require.NoError(rt, err)
		require.Len(rt, res.Records, len(mounted)+1)
		require.Equal(rt, bikeBefore, g.getBike(rt, bike.ID, bob).TotalKilometrage)

		for _, p := range all {
			owner := alice
			if mounted[p.ID] {
				owner = bob
			}
			got := g.getPart(rt, p.ID, owner)
			require.Equal(rt, before[p.ID], got.TotalKilometrage)
		}
	})
}
