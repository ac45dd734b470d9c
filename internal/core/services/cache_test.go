package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// racyCache runs beforeSet once, ahead of the first Set, to land a write
// between a read and the cache fill that follows it.
type racyCache struct {
	*mapCache
	once      sync.Once
	beforeSet func()
}

func (c *racyCache) Set(key string, value []byte, ttl time.Duration) error {
	c.once.Do(c.beforeSet)
	return c.mapCache.Set(key, value, ttl)
}

// stickyCache never forgets a key.
type stickyCache struct {
	*mapCache
}

func (stickyCache) Delete(...string) error { return errors.New("redis: connection refused") }

func TestStaleBikeCacheAfterTransfer(t *testing.T) {
	g := newGarage(t)
	ctx := context.Background()
	alice, bob := g.user(), g.user()
	bike := g.bike(t, alice, "Commuter")

	cache := &racyCache{mapCache: g.cache}
	cache.beforeSet = func() {
		_, err := g.transfers.TransferBike(ctx, bike.ID, alice, bob)
		require.NoError(t, err)
	}
	g.wireDeps(g.deps(g.store, cache))

	// the read commits as alice, then the transfer lands before the fill
	got, err := g.bikes.GetBike(ctx, bike.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, alice, got.OwnerID)
	require.True(t, g.cache.has(bikeKey(bike.ID)))

	_, err = g.bikes.GetBike(ctx, bike.ID, alice)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, bob, g.getBike(t, bike.ID, bob).OwnerID)
}

func TestStalePartCacheAfterTransfer(t *testing.T) {
	g := newGarage(t)
	ctx := context.Background()
	alice, bob := g.user(), g.user()
	part := g.part(t, alice, "Chain A")

	cache := &racyCache{mapCache: g.cache}
	cache.beforeSet = func() {
		_, err := g.transfers.TransferPart(ctx, part.ID, alice, bob)
		require.NoError(t, err)
	}
	g.wireDeps(g.deps(g.store, cache))

	_, err := g.parts.GetPart(ctx, part.ID, alice)
	require.NoError(t, err)

	_, err = g.parts.GetPart(ctx, part.ID, alice)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, bob, g.getPart(t, part.ID, bob).OwnerID)
}

func TestFailedInvalidationCannotAuthorise(t *testing.T) {
	g := newGarage(t)
	ctx := context.Background()
	alice, bob := g.user(), g.user()
	bike := g.bike(t, alice, "Commuter")
	chain := g.part(t, alice, "Chain A")
	_, err := g.installs.Install(ctx, chain.ID, bike.ID, alice)
	require.NoError(t, err)

	g.wireDeps(g.deps(g.store, stickyCache{g.cache}))
	g.getBike(t, bike.ID, alice)
	g.getPart(t, chain.ID, alice)

	_, err = g.transfers.TransferBike(ctx, bike.ID, alice, bob)
	require.NoError(t, err)
	require.True(t, g.cache.has(bikeKey(bike.ID)))
	require.True(t, g.cache.has(partKey(chain.ID)))

	_, err = g.bikes.GetBike(ctx, bike.ID, alice)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = g.parts.GetPart(ctx, chain.ID, alice)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, bob, g.getBike(t, bike.ID, bob).OwnerID)
	assert.Equal(t, bob, g.getPart(t, chain.ID, bob).OwnerID)
}

func TestCachedBikeServedWhileCurrent(t *testing.T) {
	g := newGarage(t)
	ctx := context.Background()
	alice, bob := g.user(), g.user()
	bike := g.bike(t, alice, "Commuter")

	g.getBike(t, bike.ID, alice)
	require.True(t, g.cache.has(bikeKey(bike.ID)))

	_, err := g.bikes.GetBike(ctx, bike.ID, bob)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, bike.ID, g.getBike(t, bike.ID, alice).ID)
}
