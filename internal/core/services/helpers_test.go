package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_garage_service/internal/adapter/memory"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return v, nil
}

func (c *mapCache) Set(key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type countingMetrics struct {
	mu        sync.Mutex
	retries   int
	distance  float64
	transfers int
}

func (m *countingMetrics) TxRetried(string) {
	m.mu.Lock()
	m.retries++
	m.mu.Unlock()
}

func (m *countingMetrics) DistanceLogged(km float64, _ int) {
	m.mu.Lock()
	m.distance += km
	m.mu.Unlock()
}

func (m *countingMetrics) OwnershipTransferred(_ string, count int) {
	m.mu.Lock()
	m.transfers += count
	m.mu.Unlock()
}

type staticUsers map[uuid.UUID]bool

func (u staticUsers) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return u[id], nil
}

// tickingClock advances one second per reading so ledger ordering is stable.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickingClock() *tickingClock {
	return &tickingClock{now: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *tickingClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type garage struct {
	store       *memory.Store
	cache       *mapCache
	metrics     *countingMetrics
	clock       *tickingClock
	users       staticUsers
	bikes       *BikeService
	parts       *PartService
	installs    *InstallationService
	active      *ActiveBikeService
	kilometrage *KilometrageService
	maintenance *MaintenanceService
	transfers   *TransferService
	stats       *StatsService
}

func newGarage(t require.TestingT) *garage {
	g := &garage{
		store:   memory.NewStore(),
		cache:   newMapCache(),
		metrics: &countingMetrics{},
		clock:   newTickingClock(),
		users:   staticUsers{},
	}
	g.wire(g.store)
	return g
}

func (g *garage) deps(store ports.Store, cache ports.CachePort) Deps {
	return Deps{
		Store:   store,
		Logger:  nopLogger{},
		Cache:   cache,
		Metrics: g.metrics,
		Retry:   RetryPolicy{MaxTries: 5, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond},
		Now:     g.clock.Now,
	}
}

func (g *garage) wire(store ports.Store) {
	g.wireDeps(g.deps(store, g.cache))
}

func (g *garage) wireDeps(d Deps) {
	g.bikes = NewBikeService(d)
	g.parts = NewPartService(d)
	g.installs = NewInstallationService(d)
	g.active = NewActiveBikeService(d)
	g.kilometrage = NewKilometrageService(d)
	g.maintenance = NewMaintenanceService(d)
	g.transfers = NewTransferService(d, g.users)
	g.stats = NewStatsService(d)
}

func (g *garage) user() uuid.UUID {
	id := uuid.New()
	g.users[id] = true
	return id
}

func (g *garage) bike(t require.TestingT, owner uuid.UUID, name string) *domain.Bike {
	b, err := g.bikes.CreateBike(context.Background(), owner, domain.BikeInput{Name: name, Type: domain.Road})
	require.NoError(t, err)
	return b
}

func (g *garage) part(t require.TestingT, owner uuid.UUID, name string) *domain.Part {
	p, err := g.parts.CreatePart(context.Background(), owner, domain.PartInput{Name: name, Type: domain.Chain})
	require.NoError(t, err)
	return p
}

func (g *garage) getBike(t require.TestingT, id, owner uuid.UUID) *domain.Bike {
	b, err := g.bikes.GetBike(context.Background(), id, owner)
	require.NoError(t, err)
	return b
}

func (g *garage) getPart(t require.TestingT, id, owner uuid.UUID) *domain.Part {
	p, err := g.parts.GetPart(context.Background(), id, owner)
	require.NoError(t, err)
	return p
}

func partIDs(parts []*domain.Part) []uuid.UUID {
	ids := make([]uuid.UUID, len(parts))
	for i, p := range parts {
		ids[i] = p.ID
	}
	return ids
}

func ptr[T any](v T) *T { return &v }
