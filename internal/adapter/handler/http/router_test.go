package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sm8ta/webike_garage_service/internal/adapter/logger"
	"github.com/sm8ta/webike_garage_service/internal/adapter/memory"
	"github.com/sm8ta/webike_garage_service/internal/adapter/prometheus"
	"github.com/sm8ta/webike_garage_service/internal/adapter/redis"
	"github.com/sm8ta/webike_garage_service/internal/config"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/services"
)

const testSecret = "test-secret"

type knownUsers map[uuid.UUID]bool

func (k knownUsers) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return k[id], nil
}

type testServer struct {
	engine *gin.Engine
	users  knownUsers
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewLoggerAdapterTo("test", io.Discard)
	metrics := prometheus.NewPrometheusAdapterWith(prom.NewRegistry())
	users := knownUsers{}
	deps := services.Deps{
		Store:   memory.NewStore(),
		Logger:  log,
		Cache:   redis.NoopCache{},
		Metrics: metrics,
	}

	router, err := NewRouter(&config.HTTP{Env: "test", AllowedOrigins: "*"}, NewJWTTokenService(testSecret, log), Handlers{
		Bike:         NewBikeHandler(services.NewBikeService(deps), log, metrics),
		Part:         NewPartHandler(services.NewPartService(deps), log, metrics),
		Installation: NewInstallationHandler(services.NewInstallationService(deps), log, metrics),
		Active:       NewActiveBikeHandler(services.NewActiveBikeService(deps), log, metrics),
		Kilometrage:  NewKilometrageHandler(services.NewKilometrageService(deps), log, metrics),
		Maintenance:  NewMaintenanceHandler(services.NewMaintenanceService(deps), log, metrics),
		Transfer:     NewTransferHandler(services.NewTransferService(deps, users), log, metrics),
		Stats:        NewStatsHandler(services.NewStatsService(deps), log, metrics),
	})
	require.NoError(t, err)
	return &testServer{engine: router.Engine(), users: users}
}

func (s *testServer) user() uuid.UUID {
	id := uuid.New()
	s.users[id] = true
	return id
}

func signToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":      uuid.NewString(),
		"user_id": userID.String(),
		"role":    string(domain.AppUser),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path string, userID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+signToken(t, userID))
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) createBike(t *testing.T, owner uuid.UUID, name string) BikeResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/bikes", owner, gin.H{"name": name, "type": "road"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[BikeResponse](t, rec)
}

func (s *testServer) createPart(t *testing.T, owner uuid.UUID, name string) PartResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/parts", owner, gin.H{"name": name, "type": "chain"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[PartResponse](t, rec)
}

func (s *testServer) install(t *testing.T, owner uuid.UUID, partID, bikeID uuid.UUID) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/parts/"+partID.String()+"/install", owner, gin.H{"bike_id": bikeID.String()})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHealthNeedsNoToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/bikes/my", uuid.Nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/bikes/my", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBikeLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	owner := s.user()

	bike := s.createBike(t, owner, "Commuter")
	assert.Equal(t, owner, bike.OwnerID)
	assert.Equal(t, "km", bike.Unit)

	rec := s.do(t, http.MethodPut, "/bikes/"+bike.ID.String(), owner, gin.H{"name": "Racer"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Racer", decode[BikeResponse](t, rec).Name)

	rec = s.do(t, http.MethodGet, "/bikes/my", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[BikeListResponse](t, rec).Count)

	rec = s.do(t, http.MethodDelete, "/bikes/"+bike.ID.String(), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/bikes/"+bike.ID.String(), owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForeignBikeIsNotFound(t *testing.T) {
	s := newTestServer(t)
	owner, stranger := s.user(), s.user()
	bike := s.createBike(t, owner, "Mine")

	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/bikes/" + bike.ID.String(), nil},
		{http.MethodPut, "/bikes/" + bike.ID.String(), gin.H{"name": "Stolen"}},
		{http.MethodPost, "/bikes/" + bike.ID.String() + "/kilometrage", gin.H{"distance": 5}},
		{http.MethodGet, "/bikes/" + bike.ID.String() + "/stats", nil},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := s.do(t, tc.method, tc.path, stranger, tc.body)
			assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
		})
	}
}

func TestDistanceCascadesToMountedParts(t *testing.T) {
	s := newTestServer(t)
	owner := s.user()
	bike := s.createBike(t, owner, "Commuter")
	chain := s.createPart(t, owner, "Chain")
	spare := s.createPart(t, owner, "Spare")
	s.install(t, owner, chain.ID, bike.ID)

	rec := s.do(t, http.MethodPost, "/bikes/"+bike.ID.String()+"/kilometrage", owner, gin.H{"distance": 42.5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[DistanceLogResponse](t, rec)
	assert.InDelta(t, 42.5, res.Bike.TotalKilometrage, 1e-9)
	require.Len(t, res.Parts, 1)
	assert.Equal(t, chain.ID, res.Parts[0].ID)

	rec = s.do(t, http.MethodGet, "/parts/"+spare.ID.String(), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[PartResponse](t, rec).TotalKilometrage)

	rec = s.do(t, http.MethodGet, "/bikes/"+bike.ID.String()+"/kilometrage?limit=5", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[KilometrageHistoryResponse](t, rec)
	assert.Equal(t, 5, history.Limit)
	require.Len(t, history.Entries, 1)
	assert.Equal(t, "manual", history.Entries[0].Source)
}

func TestDistanceValidation(t *testing.T) {
	s := newTestServer(t)
	owner := s.user()
	bike := s.createBike(t, owner, "Commuter")
	path := "/bikes/" + bike.ID.String() + "/kilometrage"

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, path, owner, gin.H{"distance": 0}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, path, owner, gin.H{"distance": -3}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, path, owner, gin.H{}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, path+"?unit=furlong", owner, gin.H{"distance": 1}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, path+"?offset=-1", owner, nil).Code)
}

func TestMilesAreConvertedAtTheBoundary(t *testing.T) {
	s := newTestServer(t)
	owner := s.user()

	rec := s.do(t, http.MethodPost, "/bikes?unit=mi", owner, gin.H{"name": "Tourer", "type": "gravel", "starting_distance": 10})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bike := decode[BikeResponse](t, rec)
	assert.Equal(t, "mi", bike.Unit)
	assert.InDelta(t, 10, bike.TotalKilometrage, 1e-9)

	rec = s.do(t, http.MethodGet, "/bikes/"+bike.ID.String(), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 16.09344, decode[BikeResponse](t, rec).TotalKilometrage, 1e-9)
}

func TestActiveBikeAndTrips(t *testing.T) {
	s := newTestServer(t)
	owner := s.user()
	bike := s.createBike(t, owner, "Commuter")

	rec := s.do(t, http.MethodPost, "/trips", owner, gin.H{"distance": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "trip without an active bike")

	rec = s.do(t, http.MethodGet, "/active-bike", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[ActiveBikeResponse](t, rec).Active)

	rec = s.do(t, http.MethodPut, "/bikes/"+bike.ID.String()+"/active", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/trips", owner, gin.H{"distance": 3})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	trip := decode[DistanceLogResponse](t, rec)
	assert.Equal(t, bike.ID, trip.Bike.ID)
	assert.Equal(t, "trip", trip.Entry.Source)

	rec = s.do(t, http.MethodDelete, "/bikes/"+bike.ID.String()+"/active", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, "/bikes/"+bike.ID.String()+"/active", owner, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRemovingAnUninstalledPartConflicts(t *testing.T) {
	s := newTestServer(t)
	owner := s.user()
	bike := s.createBike(t, owner, "Commuter")
	part := s.createPart(t, owner, "Chain")

	rec := s.do(t, http.MethodPost, "/parts/"+part.ID.String()+"/remove", owner, gin.H{"bike_id": bike.ID.String()})
	assert.Equal(t, http.StatusConflict, rec.Code)

	s.install(t, owner, part.ID, bike.ID)
	rec = s.do(t, http.MethodPost, "/parts/"+part.ID.String()+"/remove", owner, gin.H{"bike_id": bike.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/parts/"+part.ID.String()+"/installations", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[InstallationListResponse](t, rec).Count)
}

func TestTransferOverHTTP(t *testing.T) {
	s := newTestServer(t)
	seller, buyer := s.user(), s.user()
	bike := s.createBike(t, seller, "Commuter")
	part := s.createPart(t, seller, "Chain")
	s.install(t, seller, part.ID, bike.ID)
	path := "/bikes/" + bike.ID.String() + "/transfer"

	rec := s.do(t, http.MethodPost, path, seller, gin.H{"new_owner_id": seller.String()})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "self-transfer")

	rec = s.do(t, http.MethodPost, path, seller, gin.H{"new_owner_id": uuid.NewString()})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "unknown recipient")

	rec = s.do(t, http.MethodPost, path, seller, gin.H{"new_owner_id": buyer.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decode[BikeTransferResponse](t, rec)
	assert.Equal(t, buyer, moved.Bike.OwnerID)
	require.Len(t, moved.Parts, 1)
	assert.Equal(t, buyer, moved.Parts[0].OwnerID)
	assert.Len(t, moved.Records, 2)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/bikes/"+bike.ID.String(), seller, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/bikes/"+bike.ID.String(), buyer, nil).Code)

	rec = s.do(t, http.MethodGet, "/bikes/"+bike.ID.String()+"/ownership", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[OwnershipHistoryResponse](t, rec).Count)
}

func TestMaintenanceAndStats(t *testing.T) {
	s := newTestServer(t)
	owner := s.user()
	bike := s.createBike(t, owner, "Commuter")
	bikePath := "/bikes/" + bike.ID.String()

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, bikePath+"/kilometrage", owner, gin.H{"distance": 100}).Code)

	rec := s.do(t, http.MethodPost, bikePath+"/maintenance", owner, gin.H{"maintenance_type": "cleaning", "cost": 12.5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, bikePath+"/maintenance", owner, gin.H{"maintenance_type": "polishing"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, bikePath+"/kilometrage", owner, gin.H{"distance": 30}).Code)

	rec = s.do(t, http.MethodGet, bikePath+"/maintenance", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[MaintenanceListResponse](t, rec).Count)

	rec = s.do(t, http.MethodGet, bikePath+"/stats", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stats := decode[domain.BikeStats](t, rec)
	assert.InDelta(t, 130, stats.TotalKilometrage, 1e-9)
	assert.InDelta(t, 30, stats.KilometrageSinceMaintenance, 1e-9)
	require.NotNil(t, stats.DaysSinceLastMaintenance)
	assert.Equal(t, 0, *stats.DaysSinceLastMaintenance)

	part := s.createPart(t, owner, "Chain")
	s.install(t, owner, part.ID, bike.ID)
	rec = s.do(t, http.MethodGet, "/parts/"+part.ID.String()+"/stats", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	partStats := decode[PartStatsResponse](t, rec)
	require.NotNil(t, partStats.CurrentBike)
	assert.Equal(t, bike.ID, partStats.CurrentBike.ID)
	assert.Equal(t, 1, partStats.InstallationCount)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidDistance, http.StatusBadRequest},
		{domain.ErrNoActiveBike, http.StatusBadRequest},
		{domain.ErrInvalidTransfer, http.StatusBadRequest},
		{domain.ErrNotOwner, http.StatusNotFound},
		{fmt.Errorf("get bike: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrConflictNotActive, http.StatusConflict},
		{domain.ErrNotInstalled, http.StatusConflict},
		{domain.ErrStoreConflict, http.StatusConflict},
		{domain.ErrUnknownUser, http.StatusUnprocessableEntity},
		{domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{domain.ErrUpstreamUnavailable, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			got, _ := statusFor(tc.err)
			assert.Equal(t, tc.want, got)
		})
	}
}
