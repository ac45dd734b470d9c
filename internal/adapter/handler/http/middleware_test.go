package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sm8ta/webike_garage_service/internal/adapter/logger"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
)

func limitedEngine(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(rps, burst))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func hit(r *gin.Engine, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitPerClient(t *testing.T) {
	r := limitedEngine(0.001, 2)

	assert.Equal(t, http.StatusNoContent, hit(r, "10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, hit(r, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, hit(r, "10.0.0.2"))
}

func TestRateLimitDisabled(t *testing.T) {
	r := limitedEngine(0, 0)
	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusNoContent, hit(r, "10.0.0.1"))
	}
}

func TestVerifyToken(t *testing.T) {
	svc := NewJWTTokenService(testSecret, logger.NewLoggerAdapterTo("test", io.Discard))
	userID := uuid.New()

	raw := signToken(t, userID)
	payload, err := svc.VerifyToken(raw)
	require.NoError(t, err)
	assert.Equal(t, userID, payload.UserID)
	assert.Equal(t, domain.AppUser, payload.Role)
	assert.Equal(t, raw, payload.Raw)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": uuid.NewString(), "user_id": userID.String(), "role": "appuser",
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.VerifyToken(forged)
	assert.ErrorIs(t, err, ErrBadToken)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": uuid.NewString(), "user_id": userID.String(), "role": "root",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.VerifyToken(badRole)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestVerifyTokenRefusesMalformedClaims(t *testing.T) {
	svc := NewJWTTokenService(testSecret, logger.NewLoggerAdapterTo("test", io.Discard))
	userID := uuid.NewString()

	cases := map[string]jwt.MapClaims{
		"missing id":      {"user_id": userID, "role": "appuser"},
		"id not a uuid":   {"id": "42", "user_id": userID, "role": "appuser"},
		"missing user_id": {"id": uuid.NewString(), "role": "appuser"},
		"numeric user_id": {"id": uuid.NewString(), "user_id": 7, "role": "appuser"},
		"missing role":    {"id": uuid.NewString(), "user_id": userID},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
			require.NoError(t, err)
			_, err = svc.VerifyToken(raw)
			assert.ErrorIs(t, err, ErrBadToken)
		})
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id": uuid.NewString(), "user_id": userID, "role": "appuser",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.VerifyToken(unsigned)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestAuthMiddlewarePutsTokenOnContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewJWTTokenService(testSecret, logger.NewLoggerAdapterTo("test", io.Discard))
	userID := uuid.New()

	r := gin.New()
	r.Use(AuthMiddleware(svc))
	r.GET("/", func(c *gin.Context) {
		payload, ok := domain.TokenFromContext(c.Request.Context())
		require.True(t, ok)
		c.String(http.StatusOK, payload.UserID.String())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+signToken(t, userID))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String(), rec.Body.String())
}
