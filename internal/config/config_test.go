package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	for _, key := range []string{"DB_DRIVER", "DB_SSLMODE", "MIGRATIONS_DIR", "RATE_LIMIT_RPS", "STORE_RETRY_MAX", "OTEL_EXPORTER_OTLP_ENDPOINT", "HTTP_PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, "production", cfg.HTTP.Env)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "disable", cfg.DB.SSLMode)
	assert.Equal(t, "./internal/adapter/postgres/migrations", cfg.DB.MigrationsDir)
	assert.Equal(t, "8081", cfg.HTTP.Port)
	assert.Zero(t, cfg.HTTP.RateLimitRPS)
	assert.Equal(t, 5, cfg.Store.RetryMax)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
}

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "garage")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "webike")
	t.Setenv("DB_SSLMODE", "require")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "7")
	t.Setenv("STORE_RETRY_MAX", "9")
	t.Setenv("USER_SERVICE_ADDRESS", "users:8080")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.Equal(t, "host=db port=6543 user=garage password=secret dbname=webike sslmode=require", cfg.DB.DSN())
	assert.Equal(t, 2.5, cfg.HTTP.RateLimitRPS)
	assert.Equal(t, 7, cfg.HTTP.RateLimitBurst)
	assert.Equal(t, 9, cfg.Store.RetryMax)
	assert.Equal(t, "users:8080", cfg.UserService.Address)
	assert.Equal(t, "collector:4318", cfg.Telemetry.OTLPEndpoint)
}

func TestGetEnvAsIntFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	assert.Equal(t, 3, getEnvAsInt("SOME_INT", 3))

	t.Setenv("SOME_INT", "12")
	assert.Equal(t, 12, getEnvAsInt("SOME_INT", 3))
}

func TestNewToleratesMissingDotEnv(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Chdir(t.TempDir())

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.App.Env)
}
