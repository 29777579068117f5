package config_test

import (
	"testing"
	"time"

	"vending/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DB_DRIVER", "DATABASE_URL", "SQLITE_PATH",
		"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_SSLMODE",
		"JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "UPLOAD_DIR", "MAX_UPLOAD_MB",
		"GO_ENV", "FE_URL", "LOG_MODE", "LOG_FILE", "REDIS_ADDR",
		"ADMIN_EMAIL", "ADMIN_PASSWORD", "ALLOW_REGISTRATION", "SEED_PRODUCTS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadSize)
	assert.Equal(t, "dev_secret_change_me", cfg.JWTSecret)
	assert.True(t, cfg.SeedProducts)
	assert.True(t, cfg.AllowRegistration)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=vending sslmode=disable", cfg.PostgresDSN())
}

func TestLoad_JWTSecretRequiredInProd(t *testing.T) {
	clearEnv(t)
	t.Setenv("GO_ENV", "prod")

	_, err := config.Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoad_RegistrationClosedByDefaultInProd(t *testing.T) {
	clearEnv(t)
	t.Setenv("GO_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.False(t, cfg.AllowRegistration)

	t.Setenv("ALLOW_REGISTRATION", "true")
	cfg, err = config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.AllowRegistration)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_PORT", "abc")
	_, err := config.Load()
	assert.ErrorContains(t, err, "POSTGRES_PORT must be number")

	clearEnv(t)
	t.Setenv("ACCESS_TOKEN_TTL", "soon")
	_, err = config.Load()
	assert.ErrorContains(t, err, "ACCESS_TOKEN_TTL must be duration")

	clearEnv(t)
	t.Setenv("DB_DRIVER", "mysql")
	_, err = config.Load()
	assert.EqualError(t, err, "DB_DRIVER must be postgres or sqlite")

	clearEnv(t)
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	_, err = config.Load()
	assert.EqualError(t, err, "ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
}

func TestLoad_DatabaseURLWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.PostgresDSN())
}
