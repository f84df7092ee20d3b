package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8480", cfg.Port)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "frameconomics", cfg.DBName)
	assert.Equal(t, "localhost:6379", cfg.RedisURL)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, "development", cfg.Env)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "db.internal", cfg.DBHost)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db",
		DBPort:     "5432",
		DBUser:     "app",
		DBPassword: "secret",
		DBName:     "community",
		DBSSLMode:  "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=app password=secret dbname=community sslmode=disable",
		cfg.DSN())
}
