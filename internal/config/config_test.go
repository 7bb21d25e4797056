package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 8, cfg.Payroll.DraftConcurrency)
	assert.False(t, cfg.Queue.Enabled)
	assert.Equal(t, "48h0m0s", cfg.Settlement.ActionRequiredAfter.String())
}

func TestValidate(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DB_PASSWORD", "")
	_, err := Load()
	assert.ErrorContains(t, err, "DB_PASSWORD")

	t.Setenv("STORAGE_DRIVER", "sqlite")
	_, err = Load()
	assert.ErrorContains(t, err, "STORAGE_DRIVER")

	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("QUEUE_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "")
	_, err = Load()
	assert.ErrorContains(t, err, "REDIS_ADDR")

	t.Setenv("REDIS_ADDR", "localhost:6379")
	_, err = Load()
	assert.ErrorContains(t, err, "postgres storage driver")
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{User: "app", Password: "secret", Host: "db", Port: 5432, Name: "payroll", SSLMode: "disable"}}
	assert.Equal(t, "postgres://app:secret@db:5432/payroll?sslmode=disable", cfg.DatabaseURL())
}
