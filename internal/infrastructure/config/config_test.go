package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, StoreMongo, cfg.Store.Driver)
	assert.Equal(t, 2*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, time.Second, cfg.Sync.Delay)
	assert.Equal(t, 30*time.Minute, cfg.Sync.Timeout)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "11:00:00", cfg.Delhivery.PickupTime)
}

func TestLoad_ProductionSyncInterval(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":        "production",
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.Sync.Interval)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_ExplicitSyncInterval(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"SYNC_INTERVAL": "5m",
	}))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
}

func TestLoad_Errors(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"postgres without dsn": {"STORE_DRIVER": "postgres"},
		"unknown driver":       {"STORE_DRIVER": "sqlite"},
		"production no secret": {"ENV": "production"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := load(context.Background(), envconfig.MapLookuper(env))
			assert.Error(t, err)
		})
	}
}
