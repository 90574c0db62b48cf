package app_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"park-ops/internal/app"
	"park-ops/internal/config"
	"park-ops/internal/logger"
	"park-ops/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Load()
	cfg.Store.Driver = app.DriverRedis
	cfg.Redis.Addr = mr.Addr()

	b, err := app.Connect(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer b.Close()
	assert.NotNil(t, b.Redis)

	require.NoError(t, b.Store.Set(context.Background(), store.PathRides, json.RawMessage(`[]`)))
	assert.True(t, mr.Exists("parkops:snapshot:rides"))
}

func TestConnectSQLite(t *testing.T) {
	cfg := config.Load()
	cfg.Store.Driver = app.DriverSQLite
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "park.db")

	b, err := app.Connect(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, b.Store.Set(ctx, store.PathCounters, json.RawMessage(`[{"id":1,"name":"Main Gate"}]`)))
	raw, err := b.Store.Get(ctx, store.PathCounters)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"Main Gate"}]`, string(raw))
}

func TestConnectUnknownDriver(t *testing.T) {
	cfg := config.Load()
	cfg.Store.Driver = "etcd"
	_, err := app.Connect(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}
