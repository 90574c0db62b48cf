package db_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"park-ops/internal/store"
	"park-ops/internal/store/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	// Connect to an in-memory SQLite DB for testing
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	snapshots := db.NewDB(bunDB)

	if err := snapshots.CreateSchema(context.Background()); err != nil {
		t.Fatalf("Failed to create snapshots table: %v", err)
	}
	_, err = bunDB.NewDelete().Model((*db.SnapshotRow)(nil)).Where("1 = 1").Exec(context.Background())
	require.NoError(t, err)

	return snapshots, bunDB
}

func TestGetAndSet(t *testing.T) {
	// Set up test DB
	snapshots, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	// Test case: unset path
	val, err := snapshots.Get(ctx, store.PathOperators)
	assert.NoError(t, err)
	assert.Nil(t, val)

	// Test case: insert then overwrite
	require.NoError(t, snapshots.Set(ctx, store.PathOperators, json.RawMessage(`[{"id":1,"name":"Adam"}]`)))
	require.NoError(t, snapshots.Set(ctx, store.PathOperators, json.RawMessage(`[{"id":2,"name":"Bella"}]`)))

	val, err = snapshots.Get(ctx, store.PathOperators)
	assert.NoError(t, err)
	assert.JSONEq(t, `[{"id":2,"name":"Bella"}]`, string(val))

	count, err := bunDB.NewSelect().Model((*db.SnapshotRow)(nil)).Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	// Test case: null deletes the row
	require.NoError(t, snapshots.Set(ctx, store.PathOperators, json.RawMessage("null")))
	val, err = snapshots.Get(ctx, store.PathOperators)
	assert.NoError(t, err)
	assert.Nil(t, val)
}

func TestUpdate(t *testing.T) {
	// Set up test DB
	snapshots, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	require.NoError(t, snapshots.Set(ctx, store.PathDailyCounts, json.RawMessage(`{"2024-05-01":{"1":3}}`)))

	err := snapshots.Update(ctx, store.PathDailyCounts, func(current json.RawMessage) (json.RawMessage, error) {
		assert.JSONEq(t, `{"2024-05-01":{"1":3}}`, string(current))
		return json.RawMessage(`{"2024-05-01":{"1":4}}`), nil
	})
	require.NoError(t, err)

	val, err := snapshots.Get(ctx, store.PathDailyCounts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024-05-01":{"1":4}}`, string(val))

	// A failing update leaves the value alone
	boom := errors.New("boom")
	err = snapshots.Update(ctx, store.PathDailyCounts, func(json.RawMessage) (json.RawMessage, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	val, err = snapshots.Get(ctx, store.PathDailyCounts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024-05-01":{"1":4}}`, string(val))
}

func TestSubscribe(t *testing.T) {
	// Set up test DB
	snapshots, bunDB := setupTestDB(t)
	defer bunDB.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := snapshots.Subscribe(ctx, store.PathCounters)
	require.NoError(t, err)

	initial := <-ch
	assert.Nil(t, initial.Value)

	require.NoError(t, snapshots.Set(ctx, store.PathCounters, json.RawMessage(`[{"id":1,"name":"Gate A"}]`)))

	select {
	case snap := <-ch:
		assert.JSONEq(t, `[{"id":1,"name":"Gate A"}]`, string(snap.Value))
	case <-time.After(time.Second):
		t.Fatal("no snapshot after write")
	}
}

func TestUnknownPath(t *testing.T) {
	snapshots, bunDB := setupTestDB(t)
	defer bunDB.Close()

	_, err := snapshots.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrUnknownPath)
}
