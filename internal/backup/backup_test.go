package backup_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"park-ops/internal/backup"
	"park-ops/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportRendersRawStringsAndNulls(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(ctx, store.PathRides, json.RawMessage(`[{"id":1,"name":"Wave Swinger"}]`)))

	f, err := backup.Export(ctx, s)
	require.NoError(t, err)
	assert.Len(t, f, len(store.Paths))
	require.NotNil(t, f[store.PathRides])
	assert.JSONEq(t, `[{"id":1,"name":"Wave Swinger"}]`, *f[store.PathRides])
	assert.Nil(t, f[store.PathCounters])

	data, err := backup.Marshal(f)
	require.NoError(t, err)
	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.IsType(t, "", generic[store.PathRides])
	assert.Nil(t, generic[store.PathCounters])
}

func TestImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemoryStore()
	require.NoError(t, src.Set(ctx, store.PathDailyCounts, json.RawMessage(`{"2024-05-01":{"1":120}}`)))
	require.NoError(t, src.Set(ctx, store.PathOperators, json.RawMessage(`[{"id":1,"name":"Jo"}]`)))

	f, err := backup.Export(ctx, src)
	require.NoError(t, err)
	data, err := backup.Marshal(f)
	require.NoError(t, err)

	dst := store.NewMemoryStore()
	require.NoError(t, dst.Set(ctx, store.PathCounters, json.RawMessage(`[{"id":9,"name":"Gate"}]`)))

	applied, err := backup.Import(ctx, dst, data)
	require.NoError(t, err)
	assert.Equal(t, store.Paths, applied)

	raw, err := dst.Get(ctx, store.PathDailyCounts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024-05-01":{"1":120}}`, string(raw))

	raw, err = dst.Get(ctx, store.PathCounters)
	require.NoError(t, err)
	assert.True(t, store.IsUnset(raw), "null in the backup unsets the collection")
}

func TestImportLeavesMissingKeysAlone(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(ctx, store.PathRides, json.RawMessage(`[{"id":1,"name":"Carousel"}]`)))

	applied, err := backup.Import(ctx, s, []byte(`{"counters":"[{\"id\":2,\"name\":\"North\"}]"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{store.PathCounters}, applied)

	raw, err := s.Get(ctx, store.PathRides)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"Carousel"}]`, string(raw))
}

func TestImportRejectsBeforeApplyingAnything(t *testing.T) {
	cases := map[string]string{
		"not json":           `{"rides":`,
		"not an object":      `["rides"]`,
		"null document":      `null`,
		"value not a string": `{"rides":[1,2]}`,
		"string not json":    `{"rides":"[{\"id\":1}]","counters":"{oops"}`,
		"unknown collection": `{"rides":"[]","tickets":"[]"}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := store.NewMemoryStore()
			require.NoError(t, s.Set(ctx, store.PathRides, json.RawMessage(`[{"id":7,"name":"Old"}]`)))

			applied, err := backup.Import(ctx, s, []byte(data))
			require.Error(t, err)
			assert.ErrorIs(t, err, backup.ErrInvalidBackup)
			assert.Empty(t, applied)

			raw, err := s.Get(ctx, store.PathRides)
			require.NoError(t, err)
			assert.JSONEq(t, `[{"id":7,"name":"Old"}]`, string(raw))
		})
	}
}

func TestSchedulerRunOnceWritesAndPrunes(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(ctx, store.PathRides, json.RawMessage(`[]`)))

	sched := backup.NewScheduler(s, dir, 2, nil)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var written []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		sched.SetClock(func() time.Time { return at })
		path, err := sched.RunOnce(ctx)
		require.NoError(t, err)
		written = append(written, path)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Base(written[1]), entries[0].Name())
	assert.Equal(t, filepath.Base(written[2]), entries[1].Name())

	data, err := os.ReadFile(written[2])
	require.NoError(t, err)
	_, err = backup.Parse(data)
	assert.NoError(t, err)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	sched := backup.NewScheduler(store.NewMemoryStore(), t.TempDir(), 0, nil)
	assert.Error(t, sched.Start("not a schedule"))
}
