package counts_test

import (
	"context"
	"encoding/json"
	"testing"

	"park-ops/internal/counts"
	"park-ops/internal/history"
	"park-ops/internal/models"
	"park-ops/internal/store"
	"park-ops/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = "2024-05-01"

func setup(t *testing.T) (*counts.Reconciler, *history.Log, *store.Collections) {
	t.Helper()
	c := store.NewCollections(store.NewMemoryStore(), nil, 0)
	require.NoError(t, c.SetRides(context.Background(), []models.Ride{{ID: 1, Name: "Wave Swinger"}}))
	h := history.NewLog(c, nil, nil)
	return counts.NewReconciler(c, h, nil), h, c
}

func historyLen(t *testing.T, h *history.Log) int {
	t.Helper()
	records, err := h.Recent(context.Background(), 0)
	require.NoError(t, err)
	return len(records)
}

func TestSetCount_SameValueWritesOneEntry(t *testing.T) {
	r, h, _ := setup(t)
	ctx := context.Background()

	changed, err := r.SetCount(ctx, counts.Guests, day, 1, 12, "sup")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = r.SetCount(ctx, counts.Guests, day, 1, 12, "sup")
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Equal(t, 1, historyLen(t, h))

	records, _ := h.Recent(ctx, 1)
	assert.Equal(t, "Update Guest Count", records[0].Action)
	assert.Contains(t, records[0].Details, "Wave Swinger")
	assert.Contains(t, records[0].Details, "from 0 to 12")
}

func TestSetCount_EachChangeWritesOneEntry(t *testing.T) {
	r, h, _ := setup(t)
	ctx := context.Background()

	for i, v := range []int{3, 7, 2, 9} {
		changed, err := r.SetCount(ctx, counts.Sales, day, 4, v, "sup")
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, i+1, historyLen(t, h))
	}

	got, err := r.ForDate(ctx, counts.Sales, day)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{4: 9}, got)
}

func TestSetCount_RejectsNegativeAndBadDate(t *testing.T) {
	r, h, _ := setup(t)
	ctx := context.Background()

	_, err := r.SetCount(ctx, counts.Guests, day, 1, -1, "sup")
	assert.True(t, utils.IsValidation(err))

	_, err = r.SetCount(ctx, counts.Guests, "05/01/2024", 1, 1, "sup")
	assert.True(t, utils.IsValidation(err))

	assert.Equal(t, 0, historyLen(t, h))
}

func TestSaveDelta_Roundtrip(t *testing.T) {
	r, _, c := setup(t)
	ctx := context.Background()

	// Saved breakdown {tickets:2, packages:3}
	_, err := r.SaveDelta(ctx, day, 1, models.CountDelta{Tickets: 2, Packages: 3}, "sup")
	require.NoError(t, err)

	got, err := r.SaveDelta(ctx, day, 1, models.CountDelta{Tickets: 1, Packages: -1}, "sup")
	require.NoError(t, err)
	assert.Equal(t, models.CountBreakdown{Tickets: 3, Packages: 2}, got)
	assert.Equal(t, 5, got.Total())

	totals, err := c.Counts(ctx, store.PathDailyCounts)
	require.NoError(t, err)
	assert.Equal(t, 5, totals[day][1])
}

func TestSaveDelta_RejectsNegativeComponent(t *testing.T) {
	r, h, _ := setup(t)
	ctx := context.Background()

	_, err := r.SaveDelta(ctx, day, 1, models.CountDelta{Tickets: 2, Packages: 3}, "sup")
	require.NoError(t, err)
	before := historyLen(t, h)

	_, err = r.SaveDelta(ctx, day, 1, models.CountDelta{Tickets: 1, Packages: -4}, "sup")
	require.Error(t, err)
	assert.True(t, utils.IsValidation(err))

	saved, err := r.Breakdown(ctx, day, 1)
	require.NoError(t, err)
	assert.Equal(t, models.CountBreakdown{Tickets: 2, Packages: 3}, saved)
	assert.Equal(t, before, historyLen(t, h))
}

func TestSaveDelta_LegacyTotalCountsAsTickets(t *testing.T) {
	r, _, c := setup(t)
	ctx := context.Background()

	require.NoError(t, c.Store.Set(ctx, store.PathDailyCounts, json.RawMessage(`{"2024-05-01":{"1":10}}`)))

	got, err := r.SaveDelta(ctx, day, 1, models.CountDelta{Packages: 2}, "sup")
	require.NoError(t, err)
	assert.Equal(t, models.CountBreakdown{Tickets: 10, Packages: 2}, got)
}

func TestSaveDelta_AfterDirectOverwrite(t *testing.T) {
	r, _, c := setup(t)
	ctx := context.Background()

	_, err := r.SaveDelta(ctx, day, 1, models.CountDelta{Tickets: 2, Packages: 3}, "sup")
	require.NoError(t, err)

	changed, err := r.SetCount(ctx, counts.Guests, day, 1, 10, "sup")
	require.NoError(t, err)
	require.True(t, changed)

	saved, err := r.Breakdown(ctx, day, 1)
	require.NoError(t, err)
	assert.Equal(t, models.CountBreakdown{Tickets: 7, Packages: 3}, saved)

	got, err := r.SaveDelta(ctx, day, 1, models.CountDelta{Tickets: 1}, "sup")
	require.NoError(t, err)
	assert.Equal(t, models.CountBreakdown{Tickets: 8, Packages: 3}, got)

	totals, err := c.Counts(ctx, store.PathDailyCounts)
	require.NoError(t, err)
	assert.Equal(t, 11, totals[day][1])
}

func TestSaveDelta_OverwriteBelowPackages(t *testing.T) {
	r, _, c := setup(t)
	ctx := context.Background()

	_, err := r.SaveDelta(ctx, day, 1, models.CountDelta{Tickets: 2, Packages: 3}, "sup")
	require.NoError(t, err)
	_, err = r.SetCount(ctx, counts.Guests, day, 1, 1, "sup")
	require.NoError(t, err)

	got, err := r.SaveDelta(ctx, day, 1, models.CountDelta{Tickets: 1}, "sup")
	require.NoError(t, err)
	assert.Equal(t, models.CountBreakdown{Tickets: 1, Packages: 1}, got)

	totals, err := c.Counts(ctx, store.PathDailyCounts)
	require.NoError(t, err)
	assert.Equal(t, 2, totals[day][1])
}

func TestResetDay(t *testing.T) {
	r, h, c := setup(t)
	ctx := context.Background()

	_, err := r.SetCount(ctx, counts.Guests, day, 1, 12, "sup")
	require.NoError(t, err)
	_, err = r.SetCount(ctx, counts.Guests, "2024-05-02", 1, 4, "sup")
	require.NoError(t, err)

	// Without confirmation nothing happens
	err = r.ResetDay(ctx, counts.Guests, day, "sup", false)
	assert.ErrorIs(t, err, counts.ErrConfirmationRequired)
	assert.Equal(t, 2, historyLen(t, h))

	require.NoError(t, r.ResetDay(ctx, counts.Guests, day, "sup", true))
	assert.Equal(t, 3, historyLen(t, h))

	raw, err := c.Store.Get(ctx, store.PathDailyCounts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024-05-01":{},"2024-05-02":{"1":4}}`, string(raw))
}

func TestParseKind(t *testing.T) {
	k, err := counts.ParseKind("sales")
	require.NoError(t, err)
	assert.Equal(t, store.PathTicketSalesData, k.Path())

	_, err = counts.ParseKind("revenue")
	assert.True(t, utils.IsValidation(err))
}
