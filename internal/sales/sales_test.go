package sales_test

import (
	"context"
	"testing"

	"park-ops/internal/history"
	"park-ops/internal/models"
	"park-ops/internal/sales"
	"park-ops/internal/store"
	"park-ops/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*sales.Service, *history.Log, *store.Collections) {
	t.Helper()
	ctx := context.Background()
	c := store.NewCollections(store.NewMemoryStore(), nil, 0)
	require.NoError(t, c.SetCounters(ctx, []models.Counter{{ID: 1, Name: "Main Gate"}, {ID: 2, Name: "Annex"}}))
	require.NoError(t, c.SetStaff(ctx, models.StaffTicketSales, []models.Staff{{ID: 1, Name: "Carla"}, {ID: 2, Name: "Dario"}, {ID: 3, Name: "Bea"}}))
	h := history.NewLog(c, nil, nil)
	return sales.NewService(c, h, nil), h, c
}

func TestSavePackageSales_ReplacesPerDateAndPerson(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	rec := models.PackageSalesRecord{
		Date:         "2024-05-01",
		PersonnelID:  1,
		XtremeQty:    2,
		XtremeAmount: decimal.RequireFromString("40.50"),
	}
	_, err := svc.SavePackageSales(ctx, rec, "salesSup")
	require.NoError(t, err)

	rec.XtremeQty = 3
	rec.XtremeAmount = decimal.RequireFromString("60.75")
	_, err = svc.SavePackageSales(ctx, rec, "salesSup")
	require.NoError(t, err)

	got, err := svc.PackageSalesFor(ctx, "2024-05-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].XtremeQty)
	assert.True(t, got[0].XtremeAmount.Equal(decimal.RequireFromString("60.75")))
}

func TestSavePackageSales_Validation(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.SavePackageSales(ctx, models.PackageSalesRecord{Date: "2024-05-01", PersonnelID: 1, VipQty: -1}, "x")
	assert.True(t, utils.IsValidation(err))

	_, err = svc.SavePackageSales(ctx, models.PackageSalesRecord{Date: "2024-05-01", PersonnelID: 42}, "x")
	assert.True(t, utils.IsValidation(err))

	_, err = svc.SavePackageSales(ctx, models.PackageSalesRecord{
		Date: "2024-05-01", PersonnelID: 1,
		OtherSales: []models.OtherSale{{Category: "Locker", Amount: decimal.NewFromInt(-5)}},
	}, "x")
	assert.True(t, utils.IsValidation(err))
}

func TestHandover(t *testing.T) {
	svc, h, c := setup(t)
	ctx := context.Background()

	require.NoError(t, c.SetAssignments(ctx, models.CounterAssignments, "2024-05-01", models.Assignments{1: {1, 3}}))

	rec, err := svc.Handover(ctx, sales.HandoverRequest{Date: "2024-05-01", CounterID: 1, FromPersonnelID: 1, ToPersonnelID: 2}, "salesSup")
	require.NoError(t, err)
	assert.Equal(t, "Carla", rec.FromPersonnelName)
	assert.Equal(t, "Dario", rec.ToPersonnelName)
	assert.NotEmpty(t, rec.ID)

	a, err := c.Assignments(ctx, models.CounterAssignments, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, a[1])

	handovers, err := h.Handovers(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Len(t, handovers, 1)

	// The outgoing person must hold the counter
	_, err = svc.Handover(ctx, sales.HandoverRequest{Date: "2024-05-01", CounterID: 1, FromPersonnelID: 1, ToPersonnelID: 2}, "salesSup")
	assert.True(t, utils.IsValidation(err))

	_, err = svc.Handover(ctx, sales.HandoverRequest{Date: "2024-05-01", CounterID: 1, FromPersonnelID: 2, ToPersonnelID: 2}, "salesSup")
	assert.True(t, utils.IsValidation(err))
}

func TestReport(t *testing.T) {
	svc, _, c := setup(t)
	ctx := context.Background()

	require.NoError(t, c.UpdateCounts(ctx, store.PathTicketSalesData, func(all models.DailyCounts) error {
		all["2024-05-01"] = map[int]int{1: 10, 2: 5}
		all["2024-05-02"] = map[int]int{1: 7, 9: 1}
		all["2024-05-03"] = map[int]int{1: 100}
		return nil
	}))

	_, err := svc.SavePackageSales(ctx, models.PackageSalesRecord{
		Date: "2024-05-01", PersonnelID: 1,
		KiddoQty: 1, KiddoAmount: decimal.RequireFromString("10.10"),
		OtherSales: []models.OtherSale{{Category: "Locker", Amount: decimal.RequireFromString("0.20")}},
	}, "x")
	require.NoError(t, err)
	_, err = svc.SavePackageSales(ctx, models.PackageSalesRecord{
		Date: "2024-05-02", PersonnelID: 1,
		VipQty: 2, VipAmount: decimal.RequireFromString("0.10"),
	}, "x")
	require.NoError(t, err)

	report, err := svc.Report(ctx, "2024-05-01", "2024-05-02")
	require.NoError(t, err)

	assert.Equal(t, 23, report.TotalTickets)
	assert.Equal(t, "10.40", report.TotalAmount.StringFixed(2))
	require.Len(t, report.Daily, 2)
	assert.Equal(t, 15, report.Daily[0].Tickets)

	// Counters sorted by name, unknown counter kept
	require.Len(t, report.Counters, 3)
	assert.Equal(t, "Annex", report.Counters[0].Name)
	assert.Equal(t, "Counter #9", report.Counters[1].Name)
	assert.Equal(t, "Main Gate", report.Counters[2].Name)
	assert.Equal(t, 17, report.Counters[2].Tickets)

	// Every sales person appears, Bea first
	require.Len(t, report.Personnel, 3)
	assert.Equal(t, "Bea", report.Personnel[0].Name)
	carla := report.Personnel[1]
	assert.Equal(t, "Carla", carla.Name)
	assert.Equal(t, 3, carla.TotalQty)
	assert.Equal(t, "10.40", carla.TotalAmount.StringFixed(2))
	assert.Equal(t, "0.20", carla.OtherAmount.StringFixed(2))

	_, err = svc.Report(ctx, "bad", "2024-05-02")
	assert.True(t, utils.IsValidation(err))
}
