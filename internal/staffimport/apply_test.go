package staffimport_test

import (
	"context"
	"testing"

	"park-ops/internal/history"
	"park-ops/internal/models"
	"park-ops/internal/staffimport"
	"park-ops/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApplier(t *testing.T) (*staffimport.StoreApplier, *store.Collections) {
	t.Helper()
	ctx := context.Background()
	c := store.NewCollections(store.NewMemoryStore(), nil, 0)

	require.NoError(t, c.SetStaff(ctx, models.StaffOperator, []models.Staff{{ID: 3, Name: "Adam"}, {ID: 8, Name: "Bella"}}))
	require.NoError(t, c.SetStaff(ctx, models.StaffTicketSales, []models.Staff{{ID: 1, Name: "Carla"}}))
	require.NoError(t, c.SetAssignments(ctx, models.RideAssignments, "2024-05-01", models.Assignments{1: {3}}))
	require.NoError(t, c.SetAssignments(ctx, models.CounterAssignments, "2024-05-01", models.Assignments{1: {1}}))
	require.NoError(t, c.UpdateAttendance(ctx, func([]models.AttendanceRecord) ([]models.AttendanceRecord, error) {
		return []models.AttendanceRecord{
			{OperatorID: 3, Date: "2024-05-01"},
			{OperatorID: 1, Date: "2024-05-01", Kind: models.StaffTicketSales},
		}, nil
	}))

	return staffimport.NewStoreApplier(c, history.NewLog(c, nil, nil), nil), c
}

func TestStoreApplier_Merge(t *testing.T) {
	applier, c := setupApplier(t)
	ctx := context.Background()

	out, err := applier.Merge(ctx, models.StaffOperator, []string{"adam", "Chen", "Dana", "chen"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, []models.Staff{{ID: 9, Name: "Chen"}, {ID: 10, Name: "Dana"}}, out.Added)
	assert.Equal(t, []string{"adam", "chen"}, out.Skipped)
	assert.Equal(t, 4, out.Total)

	// Assignments survive a merge
	a, err := c.Assignments(ctx, models.RideAssignments, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, models.Assignments{1: {3}}, a)
}

func TestStoreApplier_Replace(t *testing.T) {
	applier, c := setupApplier(t)
	ctx := context.Background()

	out, err := applier.Replace(ctx, models.StaffOperator, []string{"Zed", "Yara", "zed"}, "admin")
	require.NoError(t, err)
	assert.True(t, out.Replaced)

	staff, err := c.Staff(ctx, models.StaffOperator)
	require.NoError(t, err)
	assert.Equal(t, []models.Staff{{ID: 1, Name: "Zed"}, {ID: 2, Name: "Yara"}}, staff)

	rideAssignments, err := c.AssignmentHistory(ctx, models.RideAssignments)
	require.NoError(t, err)
	assert.Empty(t, rideAssignments)

	// The other staff kind is untouched
	counterAssignments, err := c.Assignments(ctx, models.CounterAssignments, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, models.Assignments{1: {1}}, counterAssignments)

	attendance, err := c.Attendance(ctx)
	require.NoError(t, err)
	require.Len(t, attendance, 1)
	assert.Equal(t, models.StaffTicketSales, attendance[0].Kind)
}
