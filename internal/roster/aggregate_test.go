package roster_test

import (
	"testing"

	"park-ops/internal/models"
	"park-ops/internal/roster"

	"github.com/stretchr/testify/assert"
)

const today = "2024-06-01"

func sampleInput() roster.Input {
	return roster.Input{
		Date: today,
		Entities: []models.Entity{
			{ID: 1, Name: "Wave Swinger"},
			{ID: 2, Name: "Bumper Cars"},
			{ID: 3, Name: "Carousel"},
			{ID: 4, Name: "Drop Tower"},
		},
		Staff: []models.Staff{
			{ID: 10, Name: "zoe"},
			{ID: 11, Name: "Adam"},
			{ID: 12, Name: "Bella"},
			{ID: 13, Name: "Émile"},
		},
		Assignments: models.Assignments{
			1: {10},
			2: {10, 11},
			4: {},
		},
		Attendance: []models.AttendanceRecord{
			{OperatorID: 10, Date: today, AttendedBriefing: true, BriefingTime: "08:55"},
			{OperatorID: 12, Date: today},
			{OperatorID: 11, Date: "2024-05-31"},
		},
		Viewer: models.SessionState{Role: models.RoleSupervisor},
	}
}

func TestAggregate_PresentFirstThenName(t *testing.T) {
	view := roster.Aggregate(sampleInput())

	var names []string
	for _, r := range view.Staff {
		names = append(names, r.Staff.Name)
	}
	// Present: Bella, zoe. Absent: Adam, Émile (collated, case-insensitive)
	assert.Equal(t, []string{"Bella", "zoe", "Adam", "Émile"}, names)
	assert.Equal(t, 2, view.PresentCount)
	assert.Equal(t, 2, view.AbsentCount)
}

func TestAggregate_AssignedEntitiesSortedByName(t *testing.T) {
	view := roster.Aggregate(sampleInput())

	for _, row := range view.Staff {
		if row.Staff.ID != 10 {
			continue
		}
		assert.Equal(t, []models.Entity{{ID: 2, Name: "Bumper Cars"}, {ID: 1, Name: "Wave Swinger"}}, row.Entities)
		assert.True(t, row.Present)
		if assert.NotNil(t, row.Attendance) {
			assert.True(t, row.Attendance.AttendedBriefing)
		}
	}
}

func TestAggregate_PartitionIsComplete(t *testing.T) {
	in := sampleInput()
	view := roster.Aggregate(in)

	present := view.Present()
	absent := view.Absent()
	assert.Len(t, append(present, absent...), len(in.Staff))

	seen := map[int]int{}
	for _, s := range present {
		seen[s.ID]++
	}
	for _, s := range absent {
		seen[s.ID]++
	}
	for _, s := range in.Staff {
		assert.Equal(t, 1, seen[s.ID], "staff %d must be in exactly one partition", s.ID)
	}
}

func TestAggregate_UnassignedIsComplementOfKeys(t *testing.T) {
	in := sampleInput()
	view := roster.Aggregate(in)

	// Entity 4 maps to an empty array which counts as unassigned
	assert.ElementsMatch(t, []models.Entity{{ID: 3, Name: "Carousel"}, {ID: 4, Name: "Drop Tower"}}, view.Unassigned)
	assert.ElementsMatch(t, view.Unassigned, roster.Unassigned(in.Entities, in.Assignments))

	entityStaff := map[int][]models.Staff{}
	for _, r := range view.Entities {
		entityStaff[r.Entity.ID] = r.Staff
	}
	assert.Equal(t, []models.Staff{{ID: 11, Name: "Adam"}, {ID: 10, Name: "zoe"}}, entityStaff[2])
}

func TestAggregate_RestrictedViewerSeesOwnRow(t *testing.T) {
	in := sampleInput()
	in.Viewer = models.SessionState{Role: models.RoleOperator, UserID: 11, UserName: "Adam"}

	view := roster.Aggregate(in)

	if assert.Len(t, view.Staff, 1) {
		assert.Equal(t, 11, view.Staff[0].Staff.ID)
		assert.False(t, view.Staff[0].Present)
	}
	assert.Equal(t, 0, view.PresentCount)
	assert.Equal(t, 1, view.AbsentCount)
}

func TestAggregate_UnknownViewerSeesNothing(t *testing.T) {
	in := sampleInput()
	in.Viewer = models.SessionState{Role: models.RoleTicketSales, UserID: 999}

	view := roster.Aggregate(in)
	assert.Empty(t, view.Staff)
}

func TestAggregate_MissingDataDegrades(t *testing.T) {
	in := sampleInput()
	in.Assignments = nil
	in.Attendance = nil

	view := roster.Aggregate(in)

	assert.Len(t, view.Unassigned, len(in.Entities))
	assert.Equal(t, 0, view.PresentCount)
	assert.Equal(t, len(in.Staff), view.AbsentCount)
}

func TestAggregate_AttendanceKindIsRespected(t *testing.T) {
	in := sampleInput()
	in.StaffKind = models.StaffTicketSales
	in.Attendance = []models.AttendanceRecord{
		{OperatorID: 10, Date: today},
		{OperatorID: 11, Date: today, Kind: models.StaffTicketSales},
	}

	view := roster.Aggregate(in)

	assert.Equal(t, 1, view.PresentCount)
	assert.Equal(t, 11, view.Staff[0].Staff.ID)
}
