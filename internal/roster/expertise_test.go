package roster_test

import (
	"testing"

	"park-ops/internal/models"
	"park-ops/internal/roster"

	"github.com/stretchr/testify/assert"
)

func TestExpertise_RideDistinctVersusCounterDays(t *testing.T) {
	history := models.AssignmentHistory{
		"2024-01-01": {10: {5}},
		"2024-01-02": {10: {5, 6}},
	}
	staff := []models.Staff{{ID: 5, Name: "Five"}, {ID: 6, Name: "Six"}}
	entities := []models.Entity{{ID: 10, Name: "Ten"}}

	rides := roster.AggregateRideExpertise(history, staff, entities)
	counters := roster.AggregateCounterFrequency(history, staff, entities)

	assert.Equal(t, 5, rides[0].StaffID)
	assert.Equal(t, 1, rides[0].DistinctEntityCount)
	assert.Equal(t, []string{"Ten"}, rides[0].EntityNames)

	var five roster.CounterFrequency
	for _, c := range counters {
		if c.StaffID == 5 {
			five = c
		}
	}
	assert.Equal(t, 1, five.DistinctCounterCount)
	assert.Equal(t, []roster.CounterCount{{Name: "Ten", Count: 2}}, five.Counters)
}

func TestExpertise_RankingAndTieBreak(t *testing.T) {
	history := models.AssignmentHistory{
		"2024-02-01": {1: {1}, 2: {2}, 3: {3}},
		"2024-02-02": {1: {2}, 2: {3}},
		"2024-02-03": {3: {2}},
	}
	staff := []models.Staff{
		{ID: 1, Name: "Carla"},
		{ID: 2, Name: "Bruno"},
		{ID: 3, Name: "Anna"},
		{ID: 4, Name: "Dario"},
	}
	entities := []models.Entity{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}}

	got := roster.AggregateRideExpertise(history, staff, entities)

	var order []string
	for _, r := range got {
		order = append(order, r.Name)
	}
	// Bruno 3, Anna 2, Carla 1, Dario 0
	assert.Equal(t, []string{"Bruno", "Anna", "Carla", "Dario"}, order)
	assert.Equal(t, []string{"A", "B", "C"}, got[0].EntityNames)
	assert.Empty(t, got[3].EntityNames)

	// Equal counts fall back to name order
	tied := roster.AggregateRideExpertise(models.AssignmentHistory{"d": {1: {1, 2}}}, staff[:2], entities)
	assert.Equal(t, "Bruno", tied[0].Name)
	assert.Equal(t, "Carla", tied[1].Name)
}

func TestExpertise_IgnoresUnknownEntities(t *testing.T) {
	history := models.AssignmentHistory{"2024-03-01": {99: {1}}}
	got := roster.AggregateRideExpertise(history, []models.Staff{{ID: 1, Name: "X"}}, []models.Entity{{ID: 1, Name: "A"}})
	assert.Equal(t, 0, got[0].DistinctEntityCount)
}

func TestCounterFrequency_SortsCountersByDays(t *testing.T) {
	history := models.AssignmentHistory{
		"d1": {1: {7}, 2: {7}},
		"d2": {2: {7}},
		"d3": {2: {7, 7}},
	}
	got := roster.AggregateCounterFrequency(history, []models.Staff{{ID: 7, Name: "Seven"}}, []models.Entity{{ID: 1, Name: "North"}, {ID: 2, Name: "South"}})

	assert.Equal(t, 2, got[0].DistinctCounterCount)
	assert.Equal(t, []roster.CounterCount{{Name: "South", Count: 3}, {Name: "North", Count: 1}}, got[0].Counters)
}
