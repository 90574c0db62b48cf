package roster_test

import (
	"encoding/json"
	"testing"

	"park-ops/internal/models"
	"park-ops/internal/roster"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_WrapsLegacyScalars(t *testing.T) {
	raw := models.RawAssignments{
		1: models.Single(7),
		2: models.Multi(3, 4),
		3: models.Multi(),
	}

	got := roster.Normalize(raw)

	assert.Equal(t, models.Assignments{1: {7}, 2: {3, 4}}, got)
	_, ok := got[3]
	assert.False(t, ok, "empty arrays must be removed, not kept as []")
}

func TestNormalize_DecodesBothStoredShapes(t *testing.T) {
	var raw models.RawAssignments
	err := json.Unmarshal([]byte(`{"10": 5, "11": [5, 6], "12": [], "13": null}`), &raw)
	require.NoError(t, err)

	assert.True(t, raw[10].IsSingle())
	assert.False(t, raw[11].IsSingle())

	got := roster.Normalize(raw)
	assert.Equal(t, models.Assignments{10: {5}, 11: {5, 6}}, got)

	// Canonical form is always written back as arrays
	out, err := json.Marshal(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"10":[5],"11":[5,6],"12":[],"13":[]}`, string(out))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []models.Assignments{
		{},
		{1: {1}},
		{1: {}, 2: {2, 3}, 3: nil},
		{4: {9, 9}, 5: {}},
	}

	for _, in := range inputs {
		once := roster.NormalizeAssignments(in)
		twice := roster.NormalizeAssignments(once)
		assert.Equal(t, once, twice)
		for k, ids := range once {
			assert.NotEmpty(t, ids, "entity %d mapped to empty array", k)
		}
	}
}

func TestNormalize_DoesNotAliasInput(t *testing.T) {
	in := models.Assignments{1: {2, 3}}
	out := roster.NormalizeAssignments(in)
	out[1][0] = 99
	assert.Equal(t, 2, in[1][0])
}

func TestNormalizeHistory_DropsEmptyDates(t *testing.T) {
	h := models.AssignmentHistory{
		"2024-01-01": {1: {}},
		"2024-01-02": {1: {4}},
	}
	got := roster.NormalizeHistory(h)
	assert.Equal(t, models.AssignmentHistory{"2024-01-02": {1: {4}}}, got)
}
