// Package roster turns stored assignments, attendance and catalog lists into
// the per-date roster views and the historical expertise rankings.
package roster

import "park-ops/internal/models"

// Normalize converts a stored assignment map into canonical form: every value
// becomes an array of staff ids and entries without ids are dropped.
func Normalize(raw models.RawAssignments) models.Assignments {
	out := make(models.Assignments, len(raw))
	for entityID, v := range raw {
		if ids := v.IDs(); len(ids) > 0 {
			out[entityID] = ids
		}
	}
	return out
}

// NormalizeAssignments applies the same rule to an already canonical map. It
// is idempotent.
func NormalizeAssignments(a models.Assignments) models.Assignments {
	out := make(models.Assignments, len(a))
	for entityID, ids := range a {
		if len(ids) == 0 {
			continue
		}
		cp := make([]int, len(ids))
		copy(cp, ids)
		out[entityID] = cp
	}
	return out
}

// NormalizeHistory normalizes every date and drops dates left empty.
func NormalizeHistory(h models.AssignmentHistory) models.AssignmentHistory {
	out := make(models.AssignmentHistory, len(h))
	for date, day := range h {
		if norm := NormalizeAssignments(day); len(norm) > 0 {
			out[date] = norm
		}
	}
	return out
}
