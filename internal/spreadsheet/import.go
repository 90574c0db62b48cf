package spreadsheet

import (
	"fmt"
	"strings"

	"park-ops/internal/models"
	"park-ops/internal/roster"
)

// ImportResult is the working assignment set after an import. Nothing has
// been written to the store.
type ImportResult struct {
	Assignments  models.Assignments `json:"assignments"`
	SuccessCount int                `json:"successCount"`
	Errors       []string           `json:"errors"`
}

// ImportRideAssignments reads [ride name, operator name] rows. A matched row
// replaces the ride's assignment with that single operator.
func ImportRideAssignments(rows [][]string, working models.Assignments, rides []models.Ride, staff []models.Staff) ImportResult {
	return importAssignments(rows, working, models.RideEntities(rides), staff, "ride", "operator", false)
}

// ImportCounterAssignments reads [counter name, "name, name, ..."] rows. The
// matched names are merged into the counter's assignment without duplicates;
// each unmatched name is reported on its own.
func ImportCounterAssignments(rows [][]string, working models.Assignments, counters []models.Counter, staff []models.Staff) ImportResult {
	return importAssignments(rows, working, models.CounterEntities(counters), staff, "counter", "personnel", true)
}

// ImportAssignments runs the ride or counter import for kind against the
// matching entities.
func ImportAssignments(kind models.AssignmentKind, rows [][]string, working models.Assignments, entities []models.Entity, staff []models.Staff) ImportResult {
	if kind == models.CounterAssignments {
		return importAssignments(rows, working, entities, staff, "counter", "personnel", true)
	}
	return importAssignments(rows, working, entities, staff, "ride", "operator", false)
}

func importAssignments(rows [][]string, working models.Assignments, entities []models.Entity, staff []models.Staff, entityLabel, staffLabel string, multi bool) ImportResult {
	result := ImportResult{
		Assignments: roster.NormalizeAssignments(working),
		Errors:      []string{},
	}

	entityByName := make(map[string]int, len(entities))
	for _, e := range entities {
		entityByName[fold(e.Name)] = e.ID
	}
	staffByName := make(map[string]int, len(staff))
	for _, s := range staff {
		staffByName[fold(s.Name)] = s.ID
	}

	for i, row := range rows {
		if i == 0 {
			continue
		}
		rowNum := i + 1
		entityName, staffCell := cell(row, 0), cell(row, 1)
		if entityName == "" && staffCell == "" {
			continue
		}

		fail := func(format string, args ...any) {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: ", rowNum)+fmt.Sprintf(format, args...))
		}

		entityID, ok := entityByName[fold(entityName)]
		if !ok {
			fail("%s not found", entityName)
			continue
		}

		if !multi {
			if staffCell == "" {
				fail("no %s given for %s %s", staffLabel, entityLabel, entityName)
				continue
			}
			staffID, ok := staffByName[fold(staffCell)]
			if !ok {
				fail("%s not found", staffCell)
				continue
			}
			result.Assignments[entityID] = []int{staffID}
			result.SuccessCount++
			continue
		}

		names := splitNames(staffCell)
		if len(names) == 0 {
			fail("no %s given for %s %s", staffLabel, entityLabel, entityName)
			continue
		}
		merged := append([]int(nil), result.Assignments[entityID]...)
		matched := 0
		for _, name := range names {
			staffID, ok := staffByName[fold(name)]
			if !ok {
				fail("%s not found", name)
				continue
			}
			matched++
			if !contains(merged, staffID) {
				merged = append(merged, staffID)
			}
		}
		if matched > 0 {
			result.Assignments[entityID] = merged
			result.SuccessCount++
		}
	}

	return result
}

// ParseStaffNames reads a single-column name list below a header row. Blank
// cells and repeats (ignoring case) are dropped.
func ParseStaffNames(rows [][]string) []string {
	seen := make(map[string]bool)
	names := []string{}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		name := cell(row, 0)
		if name == "" || seen[fold(name)] {
			continue
		}
		seen[fold(name)] = true
		names = append(names, name)
	}
	return names
}

func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
