package roster

import (
	"sort"

	"park-ops/internal/models"
)

// RideExpertise counts the distinct rides a staff member has ever worked.
type RideExpertise struct {
	StaffID             int      `json:"staffId"`
	Name                string   `json:"name"`
	DistinctEntityCount int      `json:"distinctEntityCount"`
	EntityNames         []string `json:"entityNames"`
}

// CounterCount is the number of days a staff member worked one counter.
type CounterCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CounterFrequency summarises a sales person's counter history.
type CounterFrequency struct {
	StaffID              int            `json:"staffId"`
	Name                 string         `json:"name"`
	DistinctCounterCount int            `json:"distinctCounterCount"`
	Counters             []CounterCount `json:"counters"`
}

// AggregateRideExpertise scans the whole history on every call and ranks staff
// by the number of distinct entities they were assigned to. Equal counts are
// ordered by name, then id.
func AggregateRideExpertise(history models.AssignmentHistory, staff []models.Staff, entities []models.Entity) []RideExpertise {
	names := entityNames(entities)
	touched := make(map[int]map[int]bool, len(staff))

	for _, day := range history {
		for entityID, ids := range day {
			if _, ok := names[entityID]; !ok {
				continue
			}
			for _, staffID := range ids {
				if touched[staffID] == nil {
					touched[staffID] = make(map[int]bool)
				}
				touched[staffID][entityID] = true
			}
		}
	}

	out := make([]RideExpertise, 0, len(staff))
	for _, s := range staff {
		row := RideExpertise{StaffID: s.ID, Name: s.Name, EntityNames: []string{}}
		for entityID := range touched[s.ID] {
			row.EntityNames = append(row.EntityNames, names[entityID])
		}
		sort.SliceStable(row.EntityNames, func(i, j int) bool {
			return compareNames(row.EntityNames[i], row.EntityNames[j]) < 0
		})
		row.DistinctEntityCount = len(row.EntityNames)
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return rankLess(out[i].DistinctEntityCount, out[j].DistinctEntityCount, out[i].Name, out[j].Name, out[i].StaffID, out[j].StaffID)
	})
	return out
}

// AggregateCounterFrequency counts, per staff member and counter, the number
// of days they were assigned there.
func AggregateCounterFrequency(history models.AssignmentHistory, staff []models.Staff, counters []models.Entity) []CounterFrequency {
	names := entityNames(counters)
	days := make(map[int]map[int]int, len(staff))

	for _, day := range history {
		for counterID, ids := range day {
			if _, ok := names[counterID]; !ok {
				continue
			}
			seen := make(map[int]bool, len(ids))
			for _, staffID := range ids {
				if seen[staffID] {
					continue
				}
				seen[staffID] = true
				if days[staffID] == nil {
					days[staffID] = make(map[int]int)
				}
				days[staffID][counterID]++
			}
		}
	}

	out := make([]CounterFrequency, 0, len(staff))
	for _, s := range staff {
		row := CounterFrequency{StaffID: s.ID, Name: s.Name, Counters: []CounterCount{}}
		for counterID, n := range days[s.ID] {
			row.Counters = append(row.Counters, CounterCount{Name: names[counterID], Count: n})
		}
		sort.SliceStable(row.Counters, func(i, j int) bool {
			if row.Counters[i].Count != row.Counters[j].Count {
				return row.Counters[i].Count > row.Counters[j].Count
			}
			return compareNames(row.Counters[i].Name, row.Counters[j].Name) < 0
		})
		row.DistinctCounterCount = len(row.Counters)
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return rankLess(out[i].DistinctCounterCount, out[j].DistinctCounterCount, out[i].Name, out[j].Name, out[i].StaffID, out[j].StaffID)
	})
	return out
}

func rankLess(countA, countB int, nameA, nameB string, idA, idB int) bool {
	if countA != countB {
		return countA > countB
	}
	if c := compareNames(nameA, nameB); c != 0 {
		return c < 0
	}
	return idA < idB
}

func entityNames(entities []models.Entity) map[int]string {
	names := make(map[int]string, len(entities))
	for _, e := range entities {
		names[e.ID] = e.Name
	}
	return names
}
