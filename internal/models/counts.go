package models

// DailyCounts maps a date to entity id to a cumulative count for that day.
// Used for both guest counts per ride and ticket sales per counter.
type DailyCounts map[string]map[int]int

// CountBreakdown is the saved split of a ride's guest count.
type CountBreakdown struct {
	Tickets  int `json:"tickets"`
	Packages int `json:"packages"`
}

func (b CountBreakdown) Total() int {
	return b.Tickets + b.Packages
}

// CountDelta is an unsaved, client-side change to a CountBreakdown.
type CountDelta struct {
	Tickets  int `json:"tickets"`
	Packages int `json:"packages"`
}

func (d CountDelta) Add(o CountDelta) CountDelta {
	return CountDelta{Tickets: d.Tickets + o.Tickets, Packages: d.Packages + o.Packages}
}

func (d CountDelta) IsZero() bool {
	return d.Tickets == 0 && d.Packages == 0
}

// Apply returns the breakdown after the delta is added.
func (b CountBreakdown) Apply(d CountDelta) CountBreakdown {
	return CountBreakdown{Tickets: b.Tickets + d.Tickets, Packages: b.Packages + d.Packages}
}

// CountDetails maps a date to ride id to its saved breakdown.
type CountDetails map[string]map[int]CountBreakdown
