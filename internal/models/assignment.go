package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AssignmentValue is the stored value of one entity's assignment. Older
// records hold a single staff id, current ones an array of ids.
type AssignmentValue struct {
	single *int
	multi  []int
}

// Single builds the legacy scalar shape.
func Single(id int) AssignmentValue {
	return AssignmentValue{single: &id}
}

// Multi builds the array shape.
func Multi(ids ...int) AssignmentValue {
	if ids == nil {
		ids = []int{}
	}
	return AssignmentValue{multi: ids}
}

// IDs returns the value as a fresh slice of staff ids.
func (v AssignmentValue) IDs() []int {
	if v.single != nil {
		return []int{*v.single}
	}
	out := make([]int, len(v.multi))
	copy(out, v.multi)
	return out
}

// IsSingle reports whether the value was stored in the legacy scalar shape.
func (v AssignmentValue) IsSingle() bool {
	return v.single != nil
}

func (v *AssignmentValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = AssignmentValue{multi: []int{}}
		return nil
	case len(data) > 0 && data[0] == '[':
		var ids []int
		if err := json.Unmarshal(data, &ids); err != nil {
			return fmt.Errorf("assignment array: %w", err)
		}
		*v = Multi(ids...)
		return nil
	default:
		var id int
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("assignment id: %w", err)
		}
		*v = Single(id)
		return nil
	}
}

// MarshalJSON always writes the current array shape.
func (v AssignmentValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.IDs())
}

// RawAssignments is one date's assignment map as read from the store.
type RawAssignments map[int]AssignmentValue

// Assignments is the canonical per-date map: entity id to staff ids. An entity
// without an entry is unassigned; entries are never empty.
type Assignments map[int][]int

// AssignmentHistory maps a YYYY-MM-DD date to that day's assignments.
type AssignmentHistory map[string]Assignments

// Clone returns a deep copy.
func (a Assignments) Clone() Assignments {
	out := make(Assignments, len(a))
	for k, ids := range a {
		cp := make([]int, len(ids))
		copy(cp, ids)
		out[k] = cp
	}
	return out
}

// AssignmentKind selects which pair of collections an assignment operation uses.
type AssignmentKind string

const (
	RideAssignments    AssignmentKind = "rides"
	CounterAssignments AssignmentKind = "counters"
)

func ParseAssignmentKind(s string) (AssignmentKind, error) {
	switch AssignmentKind(s) {
	case RideAssignments, CounterAssignments:
		return AssignmentKind(s), nil
	}
	return "", fmt.Errorf("unknown assignment kind %q", s)
}

// StaffKind maps the assignment kind to the attendance kind of its staff.
func (k AssignmentKind) StaffKind() StaffKind {
	if k == CounterAssignments {
		return StaffTicketSales
	}
	return StaffOperator
}
