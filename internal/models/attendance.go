package models

import "fmt"

// StaffKind tells which staff collection an attendance record refers to.
type StaffKind string

const (
	StaffOperator    StaffKind = "operator"
	StaffTicketSales StaffKind = "ticketSales"
)

// AttendanceRecord is a check-in for one staff member on one date. Records
// written before Kind existed are operator check-ins.
type AttendanceRecord struct {
	OperatorID       int       `json:"operatorId"`
	Date             string    `json:"date"`
	AttendedBriefing bool      `json:"attendedBriefing"`
	BriefingTime     string    `json:"briefingTime,omitempty"`
	Kind             StaffKind `json:"kind,omitempty"`
}

// StaffKind returns the record's kind, defaulting to operator.
func (r AttendanceRecord) StaffKind() StaffKind {
	if r.Kind == "" {
		return StaffOperator
	}
	return r.Kind
}

// Matches reports whether the record is the check-in of staffID on date.
func (r AttendanceRecord) Matches(staffID int, date string, kind StaffKind) bool {
	return r.OperatorID == staffID && r.Date == date && r.StaffKind() == kind
}

func ParseStaffKind(s string) (StaffKind, error) {
	switch StaffKind(s) {
	case "", StaffOperator:
		return StaffOperator, nil
	case StaffTicketSales:
		return StaffTicketSales, nil
	}
	return "", fmt.Errorf("unknown staff kind %q", s)
}

// AssignmentKind is the assignment collection this kind of staff is assigned through.
func (k StaffKind) AssignmentKind() AssignmentKind {
	if k == StaffTicketSales {
		return CounterAssignments
	}
	return RideAssignments
}
