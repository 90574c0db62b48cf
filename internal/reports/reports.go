// Package reports loads the derived roster and ranking views from the store
// and lays them out as fixed-header tables for CSV, XLSX and terminal output.
package reports

import (
	"context"
	"io"
	"strconv"
	"strings"

	"park-ops/internal/models"
	"park-ops/internal/roster"
	"park-ops/internal/sales"
	"park-ops/internal/spreadsheet"
	"park-ops/internal/store"
)

// Table is a report ready to be written out.
type Table struct {
	Name   string     `json:"name"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

func (t Table) WriteCSV(w io.Writer) error {
	return spreadsheet.WriteCSV(w, t.Header, t.Rows)
}

func (t Table) WriteXLSX(w io.Writer) error {
	return spreadsheet.WriteXLSX(w, t.Name, t.Header, t.Rows)
}

var (
	AttendanceHeader       = []string{"Operator Name", "Checked In", "Attended Briefing", "Briefing Time", "Assigned Rides"}
	SalesAttendanceHeader  = []string{"Personnel Name", "Checked In", "Attended Briefing", "Briefing Time", "Assigned Counters"}
	RideExpertiseHeader    = []string{"Operator Name", "Distinct Rides", "Rides"}
	CounterFrequencyHeader = []string{"Personnel Name", "Distinct Counters", "Counters"}
	GuestCountHeader       = []string{"Ride Name", "Floor", "Guests"}
	CounterSalesHeader     = []string{"Counter Name", "Tickets Sold"}
	PersonnelSalesHeader   = []string{"Personnel Name", "Xtreme Qty", "Kiddo Qty", "VIP Qty", "Other Amount", "Total Qty", "Total Amount"}
)

type Service struct {
	Collections *store.Collections
	Sales       *sales.Service
}

func NewService(c *store.Collections, s *sales.Service) *Service {
	return &Service{Collections: c, Sales: s}
}

// Roster loads one date's roster for a staff kind as seen by viewer.
func (s *Service) Roster(ctx context.Context, date string, kind models.StaffKind, viewer models.SessionState) (roster.View, error) {
	assignmentKind := kind.AssignmentKind()

	assignments, err := s.Collections.Assignments(ctx, assignmentKind, date)
	if err != nil {
		return roster.View{}, err
	}
	attendance, err := s.Collections.Attendance(ctx)
	if err != nil {
		return roster.View{}, err
	}
	entities, err := s.Collections.Entities(ctx, assignmentKind)
	if err != nil {
		return roster.View{}, err
	}
	staff, err := s.Collections.Staff(ctx, kind)
	if err != nil {
		return roster.View{}, err
	}

	return roster.Aggregate(roster.Input{
		Date:        date,
		Assignments: assignments,
		Attendance:  attendance,
		Entities:    entities,
		Staff:       staff,
		StaffKind:   kind,
		Viewer:      viewer,
	}), nil
}

func (s *Service) RideExpertise(ctx context.Context) ([]roster.RideExpertise, error) {
	history, err := s.Collections.AssignmentHistory(ctx, models.RideAssignments)
	if err != nil {
		return nil, err
	}
	staff, err := s.Collections.Staff(ctx, models.StaffOperator)
	if err != nil {
		return nil, err
	}
	entities, err := s.Collections.Entities(ctx, models.RideAssignments)
	if err != nil {
		return nil, err
	}
	return roster.AggregateRideExpertise(history, staff, entities), nil
}

func (s *Service) CounterFrequency(ctx context.Context) ([]roster.CounterFrequency, error) {
	history, err := s.Collections.AssignmentHistory(ctx, models.CounterAssignments)
	if err != nil {
		return nil, err
	}
	staff, err := s.Collections.Staff(ctx, models.StaffTicketSales)
	if err != nil {
		return nil, err
	}
	entities, err := s.Collections.Entities(ctx, models.CounterAssignments)
	if err != nil {
		return nil, err
	}
	return roster.AggregateCounterFrequency(history, staff, entities), nil
}

// ---------------- TABLES ----------------

// AttendanceTable lists every staff member of kind on date, present first.
func (s *Service) AttendanceTable(ctx context.Context, date string, kind models.StaffKind) (Table, error) {
	view, err := s.Roster(ctx, date, kind, models.SessionState{Role: models.RoleAdmin})
	if err != nil {
		return Table{}, err
	}

	header := AttendanceHeader
	if kind == models.StaffTicketSales {
		header = SalesAttendanceHeader
	}
	t := Table{Name: "Attendance " + date, Header: header, Rows: [][]string{}}
	for _, row := range view.Staff {
		briefing, briefingTime := false, ""
		if row.Attendance != nil {
			briefing = row.Attendance.AttendedBriefing
			briefingTime = row.Attendance.BriefingTime
		}
		names := make([]string, 0, len(row.Entities))
		for _, e := range row.Entities {
			names = append(names, e.Name)
		}
		t.Rows = append(t.Rows, []string{
			row.Staff.Name,
			yesNo(row.Present),
			yesNo(briefing),
			briefingTime,
			strings.Join(names, ", "),
		})
	}
	return t, nil
}

func (s *Service) RideExpertiseTable(ctx context.Context) (Table, error) {
	ranked, err := s.RideExpertise(ctx)
	if err != nil {
		return Table{}, err
	}
	t := Table{Name: "Ride Expertise", Header: RideExpertiseHeader, Rows: [][]string{}}
	for _, r := range ranked {
		t.Rows = append(t.Rows, []string{r.Name, strconv.Itoa(r.DistinctEntityCount), strings.Join(r.EntityNames, ", ")})
	}
	return t, nil
}

func (s *Service) CounterFrequencyTable(ctx context.Context) (Table, error) {
	ranked, err := s.CounterFrequency(ctx)
	if err != nil {
		return Table{}, err
	}
	t := Table{Name: "Counter Frequency", Header: CounterFrequencyHeader, Rows: [][]string{}}
	for _, r := range ranked {
		parts := make([]string, 0, len(r.Counters))
		for _, c := range r.Counters {
			parts = append(parts, c.Name+" ("+strconv.Itoa(c.Count)+")")
		}
		t.Rows = append(t.Rows, []string{r.Name, strconv.Itoa(r.DistinctCounterCount), strings.Join(parts, ", ")})
	}
	return t, nil
}

// GuestCountTable lists every ride with its guest count on date.
func (s *Service) GuestCountTable(ctx context.Context, date string) (Table, error) {
	rides, err := s.Collections.Rides(ctx)
	if err != nil {
		return Table{}, err
	}
	counts, err := s.Collections.Counts(ctx, store.PathDailyCounts)
	if err != nil {
		return Table{}, err
	}

	t := Table{Name: "Guests " + date, Header: GuestCountHeader, Rows: [][]string{}}
	total := 0
	for _, r := range rides {
		n := counts[date][r.ID]
		total += n
		t.Rows = append(t.Rows, []string{r.Name, r.Floor, strconv.Itoa(n)})
	}
	t.Rows = append(t.Rows, []string{"Total", "", strconv.Itoa(total)})
	return t, nil
}

// SalesTables returns the per-counter and per-person sales tables for the range.
func (s *Service) SalesTables(ctx context.Context, from, to string) (Table, Table, error) {
	report, err := s.Sales.Report(ctx, from, to)
	if err != nil {
		return Table{}, Table{}, err
	}

	counters := Table{Name: "Counter Sales", Header: CounterSalesHeader, Rows: [][]string{}}
	for _, c := range report.Counters {
		counters.Rows = append(counters.Rows, []string{c.Name, strconv.Itoa(c.Tickets)})
	}
	counters.Rows = append(counters.Rows, []string{"Total", strconv.Itoa(report.TotalTickets)})

	personnel := Table{Name: "Package Sales", Header: PersonnelSalesHeader, Rows: [][]string{}}
	for _, p := range report.Personnel {
		personnel.Rows = append(personnel.Rows, []string{
			p.Name,
			strconv.Itoa(p.XtremeQty),
			strconv.Itoa(p.KiddoQty),
			strconv.Itoa(p.VipQty),
			p.OtherAmount.StringFixed(2),
			strconv.Itoa(p.TotalQty),
			p.TotalAmount.StringFixed(2),
		})
	}
	return counters, personnel, nil
}

// StaffTable exports a staff list.
func (s *Service) StaffTable(ctx context.Context, kind models.StaffKind) (Table, error) {
	staff, err := s.Collections.Staff(ctx, kind)
	if err != nil {
		return Table{}, err
	}
	name := "Operators"
	if kind == models.StaffTicketSales {
		name = "Ticket Sales Personnel"
	}
	return Table{Name: name, Header: spreadsheet.StaffHeader, Rows: spreadsheet.StaffRows(staff)}, nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
