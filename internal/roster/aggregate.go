package roster

import (
	"sort"

	"park-ops/internal/models"
)

// Input is everything needed to build one date's roster.
type Input struct {
	Date        string
	Assignments models.Assignments
	Attendance  []models.AttendanceRecord
	Entities    []models.Entity
	Staff       []models.Staff
	StaffKind   models.StaffKind
	Viewer      models.SessionState
}

// StaffRow is one staff member's line in the roster.
type StaffRow struct {
	Staff      models.Staff             `json:"staff"`
	Present    bool                     `json:"present"`
	Attendance *models.AttendanceRecord `json:"attendance,omitempty"`
	Entities   []models.Entity          `json:"entities"`
}

// EntityRow lists the staff assigned to one entity.
type EntityRow struct {
	Entity models.Entity  `json:"entity"`
	Staff  []models.Staff `json:"staff"`
}

// View is the derived roster for a date.
type View struct {
	Date         string          `json:"date"`
	Staff        []StaffRow      `json:"staff"`
	Entities     []EntityRow     `json:"entities"`
	Unassigned   []models.Entity `json:"unassigned"`
	PresentCount int             `json:"presentCount"`
	AbsentCount  int             `json:"absentCount"`
}

// Present returns the present staff rows.
func (v View) Present() []models.Staff {
	var out []models.Staff
	for _, r := range v.Staff {
		if r.Present {
			out = append(out, r.Staff)
		}
	}
	return out
}

// Absent returns the absent staff rows.
func (v View) Absent() []models.Staff {
	var out []models.Staff
	for _, r := range v.Staff {
		if !r.Present {
			out = append(out, r.Staff)
		}
	}
	return out
}

// Aggregate builds the roster view. Missing attendance means absent and a
// missing assignment means unassigned; ids that match no known entity or
// staff member are ignored.
func Aggregate(in Input) View {
	kind := in.StaffKind
	if kind == "" {
		kind = models.StaffOperator
	}

	entityByID := make(map[int]models.Entity, len(in.Entities))
	for _, e := range in.Entities {
		entityByID[e.ID] = e
	}
	staffByID := make(map[int]models.Staff, len(in.Staff))
	for _, s := range in.Staff {
		staffByID[s.ID] = s
	}

	assigned := NormalizeAssignments(in.Assignments)
	staffEntities := make(map[int][]models.Entity)
	view := View{Date: in.Date, Entities: []EntityRow{}, Unassigned: []models.Entity{}}

	for _, e := range in.Entities {
		ids, ok := assigned[e.ID]
		if !ok {
			view.Unassigned = append(view.Unassigned, e)
			continue
		}
		row := EntityRow{Entity: e, Staff: []models.Staff{}}
		seen := make(map[int]bool, len(ids))
		for _, id := range ids {
			s, known := staffByID[id]
			if !known || seen[id] {
				continue
			}
			seen[id] = true
			row.Staff = append(row.Staff, s)
			staffEntities[id] = append(staffEntities[id], e)
		}
		sortStaff(row.Staff)
		view.Entities = append(view.Entities, row)
	}
	sortEntities(view.Unassigned)
	sort.SliceStable(view.Entities, func(i, j int) bool {
		return compareNames(view.Entities[i].Entity.Name, view.Entities[j].Entity.Name) < 0
	})

	attendance := make(map[int]models.AttendanceRecord)
	for _, rec := range in.Attendance {
		if rec.Date == in.Date && rec.StaffKind() == kind {
			attendance[rec.OperatorID] = rec
		}
	}

	staff := in.Staff
	if in.Viewer.Role.Restricted() {
		staff = nil
		if s, ok := staffByID[in.Viewer.UserID]; ok {
			staff = []models.Staff{s}
		}
	}

	view.Staff = make([]StaffRow, 0, len(staff))
	for _, s := range staff {
		row := StaffRow{Staff: s, Entities: staffEntities[s.ID]}
		if row.Entities == nil {
			row.Entities = []models.Entity{}
		}
		sortEntities(row.Entities)
		if rec, ok := attendance[s.ID]; ok {
			rec := rec
			row.Present = true
			row.Attendance = &rec
			view.PresentCount++
		}
		view.Staff = append(view.Staff, row)
	}
	view.AbsentCount = len(view.Staff) - view.PresentCount

	sort.SliceStable(view.Staff, func(i, j int) bool {
		a, b := view.Staff[i], view.Staff[j]
		if a.Present != b.Present {
			return a.Present
		}
		return compareNames(a.Staff.Name, b.Staff.Name) < 0
	})

	return view
}

// Unassigned returns the entities with no entry in a.
func Unassigned(entities []models.Entity, a models.Assignments) []models.Entity {
	out := []models.Entity{}
	for _, e := range entities {
		if ids := a[e.ID]; len(ids) == 0 {
			out = append(out, e)
		}
	}
	return out
}

func sortEntities(es []models.Entity) {
	sort.SliceStable(es, func(i, j int) bool {
		return compareNames(es[i].Name, es[j].Name) < 0
	})
}

func sortStaff(ss []models.Staff) {
	sort.SliceStable(ss, func(i, j int) bool {
		return compareNames(ss[i].Name, ss[j].Name) < 0
	})
}
