package staffimport

import (
	"context"
	"fmt"
	"strings"

	"park-ops/internal/catalog"
	"park-ops/internal/logger"
	"park-ops/internal/models"
	"park-ops/internal/store"
)

// Outcome describes what an applied import did.
type Outcome struct {
	Replaced bool           `json:"replaced"`
	Added    []models.Staff `json:"added"`
	Skipped  []string       `json:"skipped"`
	Total    int            `json:"total"`
}

type Recorder interface {
	Append(ctx context.Context, user, action, details string) (models.HistoryRecord, error)
}

// StoreApplier applies imports to the record store.
type StoreApplier struct {
	Collections *store.Collections
	History     Recorder
	Logger      *logger.Logger
}

func NewStoreApplier(c *store.Collections, h Recorder, log *logger.Logger) *StoreApplier {
	if log == nil {
		log = logger.NewNop()
	}
	return &StoreApplier{Collections: c, History: h, Logger: log}
}

// Merge appends the names not already present, ignoring case, with the next
// unused ids.
func (a *StoreApplier) Merge(ctx context.Context, kind models.StaffKind, names []string, user string) (Outcome, error) {
	out := Outcome{Added: []models.Staff{}, Skipped: []string{}}

	err := store.Mutate(ctx, a.Collections, store.StaffPath(kind), func(staff *[]models.Staff) error {
		out.Added = out.Added[:0]
		out.Skipped = out.Skipped[:0]

		present := make(map[string]bool, len(*staff))
		for _, s := range *staff {
			present[strings.ToLower(strings.TrimSpace(s.Name))] = true
		}
		next := catalog.NextID(*staff, func(s models.Staff) int { return s.ID })

		for _, name := range names {
			key := strings.ToLower(strings.TrimSpace(name))
			if key == "" || present[key] {
				out.Skipped = append(out.Skipped, name)
				continue
			}
			present[key] = true
			member := models.Staff{ID: next, Name: strings.TrimSpace(name)}
			next++
			*staff = append(*staff, member)
			out.Added = append(out.Added, member)
		}
		out.Total = len(*staff)
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	a.Logger.LogImport(string(kind), fmt.Sprintf("Merged %d new names, skipped %d", len(out.Added), len(out.Skipped)))
	details := fmt.Sprintf("Merged %d new %s from import (%d already present)", len(out.Added), label(kind), len(out.Skipped))
	if _, err := a.History.Append(ctx, user, "Import Staff (Merge)", details); err != nil {
		return out, fmt.Errorf("import merged but history append failed: %w", err)
	}
	return out, nil
}

// Replace swaps the whole staff list for names, numbered from 1, and wipes
// every assignment of that staff kind and their attendance. The writes are
// independent; a failure part way leaves the earlier ones applied.
func (a *StoreApplier) Replace(ctx context.Context, kind models.StaffKind, names []string, user string) (Outcome, error) {
	out := Outcome{Replaced: true, Added: []models.Staff{}, Skipped: []string{}}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || seen[key] {
			out.Skipped = append(out.Skipped, name)
			continue
		}
		seen[key] = true
		out.Added = append(out.Added, models.Staff{ID: len(out.Added) + 1, Name: strings.TrimSpace(name)})
	}
	out.Total = len(out.Added)

	if err := a.Collections.SetStaff(ctx, kind, out.Added); err != nil {
		return Outcome{}, err
	}
	if err := a.Collections.Clear(ctx, store.AssignmentPath(kind.AssignmentKind())); err != nil {
		return Outcome{}, err
	}
	err := a.Collections.UpdateAttendance(ctx, func(records []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
		kept := make([]models.AttendanceRecord, 0, len(records))
		for _, r := range records {
			if r.StaffKind() != kind {
				kept = append(kept, r)
			}
		}
		return kept, nil
	})
	if err != nil {
		return Outcome{}, err
	}

	a.Logger.LogImport(string(kind), fmt.Sprintf("Replaced list with %d names", out.Total))
	details := fmt.Sprintf("Replaced all %s with %d imported names; assignments and attendance cleared", label(kind), out.Total)
	if _, err := a.History.Append(ctx, user, "Import Staff (Replace)", details); err != nil {
		return out, fmt.Errorf("import replaced but history append failed: %w", err)
	}
	return out, nil
}

func label(kind models.StaffKind) string {
	if kind == models.StaffTicketSales {
		return "ticket sales personnel"
	}
	return "operators"
}
