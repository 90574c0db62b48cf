package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"park-ops/internal/logger"
	"park-ops/internal/models"
	"park-ops/internal/roster"
)

// DefaultReadTimeout is how long a read waits before the path is treated as unset.
const DefaultReadTimeout = 8 * time.Second

// Collections gives typed access to the store's collections.
type Collections struct {
	Store       SnapshotStore
	Logger      *logger.Logger
	ReadTimeout time.Duration
}

func NewCollections(s SnapshotStore, log *logger.Logger, readTimeout time.Duration) *Collections {
	if log == nil {
		log = logger.NewNop()
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Collections{Store: s, Logger: log, ReadTimeout: readTimeout}
}

// Load decodes path into a T. An unset path, or a read that times out, yields
// the zero T.
func Load[T any](ctx context.Context, c *Collections, path string) (T, error) {
	var out T

	readCtx, cancel := context.WithTimeout(ctx, c.ReadTimeout)
	defer cancel()

	raw, err := c.Store.Get(readCtx, path)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			c.Logger.Warn("STORE", fmt.Sprintf("Read of %s timed out after %s, treating as unset", path, c.ReadTimeout))
			return out, nil
		}
		return out, fmt.Errorf("read %s: %w", path, err)
	}
	if IsUnset(raw) {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

// Save replaces path with v.
func Save[T any](ctx context.Context, c *Collections, path string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := c.Store.Set(ctx, path, raw); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Mutate runs fn on the decoded value of path inside a transactional update.
func Mutate[T any](ctx context.Context, c *Collections, path string, fn func(v *T) error) error {
	err := c.Store.Update(ctx, path, func(current json.RawMessage) (json.RawMessage, error) {
		var v T
		if !IsUnset(current) {
			if err := json.Unmarshal(current, &v); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
		}
		if err := fn(&v); err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}

// Clear unsets path.
func (c *Collections) Clear(ctx context.Context, path string) error {
	if err := c.Store.Set(ctx, path, nil); err != nil {
		return fmt.Errorf("clear %s: %w", path, err)
	}
	return nil
}

func StaffPath(kind models.StaffKind) string {
	if kind == models.StaffTicketSales {
		return PathTicketSalesPersonnel
	}
	return PathOperators
}

func AssignmentPath(kind models.AssignmentKind) string {
	if kind == models.CounterAssignments {
		return PathTicketSalesAssignments
	}
	return PathOperatorAssignments
}

// ---------------- CATALOG ----------------

func (c *Collections) Rides(ctx context.Context) ([]models.Ride, error) {
	return Load[[]models.Ride](ctx, c, PathRides)
}

func (c *Collections) SetRides(ctx context.Context, rides []models.Ride) error {
	return Save(ctx, c, PathRides, rides)
}

func (c *Collections) Counters(ctx context.Context) ([]models.Counter, error) {
	return Load[[]models.Counter](ctx, c, PathCounters)
}

func (c *Collections) SetCounters(ctx context.Context, counters []models.Counter) error {
	return Save(ctx, c, PathCounters, counters)
}

func (c *Collections) Staff(ctx context.Context, kind models.StaffKind) ([]models.Staff, error) {
	return Load[[]models.Staff](ctx, c, StaffPath(kind))
}

func (c *Collections) SetStaff(ctx context.Context, kind models.StaffKind, staff []models.Staff) error {
	return Save(ctx, c, StaffPath(kind), staff)
}

// Entities returns the rides or counters an assignment kind refers to.
func (c *Collections) Entities(ctx context.Context, kind models.AssignmentKind) ([]models.Entity, error) {
	if kind == models.CounterAssignments {
		counters, err := c.Counters(ctx)
		if err != nil {
			return nil, err
		}
		return models.CounterEntities(counters), nil
	}
	rides, err := c.Rides(ctx)
	if err != nil {
		return nil, err
	}
	return models.RideEntities(rides), nil
}

// ---------------- ASSIGNMENTS ----------------

// AssignmentHistory reads every date's assignments, normalized.
func (c *Collections) AssignmentHistory(ctx context.Context, kind models.AssignmentKind) (models.AssignmentHistory, error) {
	raw, err := Load[map[string]models.RawAssignments](ctx, c, AssignmentPath(kind))
	if err != nil {
		return nil, err
	}
	out := make(models.AssignmentHistory, len(raw))
	for date, day := range raw {
		if norm := roster.Normalize(day); len(norm) > 0 {
			out[date] = norm
		}
	}
	return out, nil
}

// Assignments reads one date's assignments, normalized.
func (c *Collections) Assignments(ctx context.Context, kind models.AssignmentKind, date string) (models.Assignments, error) {
	raw, err := Load[map[string]json.RawMessage](ctx, c, AssignmentPath(kind))
	if err != nil {
		return nil, err
	}
	return decodeDay(raw[date])
}

// UpdateAssignments rewrites one date's assignments. Other dates are kept
// byte for byte, legacy shapes included.
func (c *Collections) UpdateAssignments(ctx context.Context, kind models.AssignmentKind, date string, fn func(models.Assignments) (models.Assignments, error)) error {
	return Mutate(ctx, c, AssignmentPath(kind), func(all *map[string]json.RawMessage) error {
		if *all == nil {
			*all = make(map[string]json.RawMessage)
		}
		current, err := decodeDay((*all)[date])
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		next = roster.NormalizeAssignments(next)
		if len(next) == 0 {
			delete(*all, date)
			return nil
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return err
		}
		(*all)[date] = raw
		return nil
	})
}

// SetAssignments replaces one date's assignments.
func (c *Collections) SetAssignments(ctx context.Context, kind models.AssignmentKind, date string, a models.Assignments) error {
	return c.UpdateAssignments(ctx, kind, date, func(models.Assignments) (models.Assignments, error) {
		return a, nil
	})
}

func decodeDay(raw json.RawMessage) (models.Assignments, error) {
	if IsUnset(raw) {
		return models.Assignments{}, nil
	}
	var day models.RawAssignments
	if err := json.Unmarshal(raw, &day); err != nil {
		return nil, fmt.Errorf("decode assignments: %w", err)
	}
	return roster.Normalize(day), nil
}

// ---------------- DAILY RECORDS ----------------

func (c *Collections) Attendance(ctx context.Context) ([]models.AttendanceRecord, error) {
	return Load[[]models.AttendanceRecord](ctx, c, PathAttendance)
}

func (c *Collections) UpdateAttendance(ctx context.Context, fn func([]models.AttendanceRecord) ([]models.AttendanceRecord, error)) error {
	return Mutate(ctx, c, PathAttendance, func(v *[]models.AttendanceRecord) error {
		next, err := fn(*v)
		if err != nil {
			return err
		}
		*v = next
		return nil
	})
}

func (c *Collections) Counts(ctx context.Context, path string) (models.DailyCounts, error) {
	return Load[models.DailyCounts](ctx, c, path)
}

func (c *Collections) UpdateCounts(ctx context.Context, path string, fn func(models.DailyCounts) error) error {
	return Mutate(ctx, c, path, func(v *models.DailyCounts) error {
		if *v == nil {
			*v = make(models.DailyCounts)
		}
		return fn(*v)
	})
}

func (c *Collections) CountDetails(ctx context.Context) (models.CountDetails, error) {
	return Load[models.CountDetails](ctx, c, PathDailyCountDetails)
}

func (c *Collections) UpdateCountDetails(ctx context.Context, fn func(models.CountDetails) error) error {
	return Mutate(ctx, c, PathDailyCountDetails, func(v *models.CountDetails) error {
		if *v == nil {
			*v = make(models.CountDetails)
		}
		return fn(*v)
	})
}

func (c *Collections) PackageSales(ctx context.Context) (models.PackageSales, error) {
	return Load[models.PackageSales](ctx, c, PathPackageSales)
}

func (c *Collections) UpdatePackageSales(ctx context.Context, fn func(models.PackageSales) error) error {
	return Mutate(ctx, c, PathPackageSales, func(v *models.PackageSales) error {
		if *v == nil {
			*v = make(models.PackageSales)
		}
		return fn(*v)
	})
}

// ---------------- AUDIT ----------------

func (c *Collections) History(ctx context.Context) ([]models.HistoryRecord, error) {
	return Load[[]models.HistoryRecord](ctx, c, PathHistoryLog)
}

func (c *Collections) UpdateHistory(ctx context.Context, fn func([]models.HistoryRecord) []models.HistoryRecord) error {
	return Mutate(ctx, c, PathHistoryLog, func(v *[]models.HistoryRecord) error {
		*v = fn(*v)
		return nil
	})
}

func (c *Collections) Handovers(ctx context.Context) ([]models.HandoverRecord, error) {
	return Load[[]models.HandoverRecord](ctx, c, PathHandovers)
}

func (c *Collections) UpdateHandovers(ctx context.Context, fn func([]models.HandoverRecord) []models.HandoverRecord) error {
	return Mutate(ctx, c, PathHandovers, func(v *[]models.HandoverRecord) error {
		*v = fn(*v)
		return nil
	})
}
