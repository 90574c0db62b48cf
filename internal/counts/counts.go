// Package counts records guest counts per ride and ticket sales per counter.
// A count is the day's running total for one entity: saving overwrites it.
package counts

import (
	"context"
	"errors"
	"fmt"

	"park-ops/internal/logger"
	"park-ops/internal/models"
	"park-ops/internal/store"
	"park-ops/internal/utils"
)

// Kind selects which daily collection a count lives in.
type Kind string

const (
	Guests Kind = "guests"
	Sales  Kind = "sales"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Guests, Sales:
		return Kind(s), nil
	}
	return "", utils.NewValidationError("kind", fmt.Sprintf("unknown count kind %q", s))
}

// Path is the store collection holding counts of this kind.
func (k Kind) Path() string {
	if k == Sales {
		return store.PathTicketSalesData
	}
	return store.PathDailyCounts
}

func (k Kind) entityKind() models.AssignmentKind {
	if k == Sales {
		return models.CounterAssignments
	}
	return models.RideAssignments
}

// ValidationError is returned for input rejected before any write.
type ValidationError = utils.ValidationError

var ErrConfirmationRequired = errors.New("counts: reset requires explicit confirmation")

var errUnchanged = errors.New("unchanged")

// Recorder appends audit entries.
type Recorder interface {
	Append(ctx context.Context, user, action, details string) (models.HistoryRecord, error)
}

type Reconciler struct {
	Collections *store.Collections
	History     Recorder
	Logger      *logger.Logger
}

func NewReconciler(c *store.Collections, h Recorder, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Reconciler{Collections: c, History: h, Logger: log}
}

// SetCount overwrites the count for (date, entityID). It reports whether the
// stored value changed; exactly one history entry is written when it did.
func (r *Reconciler) SetCount(ctx context.Context, kind Kind, date string, entityID, value int, user string) (bool, error) {
	if _, err := utils.ParseDate(date); err != nil {
		return false, utils.NewValidationError("date", err.Error())
	}
	if value < 0 {
		return false, utils.NewValidationError("value", "count cannot be negative")
	}

	var previous int
	err := r.Collections.UpdateCounts(ctx, kind.Path(), func(all models.DailyCounts) error {
		day := all[date]
		previous = day[entityID]
		if previous == value {
			return errUnchanged
		}
		if day == nil {
			day = make(map[int]int)
			all[date] = day
		}
		day[entityID] = value
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	r.Logger.LogStore("SET_COUNT", kind.Path(), fmt.Sprintf("%s #%d on %s: %d -> %d", kind, entityID, date, previous, value))

	name := r.entityName(ctx, kind, entityID)
	details := fmt.Sprintf("%s on %s changed from %d to %d", name, date, previous, value)
	if _, err := r.History.Append(ctx, user, actionFor(kind), details); err != nil {
		return true, fmt.Errorf("count saved but history append failed: %w", err)
	}
	return true, nil
}

// SaveDelta commits an unsaved delta against the saved breakdown of a ride's
// guest count. A component that would go negative is rejected and nothing is
// written. The stored total becomes tickets + packages.
func (r *Reconciler) SaveDelta(ctx context.Context, date string, rideID int, delta models.CountDelta, user string) (models.CountBreakdown, error) {
	if _, err := utils.ParseDate(date); err != nil {
		return models.CountBreakdown{}, utils.NewValidationError("date", err.Error())
	}

	counts, err := r.Collections.Counts(ctx, store.PathDailyCounts)
	if err != nil {
		return models.CountBreakdown{}, err
	}
	total := counts[date][rideID]

	var next models.CountBreakdown
	err = r.Collections.UpdateCountDetails(ctx, func(all models.CountDetails) error {
		stored, ok := all[date][rideID]
		saved := rebase(stored, ok, total)
		next = saved.Apply(delta)
		if next.Tickets < 0 {
			return utils.NewValidationError("tickets", fmt.Sprintf("ticket count would become %d", next.Tickets))
		}
		if next.Packages < 0 {
			return utils.NewValidationError("packages", fmt.Sprintf("package count would become %d", next.Packages))
		}
		if delta.IsZero() && ok && saved == stored {
			return errUnchanged
		}
		if all[date] == nil {
			all[date] = make(map[int]models.CountBreakdown)
		}
		all[date][rideID] = next
		return nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return models.CountBreakdown{}, err
	}

	if _, err := r.SetCount(ctx, Guests, date, rideID, next.Total(), user); err != nil {
		return next, err
	}
	return next, nil
}

// rebase lines a saved breakdown up with the stored total, which a direct
// SetCount may have moved since. The difference goes to tickets; a shortfall
// beyond the tickets comes out of packages. Totals saved before breakdowns
// existed count as tickets.
func rebase(saved models.CountBreakdown, ok bool, total int) models.CountBreakdown {
	if !ok {
		return models.CountBreakdown{Tickets: total}
	}
	if saved.Total() == total {
		return saved
	}
	saved.Tickets += total - saved.Total()
	if saved.Tickets < 0 {
		saved.Packages += saved.Tickets
		saved.Tickets = 0
	}
	if saved.Packages < 0 {
		saved.Packages = 0
	}
	return saved
}

// Breakdown returns the saved split for a ride, rebased onto the stored total.
func (r *Reconciler) Breakdown(ctx context.Context, date string, rideID int) (models.CountBreakdown, error) {
	details, err := r.Collections.CountDetails(ctx)
	if err != nil {
		return models.CountBreakdown{}, err
	}
	counts, err := r.Collections.Counts(ctx, store.PathDailyCounts)
	if err != nil {
		return models.CountBreakdown{}, err
	}
	b, ok := details[date][rideID]
	return rebase(b, ok, counts[date][rideID]), nil
}

// ForDate returns the counts of one day, never nil.
func (r *Reconciler) ForDate(ctx context.Context, kind Kind, date string) (map[int]int, error) {
	all, err := r.Collections.Counts(ctx, kind.Path())
	if err != nil {
		return nil, err
	}
	if day := all[date]; day != nil {
		return day, nil
	}
	return map[int]int{}, nil
}

// ResetDay overwrites the whole day with an empty map. confirm must be true.
func (r *Reconciler) ResetDay(ctx context.Context, kind Kind, date, user string, confirm bool) error {
	if !confirm {
		return ErrConfirmationRequired
	}
	if _, err := utils.ParseDate(date); err != nil {
		return utils.NewValidationError("date", err.Error())
	}

	err := r.Collections.UpdateCounts(ctx, kind.Path(), func(all models.DailyCounts) error {
		all[date] = map[int]int{}
		return nil
	})
	if err != nil {
		return err
	}

	if kind == Guests {
		err = r.Collections.UpdateCountDetails(ctx, func(all models.CountDetails) error {
			delete(all, date)
			return nil
		})
		if err != nil {
			return err
		}
	}

	r.Logger.LogStore("RESET_DAY", kind.Path(), date)
	if _, err := r.History.Append(ctx, user, "Reset "+label(kind), fmt.Sprintf("All %s for %s reset", label(kind), date)); err != nil {
		return fmt.Errorf("day reset but history append failed: %w", err)
	}
	return nil
}

func (r *Reconciler) entityName(ctx context.Context, kind Kind, id int) string {
	entities, err := r.Collections.Entities(ctx, kind.entityKind())
	if err == nil {
		for _, e := range entities {
			if e.ID == id {
				return e.Name
			}
		}
	}
	return fmt.Sprintf("#%d", id)
}

func label(k Kind) string {
	if k == Sales {
		return "ticket sales"
	}
	return "guest counts"
}

func actionFor(k Kind) string {
	if k == Sales {
		return "Update Ticket Sales"
	}
	return "Update Guest Count"
}
