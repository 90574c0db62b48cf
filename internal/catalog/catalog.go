// Package catalog maintains the rides, counters and staff lists.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"park-ops/internal/logger"
	"park-ops/internal/models"
	"park-ops/internal/store"
	"park-ops/internal/utils"
)

var ErrNotFound = errors.New("catalog: not found")

type Recorder interface {
	Append(ctx context.Context, user, action, details string) (models.HistoryRecord, error)
}

type Service struct {
	Collections *store.Collections
	History     Recorder
	Logger      *logger.Logger
}

func NewService(c *store.Collections, h Recorder, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{Collections: c, History: h, Logger: log}
}

// NextID returns one more than the largest id in use, or 1.
func NextID[T any](items []T, id func(T) int) int {
	next := 1
	for _, it := range items {
		if v := id(it); v >= next {
			next = v + 1
		}
	}
	return next
}

func nameTaken[T any](items []T, name string, nameOf func(T) string) bool {
	for _, it := range items {
		if strings.EqualFold(strings.TrimSpace(nameOf(it)), name) {
			return true
		}
	}
	return false
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", utils.NewValidationError("name", "name is required")
	}
	return name, nil
}

// ---------------- RIDES ----------------

func (s *Service) AddRide(ctx context.Context, name, floor, user string) (models.Ride, error) {
	name, err := cleanName(name)
	if err != nil {
		return models.Ride{}, err
	}

	var ride models.Ride
	err = store.Mutate(ctx, s.Collections, store.PathRides, func(rides *[]models.Ride) error {
		if nameTaken(*rides, name, func(r models.Ride) string { return r.Name }) {
			return utils.NewValidationError("name", fmt.Sprintf("ride %q already exists", name))
		}
		ride = models.Ride{
			ID:    NextID(*rides, func(r models.Ride) int { return r.ID }),
			Name:  name,
			Floor: strings.TrimSpace(floor),
		}
		*rides = append(*rides, ride)
		return nil
	})
	if err != nil {
		return models.Ride{}, err
	}
	return ride, s.record(ctx, user, "Add Ride", fmt.Sprintf("Ride %q added", ride.Name))
}

func (s *Service) DeleteRide(ctx context.Context, id int, user string) error {
	var removed models.Ride
	err := store.Mutate(ctx, s.Collections, store.PathRides, func(rides *[]models.Ride) error {
		var ok bool
		*rides, removed, ok = without(*rides, id, func(r models.Ride) int { return r.ID })
		if !ok {
			return fmt.Errorf("%w: ride %d", ErrNotFound, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.record(ctx, user, "Delete Ride", fmt.Sprintf("Ride %q deleted", removed.Name))
}

// ---------------- COUNTERS ----------------

func (s *Service) AddCounter(ctx context.Context, name, location, user string) (models.Counter, error) {
	name, err := cleanName(name)
	if err != nil {
		return models.Counter{}, err
	}

	var counter models.Counter
	err = store.Mutate(ctx, s.Collections, store.PathCounters, func(counters *[]models.Counter) error {
		if nameTaken(*counters, name, func(c models.Counter) string { return c.Name }) {
			return utils.NewValidationError("name", fmt.Sprintf("counter %q already exists", name))
		}
		counter = models.Counter{
			ID:       NextID(*counters, func(c models.Counter) int { return c.ID }),
			Name:     name,
			Location: strings.TrimSpace(location),
		}
		*counters = append(*counters, counter)
		return nil
	})
	if err != nil {
		return models.Counter{}, err
	}
	return counter, s.record(ctx, user, "Add Counter", fmt.Sprintf("Counter %q added", counter.Name))
}

func (s *Service) DeleteCounter(ctx context.Context, id int, user string) error {
	var removed models.Counter
	err := store.Mutate(ctx, s.Collections, store.PathCounters, func(counters *[]models.Counter) error {
		var ok bool
		*counters, removed, ok = without(*counters, id, func(c models.Counter) int { return c.ID })
		if !ok {
			return fmt.Errorf("%w: counter %d", ErrNotFound, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.record(ctx, user, "Delete Counter", fmt.Sprintf("Counter %q deleted", removed.Name))
}

// ---------------- STAFF ----------------

func (s *Service) AddStaff(ctx context.Context, kind models.StaffKind, name, user string) (models.Staff, error) {
	name, err := cleanName(name)
	if err != nil {
		return models.Staff{}, err
	}

	var member models.Staff
	err = store.Mutate(ctx, s.Collections, store.StaffPath(kind), func(staff *[]models.Staff) error {
		if nameTaken(*staff, name, func(st models.Staff) string { return st.Name }) {
			return utils.NewValidationError("name", fmt.Sprintf("%q already exists", name))
		}
		member = models.Staff{ID: NextID(*staff, func(st models.Staff) int { return st.ID }), Name: name}
		*staff = append(*staff, member)
		return nil
	})
	if err != nil {
		return models.Staff{}, err
	}
	return member, s.record(ctx, user, "Add "+staffLabel(kind), fmt.Sprintf("%q added", member.Name))
}

func (s *Service) DeleteStaff(ctx context.Context, kind models.StaffKind, id int, user string) error {
	var removed models.Staff
	err := store.Mutate(ctx, s.Collections, store.StaffPath(kind), func(staff *[]models.Staff) error {
		var ok bool
		*staff, removed, ok = without(*staff, id, func(st models.Staff) int { return st.ID })
		if !ok {
			return fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.record(ctx, user, "Delete "+staffLabel(kind), fmt.Sprintf("%q deleted", removed.Name))
}

func without[T any](items []T, id int, idOf func(T) int) ([]T, T, bool) {
	var removed T
	found := false
	out := make([]T, 0, len(items))
	for _, it := range items {
		if !found && idOf(it) == id {
			removed, found = it, true
			continue
		}
		out = append(out, it)
	}
	return out, removed, found
}

func staffLabel(kind models.StaffKind) string {
	if kind == models.StaffTicketSales {
		return "Ticket Sales Personnel"
	}
	return "Operator"
}

func (s *Service) record(ctx context.Context, user, action, details string) error {
	s.Logger.Info("CATALOG", details)
	if _, err := s.History.Append(ctx, user, action, details); err != nil {
		return fmt.Errorf("catalog updated but history append failed: %w", err)
	}
	return nil
}
