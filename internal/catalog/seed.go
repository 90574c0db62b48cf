package catalog

import (
	"context"
	"fmt"
	"io"
	"os"

	"park-ops/internal/models"
	"park-ops/internal/store"

	"gopkg.in/yaml.v3"
)

// Seed is the static catalog a fresh park starts from.
type Seed struct {
	Rides                []models.Ride     `yaml:"rides"`
	Operators            []models.Operator `yaml:"operators"`
	TicketSalesPersonnel []models.Staff    `yaml:"ticketSalesPersonnel"`
	Counters             []models.Counter  `yaml:"counters"`
}

func LoadSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse catalog seed: %w", err)
	}
	if err := seed.validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadSeed(f)
}

func (s *Seed) validate() error {
	if err := checkSection("rides", s.Rides, func(r models.Ride) (int, string) { return r.ID, r.Name }); err != nil {
		return err
	}
	if err := checkSection("operators", s.Operators, func(o models.Operator) (int, string) { return o.ID, o.Name }); err != nil {
		return err
	}
	if err := checkSection("ticketSalesPersonnel", s.TicketSalesPersonnel, func(p models.Staff) (int, string) { return p.ID, p.Name }); err != nil {
		return err
	}
	return checkSection("counters", s.Counters, func(c models.Counter) (int, string) { return c.ID, c.Name })
}

func checkSection[T any](section string, items []T, key func(T) (int, string)) error {
	seen := make(map[int]bool, len(items))
	for i, it := range items {
		id, name := key(it)
		if id <= 0 {
			return fmt.Errorf("catalog seed: %s entry %d has no id", section, i+1)
		}
		if seen[id] {
			return fmt.Errorf("catalog seed: %s id %d is duplicated", section, id)
		}
		if name == "" {
			return fmt.Errorf("catalog seed: %s id %d has no name", section, id)
		}
		seen[id] = true
	}
	return nil
}

// Apply writes each seed section whose collection is still unset and returns
// the paths it wrote. Existing data is never overwritten.
func (s *Service) Apply(ctx context.Context, seed *Seed) ([]string, error) {
	sections := []struct {
		path  string
		empty bool
		write func() error
	}{
		{store.PathRides, len(seed.Rides) == 0, func() error { return s.Collections.SetRides(ctx, seed.Rides) }},
		{store.PathOperators, len(seed.Operators) == 0, func() error {
			return s.Collections.SetStaff(ctx, models.StaffOperator, seed.Operators)
		}},
		{store.PathTicketSalesPersonnel, len(seed.TicketSalesPersonnel) == 0, func() error {
			return s.Collections.SetStaff(ctx, models.StaffTicketSales, seed.TicketSalesPersonnel)
		}},
		{store.PathCounters, len(seed.Counters) == 0, func() error { return s.Collections.SetCounters(ctx, seed.Counters) }},
	}

	var written []string
	for _, sec := range sections {
		if sec.empty {
			continue
		}
		current, err := s.Collections.Store.Get(ctx, sec.path)
		if err != nil {
			return written, fmt.Errorf("read %s: %w", sec.path, err)
		}
		if !store.IsUnset(current) {
			continue
		}
		if err := sec.write(); err != nil {
			return written, err
		}
		s.Logger.Info("CATALOG", fmt.Sprintf("Seeded %s", sec.path))
		written = append(written, sec.path)
	}
	return written, nil
}
