// Package sales covers the ticket-sales floor: package sales per sales
// person, counter handovers and the sales summary.
package sales

import (
	"context"
	"fmt"
	"sort"

	"park-ops/internal/logger"
	"park-ops/internal/models"
	"park-ops/internal/roster"
	"park-ops/internal/store"
	"park-ops/internal/utils"

	"github.com/shopspring/decimal"
)

type Recorder interface {
	Append(ctx context.Context, user, action, details string) (models.HistoryRecord, error)
	AppendHandover(ctx context.Context, rec models.HandoverRecord) (models.HandoverRecord, error)
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

// SavePackageSales stores rec, replacing any record for the same date and
// sales person.
func (s *Service) SavePackageSales(ctx context.Context, rec models.PackageSalesRecord, user string) (models.PackageSalesRecord, error) {
	if err := validatePackageSales(rec); err != nil {
		return rec, err
	}
	name, err := s.personnelName(ctx, rec.PersonnelID)
	if err != nil {
		return rec, err
	}

	err = s.Collections.UpdatePackageSales(ctx, func(all models.PackageSales) error {
		if all[rec.Date] == nil {
			all[rec.Date] = make(map[int]models.PackageSalesRecord)
		}
		all[rec.Date][rec.PersonnelID] = rec
		return nil
	})
	if err != nil {
		return rec, err
	}

	details := fmt.Sprintf("%s on %s: %d packages, total %s", name, rec.Date, rec.TotalQty(), rec.TotalAmount().StringFixed(2))
	if _, err := s.History.Append(ctx, user, "Save Package Sales", details); err != nil {
		return rec, fmt.Errorf("package sales saved but history append failed: %w", err)
	}
	return rec, nil
}

// PackageSalesFor returns the records of one date ordered by personnel id.
func (s *Service) PackageSalesFor(ctx context.Context, date string) ([]models.PackageSalesRecord, error) {
	all, err := s.Collections.PackageSales(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.PackageSalesRecord, 0, len(all[date]))
	for _, r := range all[date] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonnelID < out[j].PersonnelID })
	return out, nil
}

func validatePackageSales(rec models.PackageSalesRecord) error {
	if _, err := utils.ParseDate(rec.Date); err != nil {
		return utils.NewValidationError("date", err.Error())
	}
	if rec.XtremeQty < 0 || rec.KiddoQty < 0 || rec.VipQty < 0 {
		return utils.NewValidationError("qty", "quantities cannot be negative")
	}
	amounts := []decimal.Decimal{rec.XtremeAmount, rec.KiddoAmount, rec.VipAmount}
	for _, o := range rec.OtherSales {
		if o.Category == "" {
			return utils.NewValidationError("otherSales", "category is required")
		}
		amounts = append(amounts, o.Amount)
	}
	for _, a := range amounts {
		if a.IsNegative() {
			return utils.NewValidationError("amount", "amounts cannot be negative")
		}
	}
	return nil
}

// HandoverRequest moves a counter from one sales person to another on a date.
type HandoverRequest struct {
	Date            string `json:"date"`
	CounterID       int    `json:"counterId"`
	FromPersonnelID int    `json:"fromPersonnelId"`
	ToPersonnelID   int    `json:"toPersonnelId"`
}

// Handover swaps the outgoing sales person for the incoming one in the
// counter's assignment and records the event.
func (s *Service) Handover(ctx context.Context, req HandoverRequest, assigner string) (models.HandoverRecord, error) {
	if _, err := utils.ParseDate(req.Date); err != nil {
		return models.HandoverRecord{}, utils.NewValidationError("date", err.Error())
	}
	if req.FromPersonnelID == req.ToPersonnelID {
		return models.HandoverRecord{}, utils.NewValidationError("toPersonnelId", "cannot hand a counter over to the same person")
	}

	counterName, err := s.counterName(ctx, req.CounterID)
	if err != nil {
		return models.HandoverRecord{}, err
	}
	fromName, err := s.personnelName(ctx, req.FromPersonnelID)
	if err != nil {
		return models.HandoverRecord{}, err
	}
	toName, err := s.personnelName(ctx, req.ToPersonnelID)
	if err != nil {
		return models.HandoverRecord{}, err
	}

	err = s.Collections.UpdateAssignments(ctx, models.CounterAssignments, req.Date, func(a models.Assignments) (models.Assignments, error) {
		current := a[req.CounterID]
		found := false
		next := make([]int, 0, len(current))
		for _, id := range current {
			switch id {
			case req.FromPersonnelID:
				found = true
			case req.ToPersonnelID:
			default:
				next = append(next, id)
			}
		}
		if !found {
			return nil, utils.NewValidationError("fromPersonnelId",
				fmt.Sprintf("%s is not assigned to %s on %s", fromName, counterName, req.Date))
		}
		a[req.CounterID] = append(next, req.ToPersonnelID)
		return a, nil
	})
	if err != nil {
		return models.HandoverRecord{}, err
	}

	rec, err := s.History.AppendHandover(ctx, models.HandoverRecord{
		Date:              req.Date,
		CounterID:         req.CounterID,
		FromPersonnelID:   req.FromPersonnelID,
		FromPersonnelName: fromName,
		ToPersonnelID:     req.ToPersonnelID,
		ToPersonnelName:   toName,
		AssignerName:      assigner,
	})
	if err != nil {
		return rec, fmt.Errorf("handover applied but not recorded: %w", err)
	}

	details := fmt.Sprintf("%s handed over from %s to %s on %s", counterName, fromName, toName, req.Date)
	if _, err := s.History.Append(ctx, assigner, "Counter Handover", details); err != nil {
		return rec, fmt.Errorf("handover applied but history append failed: %w", err)
	}
	return rec, nil
}

func (s *Service) personnelName(ctx context.Context, id int) (string, error) {
	staff, err := s.Collections.Staff(ctx, models.StaffTicketSales)
	if err != nil {
		return "", err
	}
	for _, st := range staff {
		if st.ID == id {
			return st.Name, nil
		}
	}
	return "", utils.NewValidationError("personnelId", fmt.Sprintf("unknown sales person %d", id))
}

func (s *Service) counterName(ctx context.Context, id int) (string, error) {
	counters, err := s.Collections.Counters(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range counters {
		if c.ID == id {
			return c.Name, nil
		}
	}
	return "", utils.NewValidationError("counterId", fmt.Sprintf("unknown counter %d", id))
}

func sortByName[T any](items []T, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return roster.CompareNames(name(items[i]), name(items[j])) < 0
	})
}
