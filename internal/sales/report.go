package sales

import (
	"context"
	"sort"
	"strconv"

	"park-ops/internal/models"
	"park-ops/internal/store"
	"park-ops/internal/utils"

	"github.com/shopspring/decimal"
)

// CounterSales is the ticket total of one counter over the report range.
type CounterSales struct {
	CounterID int    `json:"counterId"`
	Name      string `json:"name"`
	Tickets   int    `json:"tickets"`
}

// PersonnelSales is the package total of one sales person over the range.
type PersonnelSales struct {
	PersonnelID int             `json:"personnelId"`
	Name        string          `json:"name"`
	XtremeQty   int             `json:"xtremeQty"`
	KiddoQty    int             `json:"kiddoQty"`
	VipQty      int             `json:"vipQty"`
	OtherAmount decimal.Decimal `json:"otherAmount"`
	TotalQty    int             `json:"totalQty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// DailySales sums one date.
type DailySales struct {
	Date    string          `json:"date"`
	Tickets int             `json:"tickets"`
	Amount  decimal.Decimal `json:"amount"`
}

type Report struct {
	From         string           `json:"from"`
	To           string           `json:"to"`
	Counters     []CounterSales   `json:"counters"`
	Personnel    []PersonnelSales `json:"personnel"`
	Daily        []DailySales     `json:"daily"`
	TotalTickets int              `json:"totalTickets"`
	TotalAmount  decimal.Decimal  `json:"totalAmount"`
}

// Report sums ticket sales per counter and package sales per sales person for
// every date from..to inclusive. Counters and people no longer in the catalog
// are still reported, named by id.
func (s *Service) Report(ctx context.Context, from, to string) (*Report, error) {
	dates, err := utils.DatesBetween(from, to)
	if err != nil {
		return nil, utils.NewValidationError("range", err.Error())
	}

	tickets, err := s.Collections.Counts(ctx, store.PathTicketSalesData)
	if err != nil {
		return nil, err
	}
	packages, err := s.Collections.PackageSales(ctx)
	if err != nil {
		return nil, err
	}
	counters, err := s.Collections.Counters(ctx)
	if err != nil {
		return nil, err
	}
	personnel, err := s.Collections.Staff(ctx, models.StaffTicketSales)
	if err != nil {
		return nil, err
	}

	report := &Report{From: from, To: to, TotalAmount: decimal.Zero}
	byCounter := make(map[int]*CounterSales)
	byPerson := make(map[int]*PersonnelSales)

	for _, c := range counters {
		byCounter[c.ID] = &CounterSales{CounterID: c.ID, Name: c.Name}
	}
	for _, p := range personnel {
		byPerson[p.ID] = &PersonnelSales{PersonnelID: p.ID, Name: p.Name, OtherAmount: decimal.Zero, TotalAmount: decimal.Zero}
	}

	for _, date := range dates {
		day := DailySales{Date: date, Amount: decimal.Zero}

		for counterID, n := range tickets[date] {
			cs, ok := byCounter[counterID]
			if !ok {
				cs = &CounterSales{CounterID: counterID, Name: unknownName("Counter", counterID)}
				byCounter[counterID] = cs
			}
			cs.Tickets += n
			day.Tickets += n
		}

		for personID, rec := range packages[date] {
			ps, ok := byPerson[personID]
			if !ok {
				ps = &PersonnelSales{PersonnelID: personID, Name: unknownName("Personnel", personID), OtherAmount: decimal.Zero, TotalAmount: decimal.Zero}
				byPerson[personID] = ps
			}
			ps.XtremeQty += rec.XtremeQty
			ps.KiddoQty += rec.KiddoQty
			ps.VipQty += rec.VipQty
			for _, o := range rec.OtherSales {
				ps.OtherAmount = ps.OtherAmount.Add(o.Amount)
			}
			ps.TotalQty += rec.TotalQty()
			ps.TotalAmount = ps.TotalAmount.Add(rec.TotalAmount())
			day.Amount = day.Amount.Add(rec.TotalAmount())
		}

		report.TotalTickets += day.Tickets
		report.TotalAmount = report.TotalAmount.Add(day.Amount)
		report.Daily = append(report.Daily, day)
	}

	for _, cs := range byCounter {
		report.Counters = append(report.Counters, *cs)
	}
	for _, ps := range byPerson {
		report.Personnel = append(report.Personnel, *ps)
	}
	sort.Slice(report.Counters, func(i, j int) bool { return report.Counters[i].CounterID < report.Counters[j].CounterID })
	sort.Slice(report.Personnel, func(i, j int) bool { return report.Personnel[i].PersonnelID < report.Personnel[j].PersonnelID })
	sortByName(report.Counters, func(c CounterSales) string { return c.Name })
	sortByName(report.Personnel, func(p PersonnelSales) string { return p.Name })

	return report, nil
}

func unknownName(kind string, id int) string {
	return kind + " #" + strconv.Itoa(id)
}
