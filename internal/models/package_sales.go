package models

import "github.com/shopspring/decimal"

// OtherSale is a free-form sales line on a package sales record.
type OtherSale struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// PackageSalesRecord holds one sales person's package sales for a date.
type PackageSalesRecord struct {
	Date         string          `json:"date"`
	PersonnelID  int             `json:"personnelId"`
	XtremeQty    int             `json:"xtremeQty"`
	XtremeAmount decimal.Decimal `json:"xtremeAmount"`
	KiddoQty     int             `json:"kiddoQty"`
	KiddoAmount  decimal.Decimal `json:"kiddoAmount"`
	VipQty       int             `json:"vipQty"`
	VipAmount    decimal.Decimal `json:"vipAmount"`
	OtherSales   []OtherSale     `json:"otherSales"`
}

// TotalAmount sums every amount on the record.
func (r PackageSalesRecord) TotalAmount() decimal.Decimal {
	total := r.XtremeAmount.Add(r.KiddoAmount).Add(r.VipAmount)
	for _, o := range r.OtherSales {
		total = total.Add(o.Amount)
	}
	return total
}

// TotalQty sums the package quantities.
func (r PackageSalesRecord) TotalQty() int {
	return r.XtremeQty + r.KiddoQty + r.VipQty
}

// PackageSales maps a date to personnel id to that day's record.
type PackageSales map[string]map[int]PackageSalesRecord
