// Package kpi derives financial ratios from dataset totals and evaluates
// what-if scenarios against them.
package kpi

import (
	"math"

	"bizpulse/internal/dataset"
)

// KPIs are the ratios derived from one set of totals
type KPIs struct {
	Revenue            float64 `json:"revenue"`
	Cost               float64 `json:"cost"`
	Profit             float64 `json:"profit"`
	ROI                float64 `json:"roi"`
	ProfitMargin       float64 `json:"profit_margin"`
	RevenuePerEmployee float64 `json:"revenue_per_employee"`
	RevenuePerCustomer float64 `json:"revenue_per_customer"`
	InventoryTurnover  float64 `json:"inventory_turnover"`
}

// Compute derives KPIs from totals. Every ratio is zero when its
// denominator is zero or the quotient is not finite.
func Compute(t dataset.Totals) KPIs {
	profit := t.Revenue - t.Cost

	return KPIs{
		Revenue:            t.Revenue,
		Cost:               t.Cost,
		Profit:             profit,
		ROI:                ratio(profit, t.Cost),
		ProfitMargin:       ratio(profit, t.Revenue),
		RevenuePerEmployee: ratio(t.Revenue, t.Employees),
		RevenuePerCustomer: ratio(t.Revenue, t.Customers),
		InventoryTurnover:  ratio(t.Cost, t.Inventory),
	}
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	q := num / den
	if math.IsInf(q, 0) || math.IsNaN(q) {
		return 0
	}
	return q
}
