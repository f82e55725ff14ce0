package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"bizpulse/internal/kpi"
)

// CSVHeaders are the columns of a CSV report
var CSVHeaders = []string{"section", "metric", "value"}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes report as section,metric,value rows
func WriteCSV(w io.Writer, report kpi.Report, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if err := writer.Write(CSVHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, record := range ReportRows(report) {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReportRows flattens a report into section,metric,value rows
func ReportRows(r kpi.Report) [][]string {
	rows := [][]string{
		{"totals", "revenue", formatFloat(r.Totals.Revenue)},
		{"totals", "cost", formatFloat(r.Totals.Cost)},
		{"totals", "employees", formatFloat(r.Totals.Employees)},
		{"totals", "customers", formatFloat(r.Totals.Customers)},
		{"totals", "inventory", formatFloat(r.Totals.Inventory)},
		{"totals", "rows", strconv.Itoa(r.Totals.Rows)},
	}

	rows = append(rows, kpiRows(r)...)

	rows = append(rows,
		[]string{"simulation", "marketing_increase", formatFloat(r.Simulation.Scenario.MarketingIncrease)},
		[]string{"simulation", "additional_employees", strconv.Itoa(r.Simulation.Scenario.AdditionalEmployees)},
		[]string{"simulation", "simulated_cost", formatFloat(r.Simulation.SimulatedCost)},
		[]string{"simulation", "simulated_roi", formatRatio(r.Simulation.SimulatedROI)},
		[]string{"simulation", "roi_delta", formatRatio(r.Simulation.ROIDelta)},
	)

	for _, p := range r.Forecast {
		prefix := "period_" + strconv.Itoa(p.Period)
		rows = append(rows,
			[]string{"forecast", prefix + "_revenue", formatFloat(p.Revenue)},
			[]string{"forecast", prefix + "_roi", formatRatio(p.ROI)},
		)
	}

	for _, in := range r.Insights {
		rows = append(rows, []string{"insight", in.Rule, in.Message})
	}

	return rows
}

// kpiRows lists the KPI figures in display order
func kpiRows(r kpi.Report) [][]string {
	k := r.KPIs
	return [][]string{
		{"kpi", "profit", formatFloat(k.Profit)},
		{"kpi", "roi", formatRatio(k.ROI)},
		{"kpi", "profit_margin", formatRatio(k.ProfitMargin)},
		{"kpi", "revenue_per_employee", formatFloat(k.RevenuePerEmployee)},
		{"kpi", "revenue_per_customer", formatFloat(k.RevenuePerCustomer)},
		{"kpi", "inventory_turnover", formatRatio(k.InventoryTurnover)},
	}
}
