package exporter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"bizpulse/internal/kpi"
)

// Workbook sheet names
const (
	SheetKPIs     = "KPIs"
	SheetForecast = "Forecast"
	SheetInsights = "Insights"
)

// WriteXLSX writes report as a workbook with KPIs, Forecast and Insights sheets
func WriteXLSX(w io.Writer, report kpi.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetKPIs); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetForecast, SheetInsights} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E7FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	kpiSheet := [][]interface{}{{"Metric", "Value"}}
	for _, row := range ReportRows(report) {
		if row[0] == "forecast" || row[0] == "insight" {
			continue
		}
		kpiSheet = append(kpiSheet, []interface{}{row[0] + "." + row[1], numeric(row[2])})
	}

	forecastSheet := [][]interface{}{{"Period", "Revenue", "ROI"}}
	for _, p := range report.Forecast {
		forecastSheet = append(forecastSheet, []interface{}{p.Period, p.Revenue, p.ROI})
	}

	insightSheet := [][]interface{}{{"Rule", "Severity", "Message"}}
	for _, in := range report.Insights {
		insightSheet = append(insightSheet, []interface{}{in.Rule, string(in.Severity), in.Message})
	}

	sheets := []struct {
		name  string
		rows  [][]interface{}
		width float64
	}{
		{SheetKPIs, kpiSheet, 32},
		{SheetForecast, forecastSheet, 18},
		{SheetInsights, insightSheet, 40},
	}

	for _, s := range sheets {
		if err := writeRows(f, s.name, s.rows); err != nil {
			return err
		}
		last, _ := excelize.ColumnNumberToName(len(s.rows[0]))
		if err := f.SetCellStyle(s.name, "A1", last+"1", headerStyle); err != nil {
			return fmt.Errorf("style header %s: %w", s.name, err)
		}
		if err := f.SetColWidth(s.name, "A", last, s.width); err != nil {
			return fmt.Errorf("set width %s: %w", s.name, err)
		}
	}

	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// numeric stores formatted numbers as numbers so spreadsheets can sum them
func numeric(s string) interface{} {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}
