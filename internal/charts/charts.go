// Package charts builds the chart payloads the dashboard page hands to
// its client-side charting library.
package charts

import (
	"math"
	"strconv"

	"bizpulse/internal/kpi"
)

// Chart types understood by the dashboard
const (
	TypeBar  = "bar"
	TypeLine = "line"
)

// Axis identifiers for dual-axis charts
const (
	AxisLeft  = "y"
	AxisRight = "y1"
)

// Default color palette for chart series
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16",
}

// Series is one data series of a chart
type Series struct {
	Name  string    `json:"name"`
	Data  []float64 `json:"data"`
	Axis  string    `json:"axis,omitempty"`
	Color string    `json:"color"`
}

// Chart is a renderable chart definition
type Chart struct {
	ID     string   `json:"id"`
	Type   string   `json:"type"`
	Title  string   `json:"title"`
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// Set is the full chart bundle for the dashboard
type Set struct {
	KPIs     Chart `json:"kpis"`
	Ratios   Chart `json:"ratios"`
	Forecast Chart `json:"forecast"`
}

// KPIBar compares revenue, cost and profit
func KPIBar(k kpi.KPIs) Chart {
	return Chart{
		ID:     "kpi-bar",
		Type:   TypeBar,
		Title:  "Revenue, Cost and Profit",
		Labels: []string{"Revenue", "Cost", "Profit"},
		Series: withColors([]Series{{
			Name: "Amount",
			Data: []float64{round2(k.Revenue), round2(k.Cost), round2(k.Profit)},
		}}),
	}
}

// RatioBar shows ROI, simulated ROI and profit margin as percentages
func RatioBar(k kpi.KPIs, sim kpi.Simulation) Chart {
	return Chart{
		ID:     "ratio-bar",
		Type:   TypeBar,
		Title:  "ROI and Margin (%)",
		Labels: []string{"ROI", "Simulated ROI", "Profit Margin"},
		Series: withColors([]Series{{
			Name: "Percent",
			Data: []float64{percent(k.ROI), percent(sim.SimulatedROI), percent(k.ProfitMargin)},
		}}),
	}
}

// ForecastLine plots projected revenue against projected ROI on a second axis
func ForecastLine(points []kpi.ForecastPoint) Chart {
	labels := make([]string, len(points))
	revenue := make([]float64, len(points))
	roi := make([]float64, len(points))

	for i, p := range points {
		labels[i] = periodLabel(p.Period)
		revenue[i] = round2(p.Revenue)
		roi[i] = percent(p.ROI)
	}

	return Chart{
		ID:     "forecast-line",
		Type:   TypeLine,
		Title:  "Forecast",
		Labels: labels,
		Series: withColors([]Series{
			{Name: "Revenue", Data: revenue, Axis: AxisLeft},
			{Name: "ROI (%)", Data: roi, Axis: AxisRight},
		}),
	}
}

// Build assembles every dashboard chart for a report
func Build(r kpi.Report) Set {
	return Set{
		KPIs:     KPIBar(r.KPIs),
		Ratios:   RatioBar(r.KPIs, r.Simulation),
		Forecast: ForecastLine(r.Forecast),
	}
}

func withColors(series []Series) []Series {
	for i := range series {
		series[i].Color = defaultColors[i%len(defaultColors)]
	}
	return series
}

func periodLabel(period int) string {
	return "Period " + strconv.Itoa(period)
}

func percent(v float64) float64 {
	return round2(v * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
