package http

import (
	"context"
	"io"

	"bizpulse/internal/charts"
	"bizpulse/internal/dataset"
	"bizpulse/internal/exporter"
	"bizpulse/internal/kpi"
	"bizpulse/internal/services"
)

// DashboardServiceInterface defines the dashboard operations used by the handlers
type DashboardServiceInterface interface {
	Ingest(ctx context.Context, filename string, r io.Reader) (*dataset.Dataset, error)
	LoadSheet(ctx context.Context, src dataset.SheetsSource) (*dataset.Dataset, error)
	Current() (*dataset.Dataset, error)
	Summary(ctx context.Context) (*services.Summary, error)
	Simulate(ctx context.Context, scenario kpi.Scenario) (*kpi.Report, error)
	Charts(ctx context.Context, scenario kpi.Scenario) (*charts.Set, error)
	Export(ctx context.Context, format exporter.Format, scenario kpi.Scenario, w io.Writer) error
}
