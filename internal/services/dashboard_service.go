package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bizpulse/internal/charts"
	"bizpulse/internal/dataset"
	"bizpulse/internal/exporter"
	"bizpulse/internal/infrastructure"
	"bizpulse/internal/kpi"
	"bizpulse/pkg/contracts/events"
)

// Simulation channels recorded in metrics
const (
	ChannelHTTP      = "http"
	ChannelWebSocket = "websocket"
	ChannelCLI       = "cli"
)

type channelKey struct{}

// WithChannel tags ctx with the surface a simulation request arrived on
func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, channelKey{}, channel)
}

func channelFrom(ctx context.Context) string {
	if ch, ok := ctx.Value(channelKey{}).(string); ok {
		return ch
	}
	return ChannelHTTP
}

// Broadcaster pushes events to connected dashboard clients
type Broadcaster interface {
	Broadcast(messageType string, data interface{})
}

// DashboardConfig holds the tunables of the dashboard service
type DashboardConfig struct {
	Model   kpi.Model
	MaxRows int
	// Sheets is nil when the Google Sheets source is disabled
	Sheets dataset.ValueReader
}

// Summary is the KPI view of the current dataset
type Summary struct {
	Dataset *dataset.Dataset `json:"dataset"`
	Totals  dataset.Totals   `json:"totals"`
	KPIs    kpi.KPIs         `json:"kpis"`
}

// DashboardService holds the current dataset and derives every dashboard
// view from it. The dataset is replaced wholesale on each load.
type DashboardService struct {
	mu      sync.RWMutex
	current *dataset.Dataset
	totals  dataset.Totals

	model   kpi.Model
	maxRows int
	sheets  dataset.ValueReader

	hub     Broadcaster
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewDashboardService creates the service. hub and metrics may be nil.
func NewDashboardService(cfg DashboardConfig, hub Broadcaster, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == (kpi.Model{}) {
		cfg.Model = kpi.DefaultModel()
	}

	logger.Info("DashboardService initialized",
		slog.Float64("cost_per_employee", cfg.Model.CostPerEmployee),
		slog.Float64("growth_rate", cfg.Model.GrowthRate),
		slog.Int("forecast_periods", cfg.Model.ForecastPeriods),
		slog.Int("max_rows", cfg.MaxRows),
		slog.Bool("sheets_enabled", cfg.Sheets != nil),
	)

	return &DashboardService{
		model:   cfg.Model,
		maxRows: cfg.MaxRows,
		sheets:  cfg.Sheets,
		hub:     hub,
		metrics: metrics,
		logger:  infrastructure.WithComponent(logger, "dashboard_service"),
	}
}

// SheetsEnabled reports whether LoadSheet can be used
func (s *DashboardService) SheetsEnabled() bool {
	return s.sheets != nil
}

func (s *DashboardService) parseOptions() []dataset.Option {
	if s.maxRows > 0 {
		return []dataset.Option{dataset.WithMaxRows(s.maxRows)}
	}
	return nil
}

// Ingest parses an uploaded file and makes it the current dataset
func (s *DashboardService) Ingest(ctx context.Context, filename string, r io.Reader) (*dataset.Dataset, error) {
	start := time.Now()

	ds, err := dataset.Parse(ctx, r, filename, s.parseOptions()...)
	if err != nil {
		s.ingestFailed(ctx, sourceFor(filename), err)
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	s.Load(ctx, ds, time.Since(start))
	return ds, nil
}

// LoadSheet reads a Google Sheets range and makes it the current dataset
func (s *DashboardService) LoadSheet(ctx context.Context, src dataset.SheetsSource) (*dataset.Dataset, error) {
	if s.sheets == nil {
		return nil, ErrSheetsDisabled
	}

	start := time.Now()

	ds, err := dataset.LoadSheet(ctx, s.sheets, src, s.parseOptions()...)
	if err != nil {
		s.ingestFailed(ctx, dataset.SourceSheets, err)
		return nil, err
	}

	s.Load(ctx, ds, time.Since(start))
	return ds, nil
}

// Load replaces the current dataset and notifies connected clients
func (s *DashboardService) Load(ctx context.Context, ds *dataset.Dataset, parseTime time.Duration) {
	totals := dataset.Sum(ds)

	s.mu.Lock()
	s.current = ds
	s.totals = totals
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("name", ds.Name),
		slog.String("source", ds.Source),
		slog.Int("rows", ds.Rows()),
		slog.Any("missing_columns", ds.Missing),
		slog.Duration("parse_time", parseTime),
	)

	infrastructure.RecordDatasetLoaded(ctx, s.metrics, ds.Source, ds.Rows(), parseTime)

	if s.hub != nil {
		s.hub.Broadcast(string(events.TypeDatasetLoaded), events.DatasetLoaded{
			Name:   ds.Name,
			Source: ds.Source,
			Rows:   ds.Rows(),
		})
	}
}

func (s *DashboardService) ingestFailed(ctx context.Context, source string, err error) {
	infrastructure.WithError(s.logger, err).WarnContext(ctx, "dataset rejected",
		slog.String("source", source),
	)
	infrastructure.RecordIngestError(ctx, s.metrics, source, err)
}

// Current returns the loaded dataset
func (s *DashboardService) Current() (*dataset.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, ErrNoDataset
	}
	return s.current, nil
}

// snapshot returns the dataset and its totals under one read lock
func (s *DashboardService) snapshot() (*dataset.Dataset, dataset.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, dataset.Totals{}, ErrNoDataset
	}
	return s.current, s.totals, nil
}

// Summary returns the totals and KPIs of the current dataset
func (s *DashboardService) Summary(ctx context.Context) (*Summary, error) {
	ds, totals, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	return &Summary{
		Dataset: ds,
		Totals:  totals,
		KPIs:    kpi.Compute(totals),
	}, nil
}

// Simulate evaluates scenario against the current dataset and returns the
// full report with forecast and insights
func (s *DashboardService) Simulate(ctx context.Context, scenario kpi.Scenario) (*kpi.Report, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	_, totals, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	report := s.model.Analyze(totals, scenario)

	channel := channelFrom(ctx)
	infrastructure.RecordSimulation(ctx, s.metrics, channel)
	s.logger.DebugContext(ctx, "simulation evaluated",
		slog.String("channel", channel),
		slog.Float64("marketing_increase", scenario.MarketingIncrease),
		slog.Int("additional_employees", scenario.AdditionalEmployees),
		slog.Float64("simulated_roi", report.Simulation.SimulatedROI),
		slog.Int("insights", len(report.Insights)),
	)

	return &report, nil
}

// Charts returns the chart series for scenario
func (s *DashboardService) Charts(ctx context.Context, scenario kpi.Scenario) (*charts.Set, error) {
	report, err := s.Simulate(ctx, scenario)
	if err != nil {
		return nil, err
	}

	set := charts.Build(*report)
	return &set, nil
}

// Export renders the report for scenario to w
func (s *DashboardService) Export(ctx context.Context, format exporter.Format, scenario kpi.Scenario, w io.Writer) error {
	report, err := s.Simulate(ctx, scenario)
	if err != nil {
		return err
	}

	if err := exporter.Write(w, format, *report); err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}

	infrastructure.RecordExport(ctx, s.metrics, string(format))
	return nil
}

func sourceFor(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return dataset.SourceCSV
	}
	return dataset.SourceExcel
}
