package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"bizpulse/internal/config"
	"bizpulse/internal/dataset"
	"bizpulse/internal/exporter"
	"bizpulse/internal/infrastructure"
	"bizpulse/internal/kpi"
	"bizpulse/internal/validation"
)

const combinedName = "combined"

type options struct {
	inputs    []string
	marketing float64
	employees int
	format    string
	out       string
	combined  bool
}

// fileReport is the report of one input file
type fileReport struct {
	File    string     `json:"file"`
	Dataset string     `json:"dataset"`
	Missing []string   `json:"missing"`
	Report  kpi.Report `json:"report"`
}

type reporter struct {
	model     kpi.Model
	maxRows   int
	validator *validation.FileValidator
	logger    *slog.Logger
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureTraceID(ctx)

	r := &reporter{
		model: kpi.Model{
			CostPerEmployee: cfg.Simulation.CostPerEmployee,
			GrowthRate:      cfg.Simulation.GrowthRate,
			ForecastPeriods: cfg.Simulation.ForecastPeriods,
		},
		maxRows:   cfg.Upload.MaxRows,
		validator: validation.NewFileValidator(logger),
		logger:    infrastructure.WithComponent(logger, "kpi-report"),
	}

	if err := r.run(ctx, opts, os.Stdout); err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "Report failed")
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	var in string

	fs := flag.NewFlagSet("kpi-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&in, "in", "", "input file(s), comma separated (.csv, .xlsx, .xlsm)")
	fs.Float64Var(&opts.marketing, "marketing", 0, "marketing spend increase in percent")
	fs.IntVar(&opts.employees, "employees", 0, "additional employees")
	fs.StringVar(&opts.format, "format", "text", "output format: text, csv, xlsx or json")
	fs.StringVar(&opts.out, "out", "", "output file, or directory when several csv/xlsx reports are written (default stdout)")
	fs.BoolVar(&opts.combined, "combined", false, "append a report over the totals of all inputs")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	for _, p := range strings.Split(in, ",") {
		if p = strings.TrimSpace(p); p != "" {
			opts.inputs = append(opts.inputs, p)
		}
	}
	if len(opts.inputs) == 0 {
		return options{}, errors.New("-in is required")
	}

	opts.format = strings.ToLower(strings.TrimSpace(opts.format))
	switch opts.format {
	case "text", "json", "csv":
	case "xlsx":
		if opts.out == "" {
			return options{}, errors.New("-out is required for xlsx output")
		}
	default:
		return options{}, fmt.Errorf("unknown format %q (want text, csv, xlsx or json)", opts.format)
	}

	return opts, nil
}

func (r *reporter) run(ctx context.Context, opts options, stdout io.Writer) error {
	scenario := kpi.Scenario{MarketingIncrease: opts.marketing, AdditionalEmployees: opts.employees}
	if err := scenario.Validate(); err != nil {
		return err
	}

	if err := r.validator.ValidateDatasetFiles(opts.inputs); err != nil {
		return err
	}

	datasets, err := r.loadAll(ctx, opts.inputs)
	if err != nil {
		return err
	}

	reports := make([]fileReport, 0, len(datasets)+1)
	var all dataset.Totals
	for i, ds := range datasets {
		totals := dataset.Sum(ds)
		all = addTotals(all, totals)
		reports = append(reports, fileReport{
			File:    opts.inputs[i],
			Dataset: ds.Name,
			Missing: nonNil(ds.Missing),
			Report:  r.model.Analyze(totals, scenario),
		})
	}
	if opts.combined && len(datasets) > 1 {
		reports = append(reports, fileReport{
			File:    combinedName,
			Dataset: combinedName,
			Missing: []string{},
			Report:  r.model.Analyze(all, scenario),
		})
	}

	r.logger.InfoContext(ctx, "Reports computed",
		slog.Int("inputs", len(opts.inputs)),
		slog.Int("reports", len(reports)),
		slog.String("format", opts.format))

	return r.write(opts, reports, stdout)
}

// loadAll parses every input concurrently. Results keep the input order.
func (r *reporter) loadAll(ctx context.Context, paths []string) ([]*dataset.Dataset, error) {
	var parseOpts []dataset.Option
	if r.maxRows > 0 {
		parseOpts = append(parseOpts, dataset.WithMaxRows(r.maxRows))
	}

	results := make([]*dataset.Dataset, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, path := range paths {
		g.Go(func() error {
			ds, err := dataset.ParseFile(ctx, path, parseOpts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			r.logger.DebugContext(ctx, "Dataset parsed",
				slog.String("file", path),
				slog.Int("rows", ds.Rows()),
				slog.Any("missing", ds.Missing))
			results[i] = ds
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *reporter) write(opts options, reports []fileReport, stdout io.Writer) error {
	switch opts.format {
	case "text":
		return r.toWriter(opts.out, stdout, func(w io.Writer) error { return writeText(w, reports) })
	case "json":
		return r.toWriter(opts.out, stdout, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		})
	}

	format, err := exporter.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	if len(reports) == 1 {
		if opts.out == "" {
			return exporter.WriteCSV(stdout, reports[0].Report, exporter.WriteOptions{})
		}
		if err := r.validator.ValidateOutputFile(opts.out, format.Extension()); err != nil {
			return err
		}
		return exporter.WriteFile(opts.out, format, reports[0].Report)
	}

	// Several reports go to one file each inside the output directory
	dir := opts.out
	if dir == "" {
		dir = "."
	}
	if err := r.validator.ValidateOutputDirectory(dir); err != nil {
		return err
	}
	for _, fr := range reports {
		path := filepath.Join(dir, reportFileName(fr.File, format))
		if err := exporter.WriteFile(path, format, fr.Report); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		r.logger.Info("Report written", slog.String("input", fr.File), slog.String("output", path))
	}
	return nil
}

func (r *reporter) toWriter(out string, stdout io.Writer, fn func(io.Writer) error) error {
	if out == "" {
		return fn(stdout)
	}
	if err := r.validator.ValidateOutputFile(out); err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func reportFileName(input string, format exporter.Format) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return base + "-report" + format.Extension()
}

func writeText(w io.Writer, reports []fileReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for i, fr := range reports {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		rep := fr.Report
		k := rep.KPIs
		sim := rep.Simulation

		fmt.Fprintf(tw, "== %s (%d rows)\n", fr.File, rep.Totals.Rows)
		if len(fr.Missing) > 0 {
			fmt.Fprintf(tw, "missing columns:\t%s\n", strings.Join(fr.Missing, ", "))
		}
		fmt.Fprintf(tw, "revenue\t%.2f\n", k.Revenue)
		fmt.Fprintf(tw, "cost\t%.2f\n", k.Cost)
		fmt.Fprintf(tw, "profit\t%.2f\n", k.Profit)
		fmt.Fprintf(tw, "roi\t%.2f%%\n", k.ROI*100)
		fmt.Fprintf(tw, "profit margin\t%.2f%%\n", k.ProfitMargin*100)
		fmt.Fprintf(tw, "revenue per employee\t%.2f\n", k.RevenuePerEmployee)
		fmt.Fprintf(tw, "revenue per customer\t%.2f\n", k.RevenuePerCustomer)
		fmt.Fprintf(tw, "inventory turnover\t%.2f\n", k.InventoryTurnover)
		fmt.Fprintf(tw, "simulation\tmarketing %+.1f%%, +%d employees\n",
			sim.Scenario.MarketingIncrease, sim.Scenario.AdditionalEmployees)
		fmt.Fprintf(tw, "simulated cost\t%.2f\n", sim.SimulatedCost)
		fmt.Fprintf(tw, "simulated roi\t%.2f%% (%+.2f pts)\n", sim.SimulatedROI*100, sim.ROIDelta*100)
		for _, p := range rep.Forecast {
			fmt.Fprintf(tw, "forecast period %d\trevenue %.2f, roi %.2f%%\n", p.Period, p.Revenue, p.ROI*100)
		}
		for _, in := range rep.Insights {
			fmt.Fprintf(tw, "[%s]\t%s\n", in.Severity, in.Message)
		}
	}

	return tw.Flush()
}

func addTotals(a, b dataset.Totals) dataset.Totals {
	return dataset.Totals{
		Revenue:   a.Revenue + b.Revenue,
		Cost:      a.Cost + b.Cost,
		Employees: a.Employees + b.Employees,
		Customers: a.Customers + b.Customers,
		Inventory: a.Inventory + b.Inventory,
		Rows:      a.Rows + b.Rows,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
