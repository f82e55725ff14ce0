package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"bizpulse/internal/config"
	"bizpulse/internal/infrastructure"
	"bizpulse/internal/snapshot"
	"bizpulse/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		slog.Error("Failed to resolve paths", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defaultURL := fmt.Sprintf("http://localhost:%d/", cfg.Server.Port)
	opts, err := parseFlags(os.Args[1:], defaultURL, paths.ExportsDir, time.Now(), os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := validation.NewFileValidator(logger).ValidateOutputFile(opts.Output, ".pdf"); err != nil {
		logger.Error("Invalid output path", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureTraceID(ctx)

	logger.InfoContext(ctx, "Rendering dashboard snapshot",
		slog.String("url", opts.URL),
		slog.String("output", opts.Output),
		slog.Duration("timeout", opts.Timeout))

	if err := snapshot.Render(ctx, opts); err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "Snapshot failed")
		os.Exit(1)
	}
}

// parseFlags builds render options. The output defaults to a dated file
// in exportsDir.
func parseFlags(args []string, defaultURL, exportsDir string, now time.Time, stderr io.Writer) (snapshot.Options, error) {
	var opts snapshot.Options

	defaultOut := filepath.Join(exportsDir,
		fmt.Sprintf("bizpulse-dashboard-%s.pdf", now.Format("20060102-150405")))

	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.URL, "url", defaultURL, "dashboard page to render")
	fs.StringVar(&opts.Output, "out", defaultOut, "PDF output path")
	fs.DurationVar(&opts.Timeout, "timeout", snapshot.DefaultTimeout, "render timeout")
	fs.BoolVar(&opts.Landscape, "landscape", true, "landscape orientation")
	fs.StringVar(&opts.WaitSelector, "wait", snapshot.DefaultWaitSelector, "CSS selector that must be visible before printing")
	fs.BoolVar(&opts.Headful, "headful", false, "show the browser window")

	if err := fs.Parse(args); err != nil {
		return snapshot.Options{}, err
	}
	if fs.NArg() > 0 {
		return snapshot.Options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.Timeout <= 0 {
		return snapshot.Options{}, errors.New("-timeout must be positive")
	}

	return opts, nil
}
