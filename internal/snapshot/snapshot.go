package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"bizpulse/internal/infrastructure"
)

const (
	// DefaultTimeout bounds a whole render including browser start
	DefaultTimeout = 30 * time.Second
	// DefaultWaitSelector is the element the dashboard page renders its KPI cards into
	DefaultWaitSelector = "#kpi-cards"
	// settleDelay lets chart animations finish before printing
	settleDelay = 750 * time.Millisecond
)

// ErrInvalidOptions is returned when Options cannot describe a render
var ErrInvalidOptions = errors.New("invalid snapshot options")

// Options describes a single dashboard snapshot
type Options struct {
	// URL of the dashboard page, for example http://localhost:8080/
	URL string
	// Output is the PDF path. Render creates missing parent directories.
	Output string
	// Timeout for the whole render; DefaultTimeout when zero
	Timeout time.Duration
	// Landscape prints the page in landscape orientation
	Landscape bool
	// WaitSelector must be visible before printing; DefaultWaitSelector when empty
	WaitSelector string
	// Headful shows the browser window. Useful when debugging layouts.
	Headful bool
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.WaitSelector == "" {
		o.WaitSelector = DefaultWaitSelector
	}
	return o
}

func (o Options) validate() error {
	if o.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidOptions)
	}
	u, err := url.Parse(o.URL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: url scheme must be http or https, got %q", ErrInvalidOptions, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: url has no host", ErrInvalidOptions)
	}
	return nil
}

// Render prints the dashboard at opts.URL to a PDF at opts.Output
func Render(ctx context.Context, opts Options) error {
	if opts.Output == "" {
		return fmt.Errorf("%w: output is required", ErrInvalidOptions)
	}

	pdf, err := PDF(ctx, opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(opts.Output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(opts.Output, pdf, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	infrastructure.GetLogger().InfoContext(ctx, "Snapshot written",
		slog.String("component", "snapshot"),
		slog.String("output", opts.Output),
		slog.Int("bytes", len(pdf)))
	return nil
}

// PDF renders the dashboard and returns the PDF bytes
func PDF(ctx context.Context, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	logger := infrastructure.WithComponent(infrastructure.GetLogger(), "snapshot")
	// chromedp and the timed actions log without a context
	browserLog := infrastructure.LoggerWithContext(ctx, logger)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	allocOpts := chromedp.DefaultExecAllocatorOptions[:]
	if opts.Headful {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", true))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			browserLog.Debug(fmt.Sprintf(format, args...))
		}))
	defer cancelBrowser()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		timedAction(browserLog, "Navigate", chromedp.Navigate(opts.URL)),
		timedAction(browserLog, "WaitVisible", chromedp.WaitVisible(opts.WaitSelector, chromedp.ByQuery)),
		chromedp.Sleep(settleDelay),
		timedAction(browserLog, "PrintToPDF", chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(opts.Landscape).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		})),
	)
	if err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "Snapshot failed",
			slog.String("url", opts.URL))
		return nil, fmt.Errorf("render %s: %w", opts.URL, err)
	}

	logger.InfoContext(ctx, "Snapshot rendered",
		slog.String("url", opts.URL),
		slog.Bool("landscape", opts.Landscape),
		slog.Duration("duration", time.Since(start)))
	return pdf, nil
}

func timedAction(logger *slog.Logger, name string, act chromedp.Action) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		start := time.Now()
		err := act.Do(ctx)
		logger.Debug("Browser action finished",
			slog.String("action", name),
			slog.Duration("duration", time.Since(start)),
			slog.Bool("ok", err == nil))
		return err
	})
}
