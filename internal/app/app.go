package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"bizpulse/internal/config"
	"bizpulse/internal/dataset"
	apierrors "bizpulse/internal/errors"
	"bizpulse/internal/infrastructure"
	"bizpulse/internal/kpi"
	custommw "bizpulse/internal/middleware"
	"bizpulse/internal/services"
	handlers "bizpulse/internal/transport/http"
	ws "bizpulse/internal/websocket"
	"bizpulse/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	ErrorHandler  *apierrors.ErrorHandler
	WebSocketHub  *ws.Hub
	Dashboard     *services.DashboardService
	HealthService *services.HealthService
	FrontendFS    fs.FS // Embedded dashboard page
}

// NewApplication loads the configuration, initializes logging and builds
// the application
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger, frontendFS)
}

// New builds the application from an explicit configuration
func New(cfg *config.Config, logger *slog.Logger, frontendFS fs.FS) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
		FrontendFS:    frontendFS,
	}

	if err := app.initializeServices(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	app.HealthService.MarkReady()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context) error {
	var sheets dataset.ValueReader
	if file := a.Config.Sheets.CredentialsFile; file != "" {
		client, err := dataset.NewSheetsClientFromFile(ctx, file)
		if err != nil {
			return fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		sheets = client
	}

	// The hub and the dashboard reference each other: the dashboard
	// broadcasts through the hub and the hub answers simulate messages
	// through the dashboard.
	hub := ws.NewHub(nil, a.Metrics, a.Logger)

	a.Dashboard = services.NewDashboardService(services.DashboardConfig{
		Model: kpi.Model{
			CostPerEmployee: a.Config.Simulation.CostPerEmployee,
			GrowthRate:      a.Config.Simulation.GrowthRate,
			ForecastPeriods: a.Config.Simulation.ForecastPeriods,
		},
		MaxRows: a.Config.Upload.MaxRows,
		Sheets:  sheets,
	}, hub, a.Metrics, a.Logger)

	hub.SetHandler(ws.NewSimulationHandler(a.Dashboard))
	hub.Start()
	a.WebSocketHub = hub

	a.HealthService = services.NewHealthService(a.Paths.DataDir, a.Dashboard, hub, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Middleware that does not wrap the ResponseWriter, safe for websocket upgrades
	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)

	r.With(custommw.WebSocketTraceMiddleware(a.Logger)).
		Handle("/ws", ws.Handler(a.WebSocketHub, a.Config.Security.AllowedOrigins, a.Logger))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Security → CORS → RateLimit
		otelMiddleware, err := custommw.NewOTelMiddleware(a.OTelProviders, a.Metrics)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(custommw.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(a.ErrorHandler))
		r.Use(custommw.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(custommw.CORS(custommw.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				ExposedHeaders: []string{custommw.RequestIDHeader, "Content-Disposition"},
				Logger:         a.Logger,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(custommw.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			).Handler)
		}

		a.setupAPIRoutes(r)
		a.setupHTMLRoutes(r)
	})

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	validation := custommw.NewValidationMiddleware(a.Logger, a.ErrorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(custommw.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		handlers.NewHealthHandler(a.HealthService, a.Logger).RegisterRoutes(r)

		handlers.NewDashboardHandler(
			a.Dashboard,
			validation,
			a.ErrorHandler,
			a.Config.Upload.MaxBytes,
			a.Logger,
		).RegisterRoutes(r)

		clientLog := handlers.NewClientLogHandler(validation, a.ErrorHandler, a.Logger)
		r.With(
			custommw.ContentTypeValidator(a.ErrorHandler, "application/json"),
			validation.LimitBody,
		).Post("/logs", clientLog.Handle)
	})
}

// setupHTMLRoutes serves the embedded dashboard page
func (a *Application) setupHTMLRoutes(r chi.Router) {
	if a.FrontendFS == nil {
		a.Logger.Warn("Frontend filesystem not available, dashboard page disabled")
		return
	}

	r.Get("/", handlers.ServeDashboard(a.FrontendFS))
	r.With(custommw.Compress(5)).Handle("/static/*", handlers.StaticFiles("/", a.FrontendFS))
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Addr(),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts serving in the background. cancel is called if the server
// stops with an error.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("build", contracts.GetFullVersionString()),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.Bool("sheets_enabled", a.Dashboard.SheetsEnabled()))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			// Signal shutdown through context instead of os.Exit
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return infrastructure.CloseLogFile()
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx, stop); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received interrupt signal")

	// Graceful shutdown
	return a.Stop(context.Background())
}
