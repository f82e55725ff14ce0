package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"bizpulse/internal/dataset"
	"bizpulse/pkg/contracts"
)

// DatasetProvider exposes the currently loaded dataset
type DatasetProvider interface {
	Current() (*dataset.Dataset, error)
}

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	dataDir   string
	datasets  DatasetProvider
	clients   ClientCounter
	ready     atomic.Bool
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// Status values
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// NewHealthService creates a health service. datasets and clients may be nil.
func NewHealthService(dataDir string, datasets DatasetProvider, clients ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", contracts.Version),
		slog.String("data_dir", dataDir))

	return &HealthService{
		version:   contracts.Version,
		dataDir:   dataDir,
		datasets:  datasets,
		clients:   clients,
		startTime: time.Now(),
		logger:    logger,
	}
}

// MarkReady flags the service as ready once the router is built
func (hs *HealthService) MarkReady() {
	hs.ready.Store(true)
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports ready once the router is built. A loaded dataset
// is reported but not required.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"router":    hs.checkRouter(),
			"websocket": hs.checkWebSocket(),
			"data_dir":  hs.checkDataDir(),
		},
	}

	for _, sh := range status.Services {
		if sh.Status != StatusReady {
			status.Status = StatusNotReady
			break
		}
	}

	// informational only
	status.Services["dataset"] = hs.checkDataset()

	if status.Status != StatusReady {
		hs.logger.WarnContext(ctx, "readiness check failed", slog.Any("services", status.Services))
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":      info.Version,
		"api_version":  info.APIVersion,
		"build_time":   info.BuildTime,
		"git_commit":   info.GitCommit,
		"go_version":   info.GoVersion,
		"os":           info.OS,
		"arch":         info.Architecture,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkRouter() ServiceHealth {
	if !hs.ready.Load() {
		return ServiceHealth{Status: StatusNotReady, Message: "router not initialized"}
	}
	return ServiceHealth{Status: StatusReady, Uptime: time.Since(hs.startTime).String()}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.clients == nil {
		return ServiceHealth{Status: StatusReady, Message: "websocket hub disabled"}
	}
	return ServiceHealth{
		Status:  StatusReady,
		Message: fmt.Sprintf("%d clients connected", hs.clients.ClientCount()),
	}
}

func (hs *HealthService) checkDataDir() ServiceHealth {
	if hs.dataDir == "" {
		return ServiceHealth{Status: StatusReady, Message: "no data directory configured"}
	}

	info, err := os.Stat(hs.dataDir)
	if err != nil {
		return ServiceHealth{Status: StatusNotReady, Message: fmt.Sprintf("data directory unavailable: %v", err)}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: StatusNotReady, Message: fmt.Sprintf("%s is not a directory", hs.dataDir)}
	}
	return ServiceHealth{Status: StatusReady}
}

func (hs *HealthService) checkDataset() ServiceHealth {
	if hs.datasets == nil {
		return ServiceHealth{Status: "empty"}
	}

	ds, err := hs.datasets.Current()
	if err != nil {
		return ServiceHealth{Status: "empty", Message: err.Error()}
	}
	return ServiceHealth{
		Status:  "loaded",
		Message: fmt.Sprintf("%s (%d rows)", ds.Name, ds.Rows()),
	}
}
