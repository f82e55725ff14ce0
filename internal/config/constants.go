package config

// Application constants
const (
	AppName    = "BizPulse"
	AppVersion = "1.0.0"

	// What-if model defaults
	DefaultCostPerEmployee = 5000.0
	DefaultForecastPeriods = 3
	DefaultGrowthRate      = 0.05

	// Ingestion limits
	DefaultMaxUploadBytes = 10 << 20 // 10MB
	DefaultMaxRows        = 100000
)
