// Package config provides centralized configuration management for BizPulse.
// It handles loading configuration from multiple sources, validation, and provides
// a type-safe API for accessing configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (config.yaml, configs/config.yaml or BIZPULSE_CONFIG_FILE)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern BIZPULSE_<SECTION>_<FIELD>:
//
//	BIZPULSE_SERVER_PORT=8080
//	BIZPULSE_LOGGING_LEVEL=debug
//	BIZPULSE_UPLOAD_MAX_BYTES=20971520
//	BIZPULSE_SIMULATION_COST_PER_EMPLOYEE=5000
//	BIZPULSE_SHEETS_CREDENTIALS_FILE=/etc/bizpulse/sa.json
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	srv := &http.Server{Addr: cfg.Addr()}
package config
