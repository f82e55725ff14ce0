// Package api contains the request and response contracts of the BizPulse HTTP API.
// Version v1 represents the current stable API version.
package api

import (
	"time"
)

// SimulateRequest is the what-if scenario submitted to /api/simulate and
// sent over the websocket as a "simulate" message.
type SimulateRequest struct {
	MarketingIncrease   float64 `json:"marketing_increase" validate:"min=-100,max=500"`
	AdditionalEmployees int     `json:"additional_employees" validate:"min=0,max=10000"`
}

// SheetRequest loads a Google Sheets range as the current dataset
type SheetRequest struct {
	SpreadsheetID string `json:"spreadsheet_id" validate:"required,spreadsheet_id"`
	Range         string `json:"range,omitempty" validate:"omitempty,a1range"`
}

// DatasetResponse describes the loaded dataset
type DatasetResponse struct {
	Name     string    `json:"name"`
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	Columns  []string  `json:"columns"`
	Missing  []string  `json:"missing"`
	LoadedAt time.Time `json:"loaded_at"`
}

// HealthResponse is returned by the health endpoints
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Uptime    string            `json:"uptime,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}
