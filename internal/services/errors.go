package services

import "errors"

// Dashboard service errors
var (
	// ErrNoDataset is returned by read operations before any dataset was loaded
	ErrNoDataset = errors.New("no dataset loaded")

	// ErrSheetsDisabled is returned when no Sheets credentials are configured
	ErrSheetsDisabled = errors.New("google sheets source is not configured")
)
