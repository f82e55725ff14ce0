// Package http implements the HTTP handlers of the BizPulse dashboard.
// Handlers stay thin: they decode and validate requests, call the dashboard
// and health services, and render JSON with go-chi/render.
//
// # Error Handling
//
// Every failure is rendered as an RFC 7807 problem through
// errors.ErrorHandler. Service and dataset sentinels are mapped first:
//
//	services.ErrNoDataset        404 DATASET_NOT_LOADED
//	dataset.ErrUnsupportedFormat 415 UNSUPPORTED_FORMAT
//	dataset.ErrMalformedValue    422 DATASET_INVALID
//	kpi.ErrInvalidScenario       400 VALIDATION_FAILED
//	services.ErrSheetsDisabled   503 SERVICE_UNAVAILABLE
//
// # Routes
//
//	POST /api/dataset            multipart upload, field "file"
//	POST /api/dataset/sheet      Google Sheets range
//	GET  /api/dataset            dataset metadata
//	GET  /api/kpis               totals and KPIs
//	POST /api/simulate           what-if report
//	GET  /api/charts             chart series
//	GET  /api/export/{format}    csv or xlsx download
//	POST /api/logs               dashboard page log entries
package http
