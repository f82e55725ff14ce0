// Package app wires the BizPulse server together: configuration, logging,
// OpenTelemetry, the dashboard and health services, the websocket hub and
// the chi router.
//
// # Middleware order
//
//	RequestID → RealIP → /ws, /metrics
//	          → OTel → Logger → Recoverer → SecurityHeaders → CORS → RateLimit → routes
//
// The websocket and metrics endpoints sit outside the main group because
// the remaining middleware wraps the ResponseWriter.
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then stops the HTTP server, the
// websocket hub and the telemetry providers in that order. Errors are
// returned to main; the package never calls os.Exit.
package app
