// Package services implements the business logic layer of BizPulse.
// Handlers in transport/http and the websocket hub call into services;
// services never touch http types.
//
// # Available Services
//
//	- DashboardService: holds the current dataset in memory and derives
//	  KPIs, simulations, forecasts, charts and exports from it
//	- HealthService: health, readiness, liveness and version reports
//
// # Error Handling
//
// Services return sentinel errors that handlers translate to problem
// responses:
//
//	- ErrNoDataset when a read happens before any load
//	- ErrSheetsDisabled when the Sheets source has no credentials
//	- dataset sentinels (dataset.ErrMalformedValue, ...) wrapped with context
//	- kpi.ErrInvalidScenario for out-of-range what-if inputs
//
// # Testing
//
// Collaborators are interfaces so tests substitute testify mocks:
//
//	hub := &MockBroadcaster{}
//	hub.On("Broadcast", "dataset:loaded", mock.Anything).Return()
//	svc := NewDashboardService(hub, nil, logger)
package services
