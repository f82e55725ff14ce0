package http

import (
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"bizpulse/internal/shared/testutil"
)

func TestClientLogHandler_Handle(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	deps := newTestDeps(t)
	handler := NewClientLogHandler(deps.validation, deps.errorHandler, logger)

	r := chi.NewRouter()
	r.Post("/api/logs", handler.Handle)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantLevel  slog.Level
		wantMsg    string
	}{
		{
			name:       "error entry",
			body:       `{"level":"error","message":"chart render failed","source":"charts.js","data":{"chart":"forecast"}}`,
			wantStatus: http.StatusAccepted,
			wantLevel:  slog.LevelError,
			wantMsg:    "chart render failed",
		},
		{
			name:       "missing level defaults to info",
			body:       `{"message":"websocket reconnected"}`,
			wantStatus: http.StatusAccepted,
			wantLevel:  slog.LevelInfo,
			wantMsg:    "websocket reconnected",
		},
		{
			name:       "unicode message",
			body:       `{"level":"warn","message":"Test with unicode: 你好世界"}`,
			wantStatus: http.StatusAccepted,
			wantLevel:  slog.LevelWarn,
			wantMsg:    "Test with unicode: 你好世界",
		},
		{
			name:       "unknown level",
			body:       `{"level":"fatal","message":"x"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing message",
			body:       `{"level":"info"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid JSON",
			body:       `invalid json`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, r, http.MethodPost, "/api/logs", strings.NewReader(tt.body), "application/json")
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantMsg != "" {
				assert.Equal(t, true, decodeBody(t, rec)["success"])
				testutil.AssertLogContains(t, logs, tt.wantLevel, tt.wantMsg)
			}
		})
	}
}

func TestClientLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, clientLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, clientLevel("warn"))
	assert.Equal(t, slog.LevelError, clientLevel("error"))
	assert.Equal(t, slog.LevelInfo, clientLevel(""))
}
