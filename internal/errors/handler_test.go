package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizpulse/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNewErrorHandler(t *testing.T) {
	for _, includeStack := range []bool{true, false} {
		logger, _ := testutil.NewTestLogger(t)
		handler := NewErrorHandler(logger, includeStack)

		assert.NotNil(t, handler)
		assert.Equal(t, includeStack, handler.includeStack)
	}
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{
			name:       "context deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "dataset not loaded",
			err:        ErrDatasetNotLoaded,
			wantStatus: http.StatusNotFound,
			wantType:   TypeDatasetNotLoaded,
			wantCode:   CodeDatasetNotLoaded,
		},
		{
			name:       "wrapped dataset invalid",
			err:        fmt.Errorf("upload: %w", DatasetInvalidError(fmt.Errorf("row 3: bad value"))),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDatasetInvalid,
			wantCode:   CodeDatasetInvalid,
		},
		{
			name:       "unsupported format",
			err:        UnsupportedFormatError("report.pdf"),
			wantStatus: http.StatusUnsupportedMediaType,
			wantType:   TypeUnsupportedFormat,
			wantCode:   CodeUnsupportedFormat,
		},
		{
			name:       "validation",
			err:        ErrValidation("marketing_increase", "must be at most 500"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   CodeValidationFailed,
		},
		{
			name:       "max bytes",
			err:        &http.MaxBytesError{Limit: 1024},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
		},
		{
			name:       "app network error",
			err:        NewNetworkError("sheets read failed", fmt.Errorf("dial tcp")),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeUpstream,
		},
		{
			name:       "app parsing error",
			err:        NewParsingError("bad workbook", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDatasetInvalid,
		},
		{
			name:       "app not found error",
			err:        fmt.Errorf("load: %w", NewNotFoundError("spreadsheet abc")),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "untyped error mentioning not found",
			err:        fmt.Errorf("template index.html not found"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/kpis", nil)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-123"))
			rec := httptest.NewRecorder()

			handler.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/kpis", body["instance"])
			assert.Equal(t, "req-123", body["trace_id"])
			assert.NotContains(t, body, "stack")
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
		})
	}
}

func TestErrorHandler_HandleError_Nil(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	eh := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	eh.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, rec.Body.Len())
	assert.Equal(t, 0, handler.Count())
}

func TestErrorHandler_LogLevels(t *testing.T) {
	logger, captured := testutil.NewTestLogger(t)
	eh := NewErrorHandler(logger, true)

	eh.HandleError(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), ErrDatasetNotLoaded)
	eh.HandleError(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("boom"))

	assert.Len(t, captured.GetRecordsByLevel(slog.LevelWarn), 1)
	assert.Len(t, captured.GetRecordsByLevel(slog.LevelError), 1)
	assert.True(t, captured.ContainsAttr("component", "error_handler"))
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, captured := testutil.NewTestLogger(t)
	eh := NewErrorHandler(logger, true)

	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	RecoveryMiddleware(eh)(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/kpis", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeInternal, body["type"])
	assert.Equal(t, "kaboom", body["panic"])
	testutil.AssertLogContains(t, captured, slog.LevelError, "panic recovered")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	eh := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	eh.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	eh.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/kpis", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "Method DELETE is not allowed")
}
