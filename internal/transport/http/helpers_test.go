package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"bizpulse/internal/dataset"
	apierrors "bizpulse/internal/errors"
	custommw "bizpulse/internal/middleware"
	"bizpulse/internal/services"
	"bizpulse/internal/shared/testutil"
)

type testDeps struct {
	validation   *custommw.ValidationMiddleware
	errorHandler *apierrors.ErrorHandler
	handler      *testutil.BufferedSlogHandler
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)

	deps := &testDeps{
		validation:   custommw.NewValidationMiddleware(logger, errorHandler),
		errorHandler: errorHandler,
		handler:      logs,
	}
	return deps
}

// newDashboardRouter wires a real dashboard service behind the handlers
func newDashboardRouter(t *testing.T, sheets dataset.ValueReader, maxUpload int64) (http.Handler, *services.DashboardService) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	deps := newTestDeps(t)

	svc := services.NewDashboardService(services.DashboardConfig{MaxRows: 1000, Sheets: sheets}, nil, nil, logger)
	h := NewDashboardHandler(svc, deps.validation, deps.errorHandler, maxUpload, logger)

	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r, svc
}

func multipartBody(t *testing.T, field, filename, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func doRequest(t *testing.T, h http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	code, _ := decodeBody(t, rec)["error_code"].(string)
	return code
}
