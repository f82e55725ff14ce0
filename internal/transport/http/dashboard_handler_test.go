package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bizpulse/internal/dataset"
	apierrors "bizpulse/internal/errors"
	"bizpulse/internal/shared/testutil"
)

// MockValueReader is a mock for dataset.ValueReader
type MockValueReader struct {
	mock.Mock
}

func (m *MockValueReader) ReadRange(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	args := m.Called(ctx, spreadsheetID, readRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]interface{}), args.Error(1)
}

const testSpreadsheetID = "1AbCdEfGhIjKlMnOpQr"

func uploadSample(t *testing.T, h http.Handler) {
	t.Helper()
	body, ct := multipartBody(t, "file", "sales.csv", testutil.SampleCSV)
	rec := doRequest(t, h, http.MethodPost, "/api/dataset", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestDashboardHandler_NoDataset(t *testing.T) {
	h, _ := newDashboardRouter(t, nil, 0)

	tests := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodGet, "/api/dataset", ""},
		{http.MethodGet, "/api/kpis", ""},
		{http.MethodPost, "/api/simulate", `{"marketing_increase":10}`},
		{http.MethodGet, "/api/charts", ""},
		{http.MethodGet, "/api/export/csv", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := doRequest(t, h, tt.method, tt.target, strings.NewReader(tt.body), "application/json")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "DATASET_NOT_LOADED", errorCode(t, rec))
		})
	}
}

func TestDashboardHandler_UploadAndQuery(t *testing.T) {
	h, _ := newDashboardRouter(t, nil, 1<<20)

	body, ct := multipartBody(t, "file", "sales.csv", testutil.SampleCSV)
	rec := doRequest(t, h, http.MethodPost, "/api/dataset", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeBody(t, rec)
	assert.Equal(t, "sales.csv", created["name"])
	assert.Equal(t, float64(3), created["rows"])
	assert.Equal(t, []interface{}{}, created["missing"])

	rec = doRequest(t, h, http.MethodGet, "/api/dataset", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", decodeBody(t, rec)["source"])

	rec = doRequest(t, h, http.MethodGet, "/api/kpis", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody(t, rec)
	assert.Equal(t, 600000.0, summary["totals"].(map[string]interface{})["revenue"])
	assert.Equal(t, 150000.0, summary["kpis"].(map[string]interface{})["profit"])
	assert.Equal(t, 60000.0, summary["kpis"].(map[string]interface{})["revenue_per_employee"])

	rec = doRequest(t, h, http.MethodPost, "/api/simulate",
		strings.NewReader(`{"marketing_increase":10,"additional_employees":2}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decodeBody(t, rec)
	sim := report["simulation"].(map[string]interface{})
	assert.InDelta(t, 505000.0, sim["simulated_cost"], 1e-6)
	assert.Len(t, report["forecast"], 3)

	rec = doRequest(t, h, http.MethodGet, "/api/charts?marketing_increase=25&additional_employees=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	set := decodeBody(t, rec)
	assert.Equal(t, "forecast-line", set["forecast"].(map[string]interface{})["id"])
}

func TestDashboardHandler_Export(t *testing.T) {
	h, _ := newDashboardRouter(t, nil, 0)
	uploadSample(t, h)

	rec := doRequest(t, h, http.MethodGet, "/api/export/csv?marketing_increase=25&additional_employees=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment;")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, rec.Body.String(), "totals,revenue,600000.00")
	assert.Contains(t, rec.Body.String(), "simulation,simulated_cost,572500.00")

	rec = doRequest(t, h, http.MethodGet, "/api/export/XLSX", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.Equal(t, "PK", rec.Body.String()[:2])

	rec = doRequest(t, h, http.MethodGet, "/api/export/pdf", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
}

func TestDashboardHandler_UploadErrors(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		filename   string
		content    string
		maxUpload  int64
		wantStatus int
		wantCode   string
	}{
		{"missing file", "", "", "", 0, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unsupported format", "file", "report.pdf", "%PDF", 0, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"},
		{"malformed value", "file", "bad.csv", "Revenue,Cost\n100,abc\n", 0, http.StatusUnprocessableEntity, "DATASET_INVALID"},
		{"no known columns", "file", "other.csv", "Foo,Bar\n1,2\n", 0, http.StatusUnprocessableEntity, "DATASET_INVALID"},
		{"empty file", "file", "empty.csv", "", 0, http.StatusUnprocessableEntity, "DATASET_INVALID"},
		{"too large", "file", "sales.csv", strings.Repeat("1,", 4096), 512, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
		{"unterminated quote", "file", "bad_quote.csv", "Revenue,Cost\n\"100,50\n", 0, http.StatusUnprocessableEntity, "DATASET_INVALID"},
		{"corrupt workbook", "file", "corrupt.xlsx", "this is not a zip archive", 0, http.StatusUnprocessableEntity, "DATASET_INVALID"},
		{"total overflows", "file", "huge.csv", "Revenue,Cost,Employees\n1e308,1,1\n1e308,1,1\n", 0, http.StatusUnprocessableEntity, "DATASET_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newDashboardRouter(t, nil, tt.maxUpload)

			body, ct := multipartBody(t, tt.field, tt.filename, tt.content)
			rec := doRequest(t, h, http.MethodPost, "/api/dataset", body, ct)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, errorCode(t, rec))
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

			_, err := svc.Current()
			assert.Error(t, err, "a rejected upload must not replace the dataset")
		})
	}
}

func TestDashboardHandler_SimulateValidation(t *testing.T) {
	h, _ := newDashboardRouter(t, nil, 0)
	uploadSample(t, h)

	tests := []struct {
		name     string
		target   string
		method   string
		body     string
		wantCode string
	}{
		{"marketing above range", "/api/simulate", http.MethodPost, `{"marketing_increase":600}`, "VALIDATION_FAILED"},
		{"negative employees", "/api/simulate", http.MethodPost, `{"additional_employees":-1}`, "VALIDATION_FAILED"},
		{"invalid json", "/api/simulate", http.MethodPost, `{"marketing_increase":`, "INVALID_JSON"},
		{"charts bad number", "/api/charts?marketing_increase=abc", http.MethodGet, "", "VALIDATION_FAILED"},
		{"charts employees out of range", "/api/charts?additional_employees=-5", http.MethodGet, "", "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, tt.method, tt.target, strings.NewReader(tt.body), "application/json")
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, errorCode(t, rec))
		})
	}

	// an empty body is the zero scenario
	rec := doRequest(t, h, http.MethodPost, "/api/simulate", nil, "application/json")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDashboardHandler_ContentType(t *testing.T) {
	h, _ := newDashboardRouter(t, nil, 0)

	tests := []struct {
		name        string
		target      string
		contentType string
		wantStatus  int
		wantCode    string
	}{
		{"simulate as form", "/api/simulate", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE"},
		{"simulate without header", "/api/simulate", "", http.StatusBadRequest, "MISSING_CONTENT_TYPE"},
		{"upload as json", "/api/dataset", "application/json", http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE"},
		{"sheet as text", "/api/dataset/sheet", "text/plain", http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, tt.target, strings.NewReader(`{}`), tt.contentType)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, errorCode(t, rec))
		})
	}
}

func TestDashboardHandler_LoadSheet(t *testing.T) {
	sheetBody := `{"spreadsheet_id":"` + testSpreadsheetID + `","range":"Data!A1:E100"}`

	t.Run("disabled", func(t *testing.T) {
		h, _ := newDashboardRouter(t, nil, 0)
		rec := doRequest(t, h, http.MethodPost, "/api/dataset/sheet", strings.NewReader(sheetBody), "application/json")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "SERVICE_UNAVAILABLE", errorCode(t, rec))
	})

	t.Run("invalid request", func(t *testing.T) {
		h, _ := newDashboardRouter(t, &MockValueReader{}, 0)
		rec := doRequest(t, h, http.MethodPost, "/api/dataset/sheet", strings.NewReader(`{"spreadsheet_id":"x"}`), "application/json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
	})

	t.Run("loaded", func(t *testing.T) {
		reader := &MockValueReader{}
		reader.On("ReadRange", mock.Anything, testSpreadsheetID, "Data!A1:E100").Return([][]interface{}{
			{"Revenue", "Cost"},
			{5000.0, 4000.0},
		}, nil)

		h, _ := newDashboardRouter(t, reader, 0)
		rec := doRequest(t, h, http.MethodPost, "/api/dataset/sheet", strings.NewReader(sheetBody), "application/json")
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		body := decodeBody(t, rec)
		assert.Equal(t, "sheets", body["source"])
		assert.Equal(t, []interface{}{"Employees", "Customers", "Inventory"}, body["missing"])
		reader.AssertExpectations(t)
	})

	t.Run("upstream failure", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
		}{
			{"network app error", apierrors.NewNetworkError("google sheets request failed", errors.New("googleapi: Error 403"))},
			{"untyped error", errors.New("connection reset")},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				reader := &MockValueReader{}
				reader.On("ReadRange", mock.Anything, testSpreadsheetID, "Data!A1:E100").Return(nil, tt.err)

				h, _ := newDashboardRouter(t, reader, 0)
				rec := doRequest(t, h, http.MethodPost, "/api/dataset/sheet", strings.NewReader(sheetBody), "application/json")
				assert.Equal(t, http.StatusBadGateway, rec.Code)
				assert.Equal(t, "UPSTREAM_FAILED", errorCode(t, rec))
			})
		}
	})

	t.Run("spreadsheet not found", func(t *testing.T) {
		reader := &MockValueReader{}
		reader.On("ReadRange", mock.Anything, testSpreadsheetID, "Data!A1:E100").
			Return(nil, apierrors.NewNotFoundError("spreadsheet "+testSpreadsheetID))

		h, _ := newDashboardRouter(t, reader, 0)
		rec := doRequest(t, h, http.MethodPost, "/api/dataset/sheet", strings.NewReader(sheetBody), "application/json")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(t, rec))
	})

	t.Run("sheet without known columns", func(t *testing.T) {
		reader := &MockValueReader{}
		reader.On("ReadRange", mock.Anything, testSpreadsheetID, dataset.DefaultSheetRange).Return([][]interface{}{
			{"Foo"}, {1.0},
		}, nil)

		h, _ := newDashboardRouter(t, reader, 0)
		rec := doRequest(t, h, http.MethodPost, "/api/dataset/sheet",
			strings.NewReader(`{"spreadsheet_id":"`+testSpreadsheetID+`"}`), "application/json")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "DATASET_INVALID", errorCode(t, rec))
	})
}
