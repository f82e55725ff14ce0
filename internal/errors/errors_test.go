package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "", "/api/simulate").
		WithExtension("error_code", CodeValidationFailed).
		WithExtension("type", "ignored")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))

	// Standard members win over extensions with the same name
	assert.Equal(t, TypeValidation, body["type"])
	assert.Equal(t, CodeValidationFailed, body["error_code"])
	assert.NotContains(t, body, "detail")
	assert.Equal(t, "/api/simulate", body["instance"])
}

func TestNewValidationErrors(t *testing.T) {
	apiErr := NewValidationErrors([]ValidationError{
		{Field: "marketing_increase", Message: "must be at least -100"},
		{Field: "additional_employees", Message: "must be at most 10000"},
	})

	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	details, ok := apiErr.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, details.Errors, 2)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrRateLimitExceeded)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), CodeRateLimitExceeded)
}

func TestAppError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewNetworkError("sheets unavailable", cause).WithContext("spreadsheet_id", "abc")

	assert.Equal(t, "[NETWORK] sheets unavailable: connection refused", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "abc", err.Context["spreadsheet_id"])

	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("wrap: %w", err), &appErr))
	assert.Equal(t, ErrTypeNetwork, appErr.Type)

	assert.Equal(t, "[NOT_FOUND] spreadsheet abc not found", NewNotFoundError("spreadsheet abc").Error())

	assert.True(t, IsType(fmt.Errorf("wrap: %w", err), ErrTypeNetwork))
	assert.False(t, IsType(err, ErrTypeParsing))
	assert.False(t, IsType(cause, ErrTypeNetwork))
	assert.False(t, IsType(nil, ErrTypeNetwork))
}
