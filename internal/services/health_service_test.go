package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bizpulse/internal/shared/testutil"
	"bizpulse/pkg/contracts"
)

type MockClientCounter struct {
	mock.Mock
}

func (m *MockClientCounter) ClientCount() int {
	return m.Called().Int(0)
}

func TestHealthService_Readiness(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	ctx := context.Background()

	clients := &MockClientCounter{}
	clients.On("ClientCount").Return(2)

	dashboard := newTestDashboard(t, nil, nil)
	hs := NewHealthService(t.TempDir(), dashboard, clients, logger)

	status := hs.ReadinessCheck(ctx)
	assert.Equal(t, StatusNotReady, status.Status)
	assert.Equal(t, StatusNotReady, status.Services["router"].Status)

	hs.MarkReady()
	status = hs.ReadinessCheck(ctx)
	assert.Equal(t, StatusReady, status.Status)
	assert.Equal(t, "empty", status.Services["dataset"].Status)
	assert.Equal(t, "2 clients connected", status.Services["websocket"].Message)

	_, err := dashboard.Ingest(ctx, "sales.csv", strings.NewReader(testutil.SampleCSV))
	require.NoError(t, err)

	status = hs.ReadinessCheck(ctx)
	assert.Equal(t, "loaded", status.Services["dataset"].Status)
	assert.Equal(t, "sales.csv (3 rows)", status.Services["dataset"].Message)
}

func TestHealthService_MissingDataDir(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	hs := NewHealthService(filepath.Join(t.TempDir(), "missing"), nil, nil, logger)
	hs.MarkReady()

	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, StatusNotReady, status.Status)
	assert.Equal(t, StatusNotReady, status.Services["data_dir"].Status)
}

func TestHealthService_HealthLivenessVersion(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService("", nil, nil, logger)
	ctx := context.Background()

	assert.Equal(t, StatusOK, hs.HealthCheck(ctx).Status)

	live := hs.LivenessCheck(ctx)
	assert.Equal(t, StatusAlive, live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	version := hs.Version()
	assert.Equal(t, contracts.Version, version["version"])
	assert.Equal(t, contracts.APIVersion, version["api_version"])
}
