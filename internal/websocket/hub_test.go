package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bizpulse/internal/kpi"
	"bizpulse/internal/services"
	"bizpulse/internal/shared/testutil"
	"bizpulse/pkg/contracts/events"
)

// mockConnection is an in-memory Connection
type mockConnection struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func newMockConnection() *mockConnection {
	return &mockConnection{
		in:     make(chan []byte, 16),
		out:    make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (m *mockConnection) ReadMessage() (int, []byte, error) {
	select {
	case data := <-m.in:
		return websocket.TextMessage, data, nil
	case <-m.closed:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
}

func (m *mockConnection) WriteMessage(messageType int, data []byte) error {
	select {
	case <-m.closed:
		return errors.New("connection closed")
	default:
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	select {
	case m.out <- data:
		return nil
	case <-m.closed:
		return errors.New("connection closed")
	}
}

func (m *mockConnection) Close() error {
	m.once.Do(func() { close(m.closed) })
	return nil
}

func (m *mockConnection) SetReadDeadline(time.Time) error { return nil }
func (m *mockConnection) SetWriteDeadline(time.Time) error { return nil }
func (m *mockConnection) SetReadLimit(int64) {}
func (m *mockConnection) SetPongHandler(func(string) error) {}
func (m *mockConnection) RemoteAddr() string { return "127.0.0.1:5555" }

func (m *mockConnection) sendJSON(t *testing.T, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	m.in <- data
}

func (m *mockConnection) next(t *testing.T) events.Message {
	t.Helper()
	select {
	case data := <-m.out:
		var msg events.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return events.Message{}
	}
}

// MockSimulator is a mock for the Simulator interface
type MockSimulator struct {
	mock.Mock
}

func (m *MockSimulator) Simulate(ctx context.Context, scenario kpi.Scenario) (*kpi.Report, error) {
	args := m.Called(ctx, scenario)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kpi.Report), args.Error(1)
}

func startHub(t *testing.T, handler MessageHandler) *Hub {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(handler, nil, logger)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func connect(t *testing.T, hub *Hub) (*Client, *mockConnection) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	conn := newMockConnection()
	t.Cleanup(func() { conn.Close() })

	client := NewClient(hub, conn, "trace-1", logger)
	client.Serve()

	msg := conn.next(t)
	require.Equal(t, events.TypeConnected, msg.Type)
	assert.Equal(t, "trace-1", msg.TraceID)
	return client, conn
}

func protocolError(t *testing.T, msg events.Message) events.ProtocolError {
	t.Helper()
	require.Equal(t, events.TypeError, msg.Type)
	var perr events.ProtocolError
	require.NoError(t, json.Unmarshal(msg.Payload, &perr))
	return perr
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := startHub(t, nil)
	_, first := connect(t, hub)
	_, second := connect(t, hub)

	assert.Equal(t, 2, hub.ClientCount())

	hub.Broadcast(string(events.TypeDatasetLoaded), events.DatasetLoaded{Name: "sales.csv", Source: "csv", Rows: 3})

	for _, conn := range []*mockConnection{first, second} {
		msg := conn.next(t)
		assert.Equal(t, events.TypeDatasetLoaded, msg.Type)

		var payload events.DatasetLoaded
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, 3, payload.Rows)
	}

	stats := hub.Stats()
	assert.Equal(t, int64(2), stats["total_connections"])
}

func TestHub_UnregisterOnClose(t *testing.T) {
	hub := startHub(t, nil)
	_, conn := connect(t, hub)
	require.Equal(t, 1, hub.ClientCount())

	conn.Close()

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastAfterStop(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(nil, nil, logger)
	hub.Start()
	hub.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer*2; i++ {
			hub.Broadcast(string(events.TypeDatasetLoaded), nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked after Stop")
	}
}

func TestClient_PingAndInvalidFrames(t *testing.T) {
	hub := startHub(t, nil)
	_, conn := connect(t, hub)

	conn.sendJSON(t, map[string]string{"type": string(events.TypePing)})
	assert.Equal(t, events.TypePong, conn.next(t).Type)

	conn.in <- []byte("not json")
	assert.Equal(t, events.ErrCodeInvalidFrame, protocolError(t, conn.next(t)).Code)

	// no handler configured
	conn.sendJSON(t, map[string]string{"type": string(events.TypeSimulate)})
	assert.Equal(t, events.ErrCodeUnsupportedType, protocolError(t, conn.next(t)).Code)
}

func TestSimulationHandler(t *testing.T) {
	report := &kpi.Report{Simulation: kpi.Simulation{SimulatedCost: 505000}}

	tests := []struct {
		name     string
		payload  string
		scenario kpi.Scenario
		report   *kpi.Report
		err      error
		wantType events.MessageType
		wantCode string
	}{
		{
			name:     "result",
			payload:  `{"marketing_increase":10,"additional_employees":2}`,
			scenario: kpi.Scenario{MarketingIncrease: 10, AdditionalEmployees: 2},
			report:   report,
			wantType: events.TypeSimulationResult,
		},
		{
			name:     "no dataset",
			payload:  `{}`,
			err:      services.ErrNoDataset,
			wantType: events.TypeError,
			wantCode: events.ErrCodeNoDataset,
		},
		{
			name:     "invalid scenario",
			payload:  `{"additional_employees":-1}`,
			scenario: kpi.Scenario{AdditionalEmployees: -1},
			err:      kpi.ErrInvalidScenario,
			wantType: events.TypeError,
			wantCode: events.ErrCodeInvalidScenario,
		},
		{
			name:     "internal failure",
			payload:  `{}`,
			err:      errors.New("boom"),
			wantType: events.TypeError,
			wantCode: events.ErrCodeServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := &MockSimulator{}
			var rep interface{}
			if tt.report != nil {
				rep = tt.report
			}
			sim.On("Simulate", mock.Anything, tt.scenario).Return(rep, tt.err).Once()

			hub := startHub(t, NewSimulationHandler(sim))
			_, conn := connect(t, hub)

			conn.in <- []byte(`{"type":"simulate","payload":` + tt.payload + `}`)
			msg := conn.next(t)
			assert.Equal(t, tt.wantType, msg.Type)
			assert.Equal(t, "trace-1", msg.TraceID)

			if tt.wantCode != "" {
				perr := protocolError(t, msg)
				assert.Equal(t, tt.wantCode, perr.Code)
				if tt.wantCode == events.ErrCodeServerError {
					assert.NotContains(t, perr.Message, "boom")
				}
			} else {
				var got kpi.Report
				require.NoError(t, json.Unmarshal(msg.Payload, &got))
				assert.Equal(t, 505000.0, got.Simulation.SimulatedCost)
			}

			sim.AssertExpectations(t)
		})
	}
}

func TestSimulationHandler_HandleMessage(t *testing.T) {
	sim := &MockSimulator{}
	sim.On("Simulate", mock.Anything, kpi.Scenario{}).Return(&kpi.Report{}, nil)

	handler := NewSimulationHandler(sim)
	reply, err := handler.HandleMessage(context.Background(), events.Message{Type: events.TypeSimulate})
	require.NoError(t, err)
	assert.Equal(t, events.TypeSimulationResult, reply.Type)

	_, err = handler.HandleMessage(context.Background(), events.Message{Type: "unknown"})
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, events.ErrCodeUnsupportedType, perr.Code)
}

func TestSimulationHandler_WithDashboard(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	dashboard := services.NewDashboardService(services.DashboardConfig{}, nil, nil, logger)
	_, err := dashboard.Ingest(context.Background(), "sales.csv", strings.NewReader(testutil.SampleCSV))
	require.NoError(t, err)

	hub := startHub(t, NewSimulationHandler(dashboard))
	_, conn := connect(t, hub)

	conn.sendJSON(t, events.Message{
		Type:    events.TypeSimulate,
		Payload: json.RawMessage(`{"marketing_increase":10,"additional_employees":2}`),
	})

	msg := conn.next(t)
	require.Equal(t, events.TypeSimulationResult, msg.Type)

	var report kpi.Report
	require.NoError(t, json.Unmarshal(msg.Payload, &report))
	assert.InDelta(t, 505000.0, report.Simulation.SimulatedCost, 1e-6)
	assert.Len(t, report.Forecast, kpi.DefaultForecastPeriods)
}
