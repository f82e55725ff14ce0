package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizpulse/internal/shared/testutil"
	"bizpulse/pkg/contracts/events"
)

func newTestServer(t *testing.T, allowed []string) (*Hub, string) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := startHub(t, nil)

	srv := httptest.NewServer(Handler(hub, allowed, logger))
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readFrame(t *testing.T, conn *websocket.Conn) events.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg events.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHandler_Upgrade(t *testing.T) {
	hub, url := newTestServer(t, nil)

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	msg := readFrame(t, conn)
	assert.Equal(t, events.TypeConnected, msg.Type)
	assert.Equal(t, 1, hub.ClientCount())
	// mounted without the request ID middleware, the connection gets its own trace ID
	assert.Len(t, msg.TraceID, 36)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	pong := readFrame(t, conn)
	assert.Equal(t, events.TypePong, pong.Type)
	assert.Equal(t, msg.TraceID, pong.TraceID)

	hub.Broadcast(string(events.TypeDatasetLoaded), events.DatasetLoaded{Name: "sales.csv", Rows: 3})
	assert.Equal(t, events.TypeDatasetLoaded, readFrame(t, conn).Type)
}

func TestHandler_Origin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		wantOK  bool
	}{
		{"listed origin", []string{"http://dashboard.local"}, "http://dashboard.local", true},
		{"wildcard", []string{"*"}, "http://anywhere.example", true},
		{"foreign origin", []string{"http://dashboard.local"}, "http://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, url := newTestServer(t, tt.allowed)

			header := http.Header{}
			header.Set("Origin", tt.origin)
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if tt.wantOK {
				require.NoError(t, err)
				conn.Close()
				return
			}

			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestOriginAllowed_SameHost(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://localhost:8080/ws", nil)
	r.Header.Set("Origin", "http://localhost:8080")
	assert.True(t, originAllowed(r, nil))

	r.Header.Del("Origin")
	assert.True(t, originAllowed(r, nil))

	r.Header.Set("Origin", "http://other:8080")
	assert.False(t, originAllowed(r, nil))
}
