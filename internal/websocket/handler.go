package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"bizpulse/internal/infrastructure"
	"bizpulse/internal/kpi"
	"bizpulse/internal/services"
	apiv1 "bizpulse/pkg/contracts/api/v1"
	"bizpulse/pkg/contracts/events"
)

// MessageHandler answers a client message. A nil reply sends nothing.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg events.Message) (*events.Message, error)
}

// MessageHandlerFunc adapts a function to MessageHandler
type MessageHandlerFunc func(ctx context.Context, msg events.Message) (*events.Message, error)

// HandleMessage calls f
func (f MessageHandlerFunc) HandleMessage(ctx context.Context, msg events.Message) (*events.Message, error) {
	return f(ctx, msg)
}

// Error carries the protocol code sent back to the client
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string { return e.Code + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func errUnsupported(t events.MessageType) error {
	return &Error{Code: events.ErrCodeUnsupportedType, Err: fmt.Errorf("unsupported message type %q", t)}
}

// toProtocolError hides unclassified errors behind a generic message
func toProtocolError(err error) events.ProtocolError {
	var perr *Error
	if errors.As(err, &perr) {
		return events.ProtocolError{Code: perr.Code, Message: perr.Err.Error()}
	}
	return events.ProtocolError{Code: events.ErrCodeServerError, Message: "internal server error"}
}

// Simulator evaluates a what-if scenario against the loaded dataset
type Simulator interface {
	Simulate(ctx context.Context, scenario kpi.Scenario) (*kpi.Report, error)
}

// NewSimulationHandler answers "simulate" messages with a "simulation:result"
func NewSimulationHandler(sim Simulator) MessageHandler {
	return MessageHandlerFunc(func(ctx context.Context, msg events.Message) (*events.Message, error) {
		if msg.Type != events.TypeSimulate {
			return nil, errUnsupported(msg.Type)
		}

		var req apiv1.SimulateRequest
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				return nil, &Error{Code: events.ErrCodeInvalidFrame, Err: fmt.Errorf("invalid simulate payload: %w", err)}
			}
		}

		ctx = services.WithChannel(ctx, services.ChannelWebSocket)
		report, err := sim.Simulate(ctx, kpi.Scenario{
			MarketingIncrease:   req.MarketingIncrease,
			AdditionalEmployees: req.AdditionalEmployees,
		})
		switch {
		case errors.Is(err, services.ErrNoDataset):
			return nil, &Error{Code: events.ErrCodeNoDataset, Err: err}
		case errors.Is(err, kpi.ErrInvalidScenario):
			return nil, &Error{Code: events.ErrCodeInvalidScenario, Err: err}
		case err != nil:
			return nil, err
		}

		reply, err := events.NewMessage(events.TypeSimulationResult, report)
		if err != nil {
			return nil, err
		}
		return &reply, nil
	})
}

// Handler upgrades requests to websocket connections served by hub.
// Requests without an Origin header, same-host origins and origins listed
// in allowedOrigins are accepted. "*" accepts any origin.
func Handler(hub *Hub, allowedOrigins []string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = infrastructure.WithComponent(logger, "websocket.handler")

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r, allowedOrigins)
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := infrastructure.EnsureTraceID(r.Context())
		traceID := infrastructure.GetTraceID(ctx)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error
			infrastructure.WithError(logger, err).WarnContext(ctx, "WebSocket upgrade failed",
				slog.String("origin", r.Header.Get("Origin")))
			return
		}

		client := NewClient(hub, WrapConn(conn), traceID, logger)
		client.Serve()
	})
}

func originAllowed(r *http.Request, allowed []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, o := range allowed {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
