package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"bizpulse/internal/infrastructure"
	"bizpulse/pkg/contracts/events"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	sendBuffer = 256
)

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub *Hub

	// The websocket connection
	conn Connection

	// Buffered channel of outbound messages
	send chan []byte

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger

	messagesSent     int64
	messagesReceived int64
	bytesSent        int64
	bytesReceived    int64
}

// NewClient creates a client for conn. traceID ties the connection to the
// HTTP request that upgraded it.
func NewClient(hub *Hub, conn Connection, traceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.New().String()
	logger = logger.With(
		slog.String("component", "websocket.client"),
		slog.String("client_id", id),
	)
	if traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}

	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger:      logger,
	}
}

// ID returns the client identifier
func (c *Client) ID() string {
	return c.id
}

func (c *Client) context() context.Context {
	ctx := context.Background()
	if c.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, c.traceID)
	}
	return ctx
}

// enqueue queues msg for this client only. Messages to a full or
// unregistered client are dropped.
func (c *Client) enqueue(msg events.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Error marshaling message",
			slog.String("message_type", string(msg.Type)),
			slog.String("error", err.Error()))
		return
	}

	if !c.hub.deliver(c, data) {
		c.logger.Warn("Dropped message for client",
			slog.String("message_type", string(msg.Type)))
	}
}

func (c *Client) sendError(code, message string) {
	msg, err := events.NewMessage(events.TypeError, events.ProtocolError{Code: code, Message: message})
	if err != nil {
		return
	}
	msg.TraceID = c.traceID
	c.enqueue(msg)
}

// ReadPump pumps messages from the websocket connection to the hub.
// It returns when the connection fails or is closed.
func (c *Client) ReadPump() {
	ctx := c.context()

	defer func() {
		c.logger.InfoContext(ctx, "WebSocket client disconnected (readPump)",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived),
			slog.Int64("bytes_received", c.bytesReceived))
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(ctx, "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}

		c.messagesReceived++
		c.bytesReceived += int64(len(data))

		var msg events.Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			c.logger.DebugContext(ctx, "Invalid frame", slog.Int("size", len(data)))
			c.sendError(events.ErrCodeInvalidFrame, "message must be a JSON object with a type")
			continue
		}

		if msg.Type == events.TypePing {
			pong, _ := events.NewMessage(events.TypePong, nil)
			pong.TraceID = c.traceID
			c.enqueue(pong)
			continue
		}

		reply, err := c.hub.handle(ctx, msg)
		if err != nil {
			perr := toProtocolError(err)
			infrastructure.WithError(c.logger, err).WarnContext(ctx, "Message rejected",
				slog.String("message_type", string(msg.Type)),
				slog.String("code", perr.Code))
			c.sendError(perr.Code, perr.Message)
			continue
		}
		if reply != nil {
			reply.TraceID = c.traceID
			c.enqueue(*reply)
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()

		c.logger.InfoContext(c.context(), "WebSocket write pump stopped",
			slog.Int64("messages_sent", c.messagesSent),
			slog.Int64("bytes_sent", c.bytesSent))
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.context(), "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				return
			}
			c.messagesSent++
			c.bytesSent += int64(len(message))

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.context(), "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}

// Serve registers the client and starts its pumps
func (c *Client) Serve() {
	c.hub.Register(c)

	go c.WritePump()
	go c.ReadPump()
}
