package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"bizpulse/internal/infrastructure"
	"bizpulse/pkg/contracts/events"
)

// broadcastBuffer bounds queued broadcasts while the hub loop is busy
const broadcastBuffer = 64

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages for every client
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu sync.RWMutex

	handler MessageHandler
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger

	totalConnections int64
	messagesSent     int64
	messagesReceived int64
	droppedClients   int64

	quit    chan struct{}
	running bool
}

// NewHub creates a hub. handler answers inbound client messages and may be nil.
func NewHub(handler MessageHandler, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		handler:    handler,
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
}

// Start starts the hub loop. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client, "normal")

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.totalConnections++
	h.mu.Unlock()

	ctx := client.context()
	h.logger.InfoContext(ctx, "Client registered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))

	if h.metrics != nil {
		h.metrics.WebSocketConnections.Add(ctx, 1)
	}

	msg, err := events.NewMessage(events.TypeConnected, map[string]string{
		"client_id": client.id,
		"protocol":  events.ProtocolName,
		"version":   events.ProtocolVersion,
	})
	if err == nil {
		msg.TraceID = client.traceID
		client.enqueue(msg)
	}
}

func (h *Hub) removeClient(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	ctx := client.context()
	h.logger.InfoContext(ctx, "Client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))

	if h.metrics != nil {
		h.metrics.WebSocketConnections.Add(ctx, -1)
	}
}

func (h *Hub) fanOut(message []byte) {
	// Sends happen under the read lock so Stop cannot close a channel mid-send
	h.mu.RLock()
	total := len(h.clients)
	var slow []*Client
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	// Clients that cannot keep up are disconnected
	for _, client := range slow {
		h.removeClient(client, "send buffer full")
	}

	h.mu.Lock()
	h.messagesSent += int64(total - len(slow))
	h.droppedClients += int64(len(slow))
	h.mu.Unlock()

	h.logger.Debug("Broadcast delivered",
		slog.Int("client_count", total),
		slog.Int("dropped", len(slow)),
		slog.Int("message_size", len(message)))
}

// deliver queues message for a single registered client without blocking
func (h *Hub) deliver(client *Client, message []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[client] {
		return false
	}
	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Broadcast sends a typed event to every connected client
func (h *Hub) Broadcast(messageType string, data interface{}) {
	msg, err := events.NewMessage(events.MessageType(messageType), data)
	if err != nil {
		h.logger.Error("Error marshaling broadcast",
			slog.String("message_type", messageType),
			slog.String("error", err.Error()))
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Error marshaling broadcast frame", slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.quit:
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// SetHandler replaces the inbound message handler
func (h *Hub) SetHandler(handler MessageHandler) {
	h.mu.Lock()
	h.handler = handler
	h.mu.Unlock()
}

// handle dispatches an inbound message to the configured handler
func (h *Hub) handle(ctx context.Context, msg events.Message) (*events.Message, error) {
	h.mu.Lock()
	h.messagesReceived++
	handler := h.handler
	h.mu.Unlock()

	if handler == nil {
		return nil, errUnsupported(msg.Type)
	}
	return handler.HandleMessage(ctx, msg)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns hub counters
func (h *Hub) Stats() map[string]int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]int64{
		"active_clients":    int64(len(h.clients)),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"messages_received": h.messagesReceived,
		"dropped_clients":   h.droppedClients,
	}
}

// Stop stops the hub and closes every client send channel
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return
	}
	h.running = false
	close(h.quit)

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
		if h.metrics != nil {
			h.metrics.WebSocketConnections.Add(context.Background(), -1)
		}
	}
}
