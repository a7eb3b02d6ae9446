package websocket

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
	"github.com/lorrc/service-desk-analytics/internal/infrastructure/metrics"
)

// Hub maintains the set of connected dashboards and broadcasts dataset
// events to all of them.
type Hub struct {
	// clients maps connection IDs to their clients
	clients map[uuid.UUID]*Client

	// Broadcast channel for events
	broadcast chan domain.Event

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// done stops Run
	done chan struct{}
	stop sync.Once

	// mu protects the clients map
	mu sync.RWMutex

	// logger for the hub
	logger *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast sends an event to the hub's internal broadcast channel.
// This method implements the ports.EventBroadcaster interface.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.broadcast <- event:
		return nil
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
		)
		return nil
	}
}

// Run starts the hub's event loop. This MUST be run as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop ends Run and closes every client's send channel, which makes the
// write pumps send a close frame.
func (h *Hub) Stop() {
	h.stop.Do(func() { close(h.done) })
}

// RegisterClient hands a client to Run. It reports false once the hub has
// stopped, in which case the caller owns the connection.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(total))
	h.logger.Info("client registered",
		"client_id", client.ID,
		"operator", client.Subject,
		"total_connections", total,
	)
}

// unregisterClient removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ID)
	total := len(h.clients)
	h.mu.Unlock()

	// Safely close the send channel
	client.CloseSend()

	metrics.WebSocketClients.Set(float64(total))
	h.logger.Info("client unregistered",
		"client_id", client.ID,
		"total_connections", total,
	)
}

// broadcastEvent sends an event to every connected client
func (h *Hub) broadcastEvent(event domain.Event) {
	// Copy the client list to avoid holding the lock while sending
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"client_count", len(clients),
	)

	for _, client := range clients {
		select {
		case client.Send <- event:
			// Successfully queued
		default:
			// Client's send buffer is full; drop it. Run is the caller, so
			// unregister directly instead of through the channel.
			h.logger.Warn("client send buffer full, unregistering",
				"client_id", client.ID,
			)
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[uuid.UUID]*Client)
	h.mu.Unlock()

	for _, client := range clients {
		client.CloseSend()
	}
	metrics.WebSocketClients.Set(0)
}

// GetClientCount returns the total number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
