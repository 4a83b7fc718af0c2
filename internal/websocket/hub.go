// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/nilskoch/attentia/internal/logging"
	"github.com/nilskoch/attentia/internal/metrics"
	"github.com/nilskoch/attentia/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypePing                 = "ping"
	MessageTypePong                 = "pong"
	MessageTypeSubscribe            = "subscribe"
	MessageTypeAnnotationCreated    = "annotation_created"
	MessageTypeAnnotationUpdated    = "annotation_updated"
	MessageTypeAnnotationDeleted    = "annotation_deleted"
	MessageTypeVisualizationCreated = "visualization_created"
	MessageTypeModelStatus          = "model_status"
)

// Message represents a WebSocket message. VisualizationID scopes
// annotation events to clients viewing that visualization; messages
// without it go to every client.
type Message struct {
	Type            string      `json:"type"`
	VisualizationID string      `json:"visualization_id,omitempty"`
	Data            interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext starts the hub with context support for graceful shutdown.
// This method is designed for use with suture supervision.
//
// When the context is canceled all connected clients are closed and the
// method returns ctx.Err(), allowing the supervisor to restart the hub
// without orphaned connections.
//
// Uses priority-based selection for predictable behavior:
//   - Priority 1: Context cancellation (shutdown)
//   - Priority 2: Client lifecycle events (Register/Unregister)
//   - Priority 3: Broadcast messages
//
// When Go's select has multiple ready channels it picks randomly;
// priority selection keeps client state consistent before messages
// are processed.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: Check for shutdown (non-blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: Handle client lifecycle events (non-blocking)
		select {
		case client := <-h.Register:
			h.registerClient(client)
			continue
		case client := <-h.Unregister:
			h.unregisterClient(client)
			continue
		default:
		}

		// Priority 3: Handle broadcast messages or wait for any event
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("websocket client connected")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("websocket client disconnected")
}

// logGracefulShutdown closes all clients and logs structured shutdown
// information. ctx.Err() is NOT logged as an error because context
// cancellation is expected during graceful shutdown.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// broadcastToClients sends a message to connected clients in a
// deterministic order. Messages scoped to a visualization are only
// delivered to clients subscribed to it.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Sort by client ID for deterministic delivery order
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client

	for _, client := range clients {
		if message.VisualizationID != "" && !client.subscribedTo(message.VisualizationID) {
			continue
		}
		select {
		case client.send <- message:
			metrics.WSMessagesSent.Inc()
		default:
			// Channel full or closed, mark for removal
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		metrics.WSErrors.WithLabelValues("send_buffer_full").Inc()
		close(client.send)
		delete(h.clients, client)
	}
}

// closeAllClients closes all connected clients in ID order.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
	logging.Info().Msg("closed all websocket clients during shutdown")
}

// BroadcastAnnotation sends an annotation lifecycle event to clients
// viewing the annotation's visualization. eventType must be one of the
// MessageTypeAnnotation* constants.
func (h *Hub) BroadcastAnnotation(eventType string, vizID string, annotation *models.AnnotationWithUser) {
	message := Message{
		Type:            eventType,
		VisualizationID: vizID,
		Data:            annotation,
	}

	select {
	case h.broadcast <- message:
		logging.Debug().
			Str("message_type", eventType).
			Str("visualization_id", vizID).
			Msg("broadcast annotation event")
	default:
		logging.Warn().Str("message_type", eventType).Msg("broadcast channel full, dropping annotation message")
	}
}

// VisualizationCreatedData represents data sent with visualization_created.
// The HTML payload is deliberately excluded; clients fetch it on demand.
type VisualizationCreatedData struct {
	ID         string `json:"id"`
	ModelName  string `json:"model_name"`
	ViewType   string `json:"view_type"`
	TokenCount int    `json:"token_count"`
	CreatedAt  string `json:"created_at"`
}

// BroadcastVisualizationCreated notifies all clients of a new visualization
func (h *Hub) BroadcastVisualizationCreated(viz *models.Visualization) {
	data := VisualizationCreatedData{
		ID:         viz.ID.String(),
		ModelName:  viz.ModelName,
		ViewType:   viz.ViewType,
		TokenCount: viz.TokenCount,
		CreatedAt:  viz.CreatedAt.UTC().Format(time.RFC3339),
	}

	message := Message{
		Type: MessageTypeVisualizationCreated,
		Data: data,
	}

	select {
	case h.broadcast <- message:
		logging.Info().Int("clients", h.GetClientCount()).Str("visualization_id", data.ID).Msg("broadcast visualization_created")
	default:
		logging.Warn().Msg("broadcast channel full, dropping visualization_created message")
	}
}

// ModelStatusData represents data sent with model_status messages
type ModelStatusData struct {
	Timestamp string `json:"timestamp"`
	ModelName string `json:"model_name"`
	Status    string `json:"status"` // loading, loaded, unloaded, rejected
	Reason    string `json:"reason,omitempty"`
}

// BroadcastModelStatus notifies all clients of a model session change
func (h *Hub) BroadcastModelStatus(modelName, status, reason string) {
	data := ModelStatusData{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		ModelName: modelName,
		Status:    status,
		Reason:    reason,
	}

	message := Message{
		Type: MessageTypeModelStatus,
		Data: data,
	}

	select {
	case h.broadcast <- message:
		logging.Info().Int("clients", h.GetClientCount()).Str("model", modelName).Str("status", status).Msg("broadcast model_status")
	default:
		logging.Warn().Msg("broadcast channel full, dropping model_status message")
	}
}

// BroadcastJSON sends an arbitrary message to all connected clients
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	message := Message{
		Type: messageType,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping JSON message")
	}
}

// BroadcastRaw parses raw JSON bytes as a Message and broadcasts it.
// This implements the eventprocessor.Broadcaster interface, so events
// arriving over NATS from other instances reach this instance's clients.
func (h *Hub) BroadcastRaw(data []byte) {
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		logging.Warn().Err(err).Msg("failed to unmarshal raw event for broadcast")
		return
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Msg("broadcast channel full, dropping raw message")
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
