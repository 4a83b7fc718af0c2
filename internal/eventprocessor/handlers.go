// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build nats

package eventprocessor

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/nilskoch/attentia/internal/metrics"
)

// Broadcaster defines the interface for broadcasting to WebSocket clients.
// Satisfied by websocket.Hub.
type Broadcaster interface {
	// BroadcastRaw sends raw JSON bytes to all connected clients.
	BroadcastRaw(data []byte)
}

// WebSocketHandler forwards collaboration events to WebSocket clients.
// It is registered as a consumer handler on the router, so annotation and
// visualization events published by any instance reach clients connected
// to this instance.
type WebSocketHandler struct {
	hub        Broadcaster
	serializer *Serializer
	logger     watermill.LoggerAdapter
	origin     string

	messagesBroadcast atomic.Int64
	messagesDropped   atomic.Int64
	messagesSkipped   atomic.Int64
}

// clientEnvelope matches the message shape the WebSocket hub delivers to
// browsers, so remote events look identical to locally broadcast ones.
type clientEnvelope struct {
	Type            string      `json:"type"`
	VisualizationID string      `json:"visualization_id,omitempty"`
	Data            interface{} `json:"data"`
}

// NewWebSocketHandler creates a handler that broadcasts events to the hub.
func NewWebSocketHandler(hub Broadcaster, logger watermill.LoggerAdapter) (*WebSocketHandler, error) {
	if hub == nil {
		return nil, fmt.Errorf("broadcaster required")
	}
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	return &WebSocketHandler{
		hub:        hub,
		serializer: NewSerializer(),
		logger:     logger,
	}, nil
}

// SetOriginFilter makes Handle skip events published by the given
// instance. Handlers that already broadcast locally at publish time set
// this to the same ID passed to Publisher.SetOrigin, so clients do not
// see each event twice.
func (h *WebSocketHandler) SetOriginFilter(id string) {
	h.origin = id
}

// Handle processes a single message from the router.
//
// Malformed payloads are dropped rather than returned as errors: nacking
// them would send broadcast-only traffic through retries and into the
// poison queue for no benefit.
func (h *WebSocketHandler) Handle(msg *message.Message) error {
	start := time.Now()
	metrics.RecordNATSConsume()

	if h.origin != "" && msg.Metadata.Get("origin") == h.origin {
		h.messagesSkipped.Add(1)
		return nil
	}

	event, err := h.serializer.Unmarshal(msg.Payload)
	if err != nil {
		metrics.RecordNATSParseFailed()
		h.messagesDropped.Add(1)
		h.logger.Error("Dropping malformed collaboration event", err, watermill.LogFields{
			"message_uuid": msg.UUID,
		})
		return nil
	}
	event.EnsureSchemaVersion()

	envelope, err := json.Marshal(clientEnvelope{
		Type:            event.ClientMessageType(),
		VisualizationID: event.VisualizationID,
		Data:            event.Payload,
	})
	if err != nil {
		h.messagesDropped.Add(1)
		h.logger.Error("Failed to marshal client envelope", err, watermill.LogFields{
			"message_uuid": msg.UUID,
		})
		return nil
	}

	h.hub.BroadcastRaw(envelope)
	h.messagesBroadcast.Add(1)

	metrics.RecordNATSProcessingDuration(time.Since(start))
	return nil
}

// Stats returns broadcast counters.
func (h *WebSocketHandler) Stats() WebSocketHandlerStats {
	return WebSocketHandlerStats{
		MessagesBroadcast: h.messagesBroadcast.Load(),
		MessagesDropped:   h.messagesDropped.Load(),
		MessagesSkipped:   h.messagesSkipped.Load(),
	}
}

// WebSocketHandlerStats holds counters for the WebSocket forwarder.
type WebSocketHandlerStats struct {
	MessagesBroadcast int64
	MessagesDropped   int64
	MessagesSkipped   int64
}
