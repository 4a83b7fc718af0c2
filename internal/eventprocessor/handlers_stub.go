// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build !nats

package eventprocessor

// Broadcaster defines the interface for broadcasting to WebSocket clients.
// Satisfied by websocket.Hub.
type Broadcaster interface {
	// BroadcastRaw sends raw JSON bytes to all connected clients.
	BroadcastRaw(data []byte)
}

// WebSocketHandler is a stub when NATS dependencies are not available.
// Build with -tags=nats to enable collaboration event fan-out.
type WebSocketHandler struct{}

// NewWebSocketHandler returns an error when NATS dependencies are not available.
func NewWebSocketHandler(hub Broadcaster, logger interface{}) (*WebSocketHandler, error) {
	return nil, ErrNATSNotEnabled
}

// SetOriginFilter is a no-op for the stub.
func (h *WebSocketHandler) SetOriginFilter(_ string) {}

// Stats returns zero-valued counters for the stub.
func (h *WebSocketHandler) Stats() WebSocketHandlerStats {
	return WebSocketHandlerStats{}
}

// WebSocketHandlerStats holds counters for the WebSocket forwarder.
type WebSocketHandlerStats struct {
	MessagesBroadcast int64
	MessagesDropped   int64
	MessagesSkipped   int64
}
