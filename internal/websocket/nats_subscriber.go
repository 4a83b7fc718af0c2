// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build nats

package websocket

import (
	"context"
	"sync"

	"github.com/goccy/go-json"

	"github.com/nilskoch/attentia/internal/logging"
	"github.com/nilskoch/attentia/internal/metrics"
)

// CollaborationEvent mirrors eventprocessor.CollaborationEvent to avoid
// a circular import. Events published by another instance arrive here
// and are re-broadcast to this instance's WebSocket clients.
type CollaborationEvent struct {
	EventID         string      `json:"event_id"`
	Type            string      `json:"type"`
	VisualizationID string      `json:"visualization_id,omitempty"`
	ActorID         string      `json:"actor_id,omitempty"`
	Payload         interface{} `json:"payload,omitempty"`
}

// NATSMessageHandler defines the interface for receiving NATS messages.
// This allows the WebSocket subscriber to work with any message source.
type NATSMessageHandler interface {
	// Subscribe subscribes to a topic and returns a channel of messages.
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)
	// Close releases resources.
	Close() error
}

// NATSSubscriber bridges NATS collaboration events to WebSocket
// broadcasts, so annotation and visualization events created on one
// instance reach clients connected to another.
type NATSSubscriber struct {
	hub     *Hub
	handler NATSMessageHandler
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewNATSSubscriber creates a new NATS to WebSocket bridge.
func NewNATSSubscriber(hub *Hub, handler NATSMessageHandler) *NATSSubscriber {
	return &NATSSubscriber{
		hub:     hub,
		handler: handler,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins listening for collaboration events and forwarding them
// to the WebSocket hub. Subscribes to the "collab.>" wildcard.
func (s *NATSSubscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	messages, err := s.handler.Subscribe(ctx, "collab.>")
	if err != nil {
		return err
	}

	go s.processMessages(ctx, messages)

	logging.Info().Msg("NATS to WebSocket subscriber started")
	return nil
}

// Stop stops the subscriber.
func (s *NATSSubscriber) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh
	logging.Info().Msg("NATS to WebSocket subscriber stopped")
}

// processMessages handles incoming NATS messages.
func (s *NATSSubscriber) processMessages(ctx context.Context, messages <-chan []byte) {
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case data, ok := <-messages:
			if !ok {
				return
			}
			s.handleMessage(data)
		}
	}
}

// handleMessage converts one NATS event into a hub broadcast.
func (s *NATSSubscriber) handleMessage(data []byte) {
	metrics.RecordNATSConsume()

	var event CollaborationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		metrics.RecordNATSParseFailed()
		logging.Warn().Err(err).Msg("failed to unmarshal NATS collaboration event")
		return
	}

	s.hub.BroadcastRaw(mustMarshalMessage(Message{
		Type:            clientMessageType(event.Type),
		VisualizationID: event.VisualizationID,
		Data:            event.Payload,
	}))
}

// clientMessageType translates NATS subject-style event types into the
// message types clients already handle for local broadcasts.
func clientMessageType(eventType string) string {
	switch eventType {
	case "viz.created":
		return MessageTypeVisualizationCreated
	case "annotation.created":
		return MessageTypeAnnotationCreated
	case "annotation.updated":
		return MessageTypeAnnotationUpdated
	case "annotation.deleted":
		return MessageTypeAnnotationDeleted
	case "model.status":
		return MessageTypeModelStatus
	}
	return eventType
}

func mustMarshalMessage(msg Message) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal websocket message")
		return []byte("{}")
	}
	return data
}
