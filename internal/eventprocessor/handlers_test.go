// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build nats

package eventprocessor

import (
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
)

type mockBroadcaster struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (m *mockBroadcaster) BroadcastRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, data)
}

func (m *mockBroadcaster) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}

func TestWebSocketHandlerBroadcasts(t *testing.T) {
	hub := &mockBroadcaster{}
	handler, err := NewWebSocketHandler(hub, nil)
	if err != nil {
		t.Fatalf("NewWebSocketHandler: %v", err)
	}

	event := NewCollaborationEvent(EventTypeAnnotationCreated)
	event.VisualizationID = "viz-1"
	data, err := SerializeEvent(event)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	msg := message.NewMessage(event.EventID, data)
	if err := handler.Handle(msg); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if hub.count() != 1 {
		t.Fatalf("broadcasts = %d, want 1", hub.count())
	}
	if stats := handler.Stats(); stats.MessagesBroadcast != 1 {
		t.Errorf("stats.MessagesBroadcast = %d, want 1", stats.MessagesBroadcast)
	}
}

func TestWebSocketHandlerDropsMalformedPayload(t *testing.T) {
	hub := &mockBroadcaster{}
	handler, err := NewWebSocketHandler(hub, nil)
	if err != nil {
		t.Fatalf("NewWebSocketHandler: %v", err)
	}

	msg := message.NewMessage("bad", []byte("{not json"))

	// Malformed payloads are dropped, not retried
	if err := handler.Handle(msg); err != nil {
		t.Fatalf("Handle should not error on malformed payload: %v", err)
	}

	if hub.count() != 0 {
		t.Errorf("broadcasts = %d, want 0", hub.count())
	}
	if stats := handler.Stats(); stats.MessagesDropped != 1 {
		t.Errorf("stats.MessagesDropped = %d, want 1", stats.MessagesDropped)
	}
}

func TestNewWebSocketHandlerRequiresHub(t *testing.T) {
	if _, err := NewWebSocketHandler(nil, nil); err == nil {
		t.Fatal("expected error for nil broadcaster")
	}
}

func TestWebSocketHandlerEnvelopesEvent(t *testing.T) {
	hub := &mockBroadcaster{}
	handler, err := NewWebSocketHandler(hub, nil)
	if err != nil {
		t.Fatalf("NewWebSocketHandler: %v", err)
	}

	event := NewCollaborationEvent(EventTypeAnnotationUpdated)
	event.VisualizationID = "viz-9"
	data, err := SerializeEvent(event)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	if err := handler.Handle(message.NewMessage(event.EventID, data)); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	hub.mu.Lock()
	payload := string(hub.payloads[0])
	hub.mu.Unlock()

	var envelope struct {
		Type            string `json:"type"`
		VisualizationID string `json:"visualization_id"`
	}
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Type != "annotation_updated" {
		t.Errorf("envelope type = %q, want annotation_updated", envelope.Type)
	}
	if envelope.VisualizationID != "viz-9" {
		t.Errorf("envelope visualization_id = %q, want viz-9", envelope.VisualizationID)
	}
}

func TestWebSocketHandlerSkipsOwnOrigin(t *testing.T) {
	hub := &mockBroadcaster{}
	handler, err := NewWebSocketHandler(hub, nil)
	if err != nil {
		t.Fatalf("NewWebSocketHandler: %v", err)
	}
	handler.SetOriginFilter("instance-a")

	event := NewCollaborationEvent(EventTypeVizCreated)
	event.VisualizationID = "viz-2"
	data, err := SerializeEvent(event)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	own := message.NewMessage(event.EventID, data)
	own.Metadata.Set("origin", "instance-a")
	if err := handler.Handle(own); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	remote := message.NewMessage(event.EventID+"-b", data)
	remote.Metadata.Set("origin", "instance-b")
	if err := handler.Handle(remote); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if hub.count() != 1 {
		t.Fatalf("broadcasts = %d, want 1 (own-origin event must be skipped)", hub.count())
	}
	stats := handler.Stats()
	if stats.MessagesSkipped != 1 {
		t.Errorf("stats.MessagesSkipped = %d, want 1", stats.MessagesSkipped)
	}
}
