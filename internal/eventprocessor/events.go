// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package eventprocessor

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version.
// Increment this when making breaking changes to CollaborationEvent.
const SchemaVersion = 1

// CollaborationEvent is the canonical event format for cross-instance
// collaboration. Annotation and visualization changes made on one server
// instance are published as CollaborationEvents and re-broadcast to
// WebSocket clients connected to every other instance.
type CollaborationEvent struct {
	// Schema version for forward/backward compatibility
	SchemaVersion int `json:"schema_version,omitempty"`

	// Identification
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"` // e.g. annotation.created, viz.deleted
	Timestamp time.Time `json:"timestamp"`

	// Actor is the user who triggered the event.
	ActorID   string `json:"actor_id,omitempty"`
	ActorName string `json:"actor_name,omitempty"`

	// Subject references
	VisualizationID string `json:"visualization_id,omitempty"`
	AnnotationID    string `json:"annotation_id,omitempty"`
	ModelName       string `json:"model_name,omitempty"`

	// Payload carries the full entity for broadcast (annotation body,
	// visualization summary, model status detail).
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EventType constants for NATS subjects.
const (
	// EventTypeVizCreated indicates a visualization was rendered and saved.
	EventTypeVizCreated = "viz.created"
	// EventTypeVizDeleted indicates a visualization was deleted.
	EventTypeVizDeleted = "viz.deleted"
	// EventTypeAnnotationCreated indicates a new annotation.
	EventTypeAnnotationCreated = "annotation.created"
	// EventTypeAnnotationUpdated indicates an annotation edit.
	EventTypeAnnotationUpdated = "annotation.updated"
	// EventTypeAnnotationDeleted indicates an annotation removal.
	EventTypeAnnotationDeleted = "annotation.deleted"
	// EventTypeModelStatus indicates a model loading state change.
	EventTypeModelStatus = "model.status"
)

// TopicPrefix is the NATS subject hierarchy root for collaboration events.
const TopicPrefix = "collab"

// NewCollaborationEvent creates an event with a unique ID, timestamp, and
// schema version.
func NewCollaborationEvent(eventType string) *CollaborationEvent {
	return &CollaborationEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Type:          eventType,
		Timestamp:     time.Now().UTC(),
	}
}

// GetSchemaVersion returns the schema version, defaulting to 1 for legacy events.
func (e *CollaborationEvent) GetSchemaVersion() int {
	if e.SchemaVersion == 0 {
		return 1
	}
	return e.SchemaVersion
}

// EnsureSchemaVersion sets the schema version if not already set.
// Call this when processing events that may not have a version set.
func (e *CollaborationEvent) EnsureSchemaVersion() {
	if e.SchemaVersion == 0 {
		e.SchemaVersion = SchemaVersion
	}
}

// Validate checks required fields and returns an error if validation fails.
func (e *CollaborationEvent) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.Type == "" {
		return &ValidationError{Field: "type", Message: "required"}
	}
	switch e.Type {
	case EventTypeVizCreated, EventTypeVizDeleted,
		EventTypeAnnotationCreated, EventTypeAnnotationUpdated, EventTypeAnnotationDeleted:
		if e.VisualizationID == "" {
			return &ValidationError{Field: "visualization_id", Message: "required"}
		}
	case EventTypeModelStatus:
		if e.ModelName == "" {
			return &ValidationError{Field: "model_name", Message: "required"}
		}
	default:
		return &ValidationError{Field: "type", Message: "unknown event type"}
	}
	return nil
}

// Topic returns the NATS subject for this event.
// Format: collab.<type>
// Example: collab.annotation.created
func (e *CollaborationEvent) Topic() string {
	return TopicPrefix + "." + e.Type
}

// ClientMessageType translates the NATS subject-style event type into
// the message type WebSocket clients expect, so events arriving over
// NATS are indistinguishable from locally broadcast ones.
func (e *CollaborationEvent) ClientMessageType() string {
	switch e.Type {
	case EventTypeVizCreated:
		return "visualization_created"
	case EventTypeVizDeleted:
		return "visualization_deleted"
	case EventTypeAnnotationCreated:
		return "annotation_created"
	case EventTypeAnnotationUpdated:
		return "annotation_updated"
	case EventTypeAnnotationDeleted:
		return "annotation_deleted"
	case EventTypeModelStatus:
		return "model_status"
	}
	return e.Type
}

// IsAnnotationEvent reports whether the event concerns an annotation.
func (e *CollaborationEvent) IsAnnotationEvent() bool {
	switch e.Type {
	case EventTypeAnnotationCreated, EventTypeAnnotationUpdated, EventTypeAnnotationDeleted:
		return true
	}
	return false
}

// SetPayload marshals v and attaches it as the event payload.
func (e *CollaborationEvent) SetPayload(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e.Payload = data
	return nil
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
