// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build !nats

package eventprocessor

import (
	"context"

	gobreaker "github.com/sony/gobreaker/v2"
)

// Publisher is a stub when NATS dependencies are not available.
// Build with -tags=nats to enable full Watermill publisher support.
type Publisher struct {
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
}

// NewPublisher returns an error when NATS dependencies are not available.
// Build with -tags=nats to enable full Watermill publisher support.
func NewPublisher(cfg PublisherConfig, logger interface{}) (*Publisher, error) {
	return nil, ErrNATSNotEnabled
}

// SetCircuitBreaker configures the circuit breaker for publish operations.
func (p *Publisher) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[interface{}]) {
	p.circuitBreaker = cb
}

// Publish is a stub that returns an error.
func (p *Publisher) Publish(ctx context.Context, topic string, msg interface{}) error {
	return ErrNATSNotEnabled
}

// PublishEvent is a stub that returns an error.
func (p *Publisher) PublishEvent(ctx context.Context, event *CollaborationEvent) error {
	return ErrNATSNotEnabled
}

// PublishBatch is a stub that returns an error.
func (p *Publisher) PublishBatch(ctx context.Context, topic string, msgs ...interface{}) error {
	return ErrNATSNotEnabled
}

// Close is a no-op stub.
func (p *Publisher) Close() error {
	return nil
}

// WatermillPublisher returns nil for the stub implementation.
func (p *Publisher) WatermillPublisher() interface{} {
	return nil
}
