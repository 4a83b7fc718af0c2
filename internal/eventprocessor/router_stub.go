// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build !nats

package eventprocessor

import (
	"context"
	"time"
)

// RouterConfig holds configuration for the Watermill Router.
// This stub mirrors the nats-tagged version so callers can construct
// configuration regardless of build tags.
type RouterConfig struct {
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
	ThrottlePerSecond    int64
	PoisonQueueTopic     string
	DeduplicationEnabled bool
	DeduplicationTTL     time.Duration
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      5,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     time.Minute,
		RetryMultiplier:      2.0,
		ThrottlePerSecond:    0,
		PoisonQueueTopic:     "dlq.collab",
		DeduplicationEnabled: true,
		DeduplicationTTL:     5 * time.Minute,
	}
}

// RouterMetrics holds runtime metrics for the Router.
type RouterMetrics struct {
	MessagesReceived     int64
	MessagesProcessed    int64
	MessagesFailed       int64
	MessagesRetried      int64
	MessagesPoisoned     int64
	MessagesDeduplicated int64
}

// Router is a stub when NATS dependencies are not available.
// Build with -tags=nats to enable full Watermill router support.
type Router struct {
	metricsStore *RouterMetrics
}

// NewRouter returns an error when NATS dependencies are not available.
func NewRouter(cfg *RouterConfig, poisonPublisher interface{}, logger interface{}) (*Router, error) {
	return nil, ErrNATSNotEnabled
}

// Run is a stub that returns an error.
func (r *Router) Run(ctx context.Context) error {
	return ErrNATSNotEnabled
}

// Close is a no-op stub.
func (r *Router) Close() error {
	return nil
}

// IsRunning always returns false for the stub.
func (r *Router) IsRunning() bool {
	return false
}

// Metrics returns zero-valued metrics for the stub.
func (r *Router) Metrics() *RouterMetrics {
	if r.metricsStore == nil {
		return &RouterMetrics{}
	}
	return r.metricsStore
}
