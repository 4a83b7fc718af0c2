// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build nats

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"

	"github.com/nilskoch/attentia/internal/cache"
)

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	// Retry configuration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// Throttle configuration (messages per second, 0 = disabled)
	ThrottlePerSecond int64

	// PoisonQueue configuration
	PoisonQueueTopic string

	// Deduplication configuration
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
		ThrottlePerSecond:    0, // Disabled by default
		PoisonQueueTopic:     "dlq.collab",
		DeduplicationEnabled: true,
		DeduplicationTTL:     5 * time.Minute,
	}
}

// Router wraps the Watermill Router with pre-configured middleware.
// It provides automatic Ack/Nack handling, retry logic, panic recovery,
// and poison queue routing for failed messages.
type Router struct {
	router       *message.Router
	config       RouterConfig
	logger       watermill.LoggerAdapter
	poisonPub    message.Publisher
	running      bool
	mu           sync.RWMutex
	handlers     map[string]*message.Handler
	dedupRepo    *InMemoryDeduplicator
	metricsStore *RouterMetrics
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

// InMemoryDeduplicator implements middleware.ExpiringKeyRepository for
// message deduplication. Collaboration events carry a stable EventID minted
// at publish time, so exact-ID deduplication is safe here.
type InMemoryDeduplicator struct {
	seen cache.Cacher
}

// NewInMemoryDeduplicator creates a new in-memory deduplicator.
// Uses an LFU cache with bounded capacity for predictable memory usage.
func NewInMemoryDeduplicator(ttl time.Duration) *InMemoryDeduplicator {
	return &InMemoryDeduplicator{
		seen: cache.NewLFU(10000, ttl),
	}
}

// IsDuplicate checks if a key exists and hasn't expired.
// Returns true if duplicate, false if new.
// Implements middleware.ExpiringKeyRepository interface.
func (d *InMemoryDeduplicator) IsDuplicate(_ context.Context, key string) (bool, error) {
	if _, ok := d.seen.Get(key); ok {
		return true, nil
	}
	d.seen.Set(key, struct{}{})
	return false, nil
}

// NewRouter creates a new Watermill Router with pre-configured middleware.
// The router handles:
//   - Automatic Ack/Nack based on handler success/failure
//   - Panic recovery with stack trace logging
//   - Exponential backoff retry for transient failures
//   - Poison queue routing for permanent failures
//   - Optional rate limiting (throttling)
//   - Event ID deduplication
func NewRouter(
	cfg *RouterConfig,
	poisonPublisher message.Publisher,
	logger watermill.LoggerAdapter,
) (*Router, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	if cfg == nil {
		defaultCfg := DefaultRouterConfig()
		cfg = &defaultCfg
	}

	routerCfg := message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}

	wmRouter, err := message.NewRouter(routerCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{
		router:       wmRouter,
		config:       *cfg,
		logger:       logger,
		poisonPub:    poisonPublisher,
		handlers:     make(map[string]*message.Handler),
		metricsStore: &RouterMetrics{},
	}

	wmRouter.AddPlugin(plugin.SignalsHandler)

	// Middleware order (outer to inner): recoverer, retry, throttle,
	// deduplicator, poison queue.
	wmRouter.AddMiddleware(middleware.Recoverer)

	retryMiddleware := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
	}
	wmRouter.AddMiddleware(retryMiddleware.Middleware)

	if cfg.ThrottlePerSecond > 0 {
		throttle := middleware.NewThrottle(cfg.ThrottlePerSecond, time.Second)
		wmRouter.AddMiddleware(throttle.Middleware)
	}

	if cfg.DeduplicationEnabled {
		r.dedupRepo = NewInMemoryDeduplicator(cfg.DeduplicationTTL)
		dedup := middleware.Deduplicator{
			KeyFactory: func(msg *message.Message) (string, error) {
				return msg.UUID, nil
			},
			Repository: r.dedupRepo,
		}
		wmRouter.AddMiddleware(dedup.Middleware)
	}

	if poisonPublisher != nil && cfg.PoisonQueueTopic != "" {
		poisonQueue, err := middleware.PoisonQueue(poisonPublisher, cfg.PoisonQueueTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	}

	return r, nil
}

// AddHandler registers a handler for processing messages from a topic.
// The handler function should process the message and return any output messages.
// Errors trigger retry logic; permanent failures go to the poison queue.
func (r *Router) AddHandler(
	name string,
	subscribeTopic string,
	subscriber message.Subscriber,
	publishTopic string,
	publisher message.Publisher,
	handler message.HandlerFunc,
) *message.Handler {
	h := r.router.AddHandler(
		name,
		subscribeTopic,
		subscriber,
		publishTopic,
		publisher,
		handler,
	)
	r.mu.Lock()
	r.handlers[name] = h
	r.mu.Unlock()
	return h
}

// AddConsumerHandler registers a handler that doesn't produce output messages.
// This is a convenience wrapper for consumers that only read and process messages.
func (r *Router) AddConsumerHandler(
	name string,
	subscribeTopic string,
	subscriber message.Subscriber,
	handler message.NoPublishHandlerFunc,
) *message.Handler {
	h := r.router.AddConsumerHandler(
		name,
		subscribeTopic,
		subscriber,
		handler,
	)
	r.mu.Lock()
	r.handlers[name] = h
	r.mu.Unlock()
	return h
}

// AddHandlerMiddleware adds middleware to a specific handler.
// Handler-level middleware runs after router-level middleware.
func (r *Router) AddHandlerMiddleware(handlerName string, m ...message.HandlerMiddleware) error {
	r.mu.RLock()
	h, exists := r.handlers[handlerName]
	r.mu.RUnlock()
	if !exists {
		return fmt.Errorf("handler %q not found", handlerName)
	}
	h.AddMiddleware(m...)
	return nil
}

// Run starts the router and blocks until context cancellation or Close().
// All registered handlers begin processing messages.
func (r *Router) Run(ctx context.Context) error {
	r.setRunning(true)
	defer r.setRunning(false)
	return r.router.Run(ctx)
}

// RunAsync starts the router in a goroutine and returns immediately.
// Returns a channel that will be closed when the router is running.
func (r *Router) RunAsync(ctx context.Context) <-chan struct{} {
	running := make(chan struct{})

	go func() {
		go func() {
			r.setRunning(true)
			defer r.setRunning(false)
			if err := r.router.Run(ctx); err != nil {
				r.logger.Error("Router error", err, nil)
			}
		}()

		<-r.router.Running()
		close(running)
	}()

	return running
}

// Running returns a channel that closes when the router is running.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close gracefully stops the router.
// Waits for in-flight messages to complete up to CloseTimeout.
func (r *Router) Close() error {
	return r.router.Close()
}

// IsRunning returns whether the router is currently processing messages.
func (r *Router) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

func (r *Router) setRunning(v bool) {
	r.mu.Lock()
	r.running = v
	r.mu.Unlock()
}

// Metrics returns current router metrics.
func (r *Router) Metrics() *RouterMetrics {
	return r.metricsStore
}

// HealthCheck implements the HealthCheckable interface.
// It reports the router healthy only while it is processing messages.
func (r *Router) HealthCheck(ctx context.Context) ComponentHealth {
	health := ComponentHealth{
		Name:      "router",
		LastCheck: time.Now(),
		Details:   make(map[string]interface{}),
	}

	r.mu.RLock()
	running := r.running
	handlerCount := len(r.handlers)
	r.mu.RUnlock()

	if running {
		health.Healthy = true
		health.Message = "Router is running"
		health.Details["handlers"] = handlerCount
	} else {
		health.Healthy = false
		health.Error = "Router is not running"
	}

	return health
}
