// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build nats

package eventprocessor

import (
	"context"
	"sync"
	"time"
)

// HealthStatusType represents the overall health status.
type HealthStatusType string

const (
	// HealthStatusHealthy indicates all components are functioning normally.
	HealthStatusHealthy HealthStatusType = "healthy"
	// HealthStatusDegraded indicates some components are experiencing issues but still operational.
	HealthStatusDegraded HealthStatusType = "degraded"
	// HealthStatusUnhealthy indicates critical components are failing.
	HealthStatusUnhealthy HealthStatusType = "unhealthy"
)

// HealthConfig holds configuration for health checking.
type HealthConfig struct {
	// Timeout is the maximum time to wait for health checks.
	Timeout time.Duration
	// Interval is how often to run periodic health checks.
	Interval time.Duration
}

// DefaultHealthConfig returns sensible defaults for health checking.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		Timeout:  5 * time.Second,
		Interval: 30 * time.Second,
	}
}

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	// Healthy indicates whether the component is functioning.
	Healthy bool `json:"healthy"`
	// Degraded indicates the component is operational but experiencing issues.
	Degraded bool `json:"degraded,omitempty"`
	// Name is the component identifier.
	Name string `json:"name"`
	// Message provides additional context about the health status.
	Message string `json:"message,omitempty"`
	// Error contains error details if unhealthy.
	Error string `json:"error,omitempty"`
	// LastCheck is when the health check was performed.
	LastCheck time.Time `json:"last_check"`
	// Details contains component-specific health information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthCheckable is implemented by components that support health checking.
type HealthCheckable interface {
	// HealthCheck performs a health check and returns the result.
	HealthCheck(ctx context.Context) ComponentHealth
}

// OverallHealth represents the aggregated health status of all components.
type OverallHealth struct {
	// Healthy indicates whether all critical components are healthy.
	Healthy bool `json:"healthy"`
	// Status is the overall health status.
	Status HealthStatusType `json:"status"`
	// Timestamp is when this health check was performed.
	Timestamp time.Time `json:"timestamp"`
	// Components contains individual component health.
	Components map[string]ComponentHealth `json:"components"`
}

// HealthChecker manages health checks for multiple components.
type HealthChecker struct {
	config     HealthConfig
	mu         sync.RWMutex
	components map[string]HealthCheckable
	last       OverallHealth
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker(cfg HealthConfig) *HealthChecker {
	return &HealthChecker{
		config:     cfg,
		components: make(map[string]HealthCheckable),
	}
}

// RegisterComponent registers a component for health checking.
func (h *HealthChecker) RegisterComponent(name string, component HealthCheckable) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[name] = component
}

// UnregisterComponent removes a component from health checking.
func (h *HealthChecker) UnregisterComponent(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.components, name)
}

// CheckAll performs health checks on all registered components.
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	h.mu.RLock()
	componentsCopy := make(map[string]HealthCheckable, len(h.components))
	for name, comp := range h.components {
		componentsCopy[name] = comp
	}
	h.mu.RUnlock()

	overall := OverallHealth{
		Healthy:    true,
		Status:     HealthStatusHealthy,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth, len(componentsCopy)),
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	degraded := false
	for name, comp := range componentsCopy {
		health := comp.HealthCheck(checkCtx)
		overall.Components[name] = health

		if !health.Healthy {
			overall.Healthy = false
		} else if health.Degraded {
			degraded = true
		}
	}

	switch {
	case !overall.Healthy:
		overall.Status = HealthStatusUnhealthy
	case degraded:
		overall.Status = HealthStatusDegraded
	}

	h.mu.Lock()
	h.last = overall
	h.mu.Unlock()

	return overall
}

// LastResult returns the most recent health check result.
// Returns a zero-value OverallHealth if CheckAll has never run.
func (h *HealthChecker) LastResult() OverallHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

// StartPeriodicChecks runs CheckAll on the configured interval until the
// context is canceled. Blocks; run in a goroutine.
func (h *HealthChecker) StartPeriodicChecks(ctx context.Context) {
	ticker := time.NewTicker(h.config.Interval)
	defer ticker.Stop()

	h.CheckAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.CheckAll(ctx)
		}
	}
}

// ConnFunc adapts a function to the HealthCheckable interface.
type ConnFunc func(ctx context.Context) ComponentHealth

// HealthCheck implements HealthCheckable.
func (f ConnFunc) HealthCheck(ctx context.Context) ComponentHealth {
	return f(ctx)
}
