// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package inference

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/nilskoch/attentia/internal/logging"
	"github.com/nilskoch/attentia/internal/metrics"
)

// breakerName labels renderer breaker metrics and log lines.
const breakerName = "renderer-sidecar"

// ErrRendererUnavailable is returned when the circuit is open and the
// sidecar is not being attempted at all.
var ErrRendererUnavailable = errors.New("renderer temporarily unavailable")

// CircuitBreakerRenderer wraps a Renderer with circuit breaker
// protection so a dead or wedged sidecar fails requests fast instead of
// tying up handler goroutines for the full render timeout.
//
// The breaker uses real time for its interval and timeout windows. That
// timing governs recovery, not correctness; unit tests exercise the
// wrapped client directly.
type CircuitBreakerRenderer struct {
	renderer Renderer
	cb       *gobreaker.CircuitBreaker[interface{}]
}

// NewCircuitBreakerRenderer wraps renderer with a breaker that:
//   - allows 3 requests in half-open state
//   - resets counts after 1 minute closed
//   - waits 2 minutes before probing an open circuit
//   - opens at a 60% failure rate over at least 10 requests
func NewCircuitBreakerRenderer(renderer Renderer) *CircuitBreakerRenderer {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("Opening renderer circuit")
				return true
			}
			return false
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).
				Msg("Renderer circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerRenderer{renderer: renderer, cb: cb}
}

// execute runs a sidecar call through the breaker and records metrics.
func (r *CircuitBreakerRenderer) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := r.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
			return nil, fmt.Errorf("%w: %v", ErrRendererUnavailable, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	return result, nil
}

// castResult type-casts a breaker result with error checking.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// Health checks sidecar health through the breaker.
func (r *CircuitBreakerRenderer) Health(ctx context.Context) (*SidecarHealth, error) {
	return castResult[SidecarHealth](r.execute(func() (interface{}, error) {
		return r.renderer.Health(ctx)
	}))
}

// Load loads a model through the breaker.
func (r *CircuitBreakerRenderer) Load(ctx context.Context, modelName string) error {
	_, err := r.execute(func() (interface{}, error) {
		return nil, r.renderer.Load(ctx, modelName)
	})
	return err
}

// Unload frees the sidecar's model through the breaker.
func (r *CircuitBreakerRenderer) Unload(ctx context.Context) error {
	_, err := r.execute(func() (interface{}, error) {
		return nil, r.renderer.Unload(ctx)
	})
	return err
}

// Render renders attention HTML through the breaker.
func (r *CircuitBreakerRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	return castResult[RenderResult](r.execute(func() (interface{}, error) {
		return r.renderer.Render(ctx, req)
	}))
}

// State returns the breaker state as a string for the health endpoint.
func (r *CircuitBreakerRenderer) State() string {
	return stateToString(r.cb.State())
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
