// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// decisionsTotal counts authorization decisions by subject role,
	// action, and outcome.
	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attentia_authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"role", "action", "decision"},
	)

	// decisionDuration tracks the latency of authorization decisions.
	// Buckets span microseconds to milliseconds since most checks are
	// served from the decision cache.
	decisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "attentia_authz_decision_duration_seconds",
			Help:    "Duration of authorization decisions in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"cache_hit"},
	)

	// denialsTotal tracks denied requests for alerting.
	denialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attentia_authz_denials_total",
			Help: "Total number of denied authorization requests",
		},
		[]string{"role", "action"},
	)

	cacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attentia_authz_cache_hits_total",
			Help: "Total number of authorization cache hits",
		},
	)

	cacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attentia_authz_cache_misses_total",
			Help: "Total number of authorization cache misses",
		},
	)
)

// RecordDecision records an authorization decision with its latency.
func RecordDecision(role, action string, allowed bool, duration time.Duration, cacheHit bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	decisionsTotal.WithLabelValues(role, action, decision).Inc()

	hit := "false"
	if cacheHit {
		hit = "true"
	}
	decisionDuration.WithLabelValues(hit).Observe(duration.Seconds())
}

// RecordDenial records a denied request.
func RecordDenial(role, action string) {
	denialsTotal.WithLabelValues(role, action).Inc()
}

// RecordCacheHit records an authorization cache hit.
func RecordCacheHit() {
	cacheHitsTotal.Inc()
}

// RecordCacheMiss records an authorization cache miss.
func RecordCacheMiss() {
	cacheMissesTotal.Inc()
}
