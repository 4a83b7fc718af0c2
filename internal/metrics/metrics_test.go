// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package metrics

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordDBQuery tests database query metric recording
func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		table     string
		duration  time.Duration
		err       error
	}{
		{
			name:      "successful SELECT query",
			operation: "SELECT",
			table:     "visualizations",
			duration:  10 * time.Millisecond,
			err:       nil,
		},
		{
			name:      "successful INSERT query",
			operation: "INSERT",
			table:     "annotations",
			duration:  5 * time.Millisecond,
			err:       nil,
		},
		{
			name:      "failed query with short error",
			operation: "UPDATE",
			table:     "users",
			duration:  100 * time.Millisecond,
			err:       errors.New("connection refused"),
		},
		{
			name:      "failed query with long error - should truncate to 50 chars",
			operation: "DELETE",
			table:     "audit_events",
			duration:  50 * time.Millisecond,
			err:       errors.New("this is a very long error message that exceeds fifty characters and should be truncated properly"),
		},
		{
			name:      "slow query over 5 seconds",
			operation: "SELECT",
			table:     "visualizations",
			duration:  5500 * time.Millisecond,
			err:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Record the query - should not panic
			RecordDBQuery(tt.operation, tt.table, tt.duration, tt.err)
		})
	}
}

// TestRecordDBQuery_ErrorTruncation verifies error messages are truncated at 50 chars
func TestRecordDBQuery_ErrorTruncation(t *testing.T) {
	err50 := errors.New(strings.Repeat("a", 50))
	RecordDBQuery("SELECT", "test", time.Millisecond, err50)

	err51 := errors.New(strings.Repeat("b", 51))
	RecordDBQuery("SELECT", "test", time.Millisecond, err51)

	err100 := errors.New(strings.Repeat("c", 100))
	RecordDBQuery("SELECT", "test", time.Millisecond, err100)

	errShort := errors.New("err")
	RecordDBQuery("SELECT", "test", time.Millisecond, errShort)
}

// TestRecordAPIRequest tests API request metric recording
func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		endpoint   string
		statusCode string
		duration   time.Duration
	}{
		{
			name:       "successful GET request",
			method:     "GET",
			endpoint:   "/api/v1/visualizations",
			statusCode: "200",
			duration:   25 * time.Millisecond,
		},
		{
			name:       "successful POST login",
			method:     "POST",
			endpoint:   "/api/v1/auth/login",
			statusCode: "200",
			duration:   150 * time.Millisecond,
		},
		{
			name:       "unauthorized request",
			method:     "GET",
			endpoint:   "/api/v1/auth/me",
			statusCode: "401",
			duration:   5 * time.Millisecond,
		},
		{
			name:       "not found request",
			method:     "GET",
			endpoint:   "/api/v1/unknown",
			statusCode: "404",
			duration:   2 * time.Millisecond,
		},
		{
			name:       "rate limited visualize request",
			method:     "POST",
			endpoint:   "/visualize",
			statusCode: "429",
			duration:   1 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordAPIRequest(tt.method, tt.endpoint, tt.statusCode, tt.duration)
		})
	}
}

// TestRecordRender tests render metric recording across outcomes
func TestRecordRender(t *testing.T) {
	tests := []struct {
		name     string
		viewType string
		duration time.Duration
		cacheHit bool
		err      error
	}{
		{"successful head view render", "head_view", 2 * time.Second, false, nil},
		{"cached model view render", "model_view", 5 * time.Millisecond, true, nil},
		{"failed render", "head_view", 30 * time.Second, false, errors.New("renderer unavailable")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordRender(tt.viewType, tt.duration, tt.cacheHit, tt.err)
		})
	}
}

func TestRecordRenderRejected(t *testing.T) {
	before := testutil.CollectAndCount(RendersTotal)
	RecordRenderRejected("head_view")
	after := testutil.CollectAndCount(RendersTotal)
	if after < before {
		t.Errorf("RendersTotal series count decreased: %d -> %d", before, after)
	}
}

func TestRecordRenderedInput(t *testing.T) {
	truncationsBefore := testutil.ToFloat64(RenderedInputTruncations)

	RecordRenderedInput(12, false)
	RecordRenderedInput(128, true)

	truncationsAfter := testutil.ToFloat64(RenderedInputTruncations)
	if truncationsAfter != truncationsBefore+1 {
		t.Errorf("truncations = %v, want %v", truncationsAfter, truncationsBefore+1)
	}
}

// TestModelSessionMetrics verifies the loaded gauge follows load/unload
func TestModelSessionMetrics(t *testing.T) {
	RecordModelLoad(30*time.Second, nil)
	if got := testutil.ToFloat64(ModelLoaded); got != 1 {
		t.Errorf("ModelLoaded after load = %v, want 1", got)
	}

	RecordModelUnload()
	if got := testutil.ToFloat64(ModelLoaded); got != 0 {
		t.Errorf("ModelLoaded after unload = %v, want 0", got)
	}

	// Failed loads must not flip the gauge
	RecordModelLoad(time.Second, errors.New("out of memory"))
	if got := testutil.ToFloat64(ModelLoaded); got != 0 {
		t.Errorf("ModelLoaded after failed load = %v, want 0", got)
	}

	RecordModelRejection("too_large")
	RecordModelRejection("gated")
}

func TestRenderCacheMetrics(t *testing.T) {
	hitsBefore := testutil.ToFloat64(RenderCacheHits)
	missesBefore := testutil.ToFloat64(RenderCacheMisses)

	RecordRenderCacheHit()
	RecordRenderCacheHit()
	RecordRenderCacheMiss()

	if got := testutil.ToFloat64(RenderCacheHits); got != hitsBefore+2 {
		t.Errorf("hits = %v, want %v", got, hitsBefore+2)
	}
	if got := testutil.ToFloat64(RenderCacheMisses); got != missesBefore+1 {
		t.Errorf("misses = %v, want %v", got, missesBefore+1)
	}

	UpdateRenderCacheGauges(42, 1024*1024)
	if got := testutil.ToFloat64(RenderCacheKeys); got != 42 {
		t.Errorf("keys gauge = %v, want 42", got)
	}
	if got := testutil.ToFloat64(RenderCacheBytes); got != 1024*1024 {
		t.Errorf("bytes gauge = %v, want %v", got, 1024*1024)
	}
}

func TestShareMetrics(t *testing.T) {
	createdBefore := testutil.ToFloat64(ShareTokensCreated)
	accessBefore := testutil.ToFloat64(ShareTokenAccess)

	RecordShareTokenCreated()
	RecordShareAccess()
	RecordShareAccess()

	if got := testutil.ToFloat64(ShareTokensCreated); got != createdBefore+1 {
		t.Errorf("created = %v, want %v", got, createdBefore+1)
	}
	if got := testutil.ToFloat64(ShareTokenAccess); got != accessBefore+2 {
		t.Errorf("access = %v, want %v", got, accessBefore+2)
	}
}

// TestTrackActiveRequest verifies the active request gauge moves both ways
func TestTrackActiveRequest(t *testing.T) {
	base := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != base+2 {
		t.Errorf("active = %v, want %v", got, base+2)
	}

	TrackActiveRequest(false)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != base {
		t.Errorf("active = %v, want %v", got, base)
	}
}

// TestMetrics_ConcurrentAccess verifies recording is safe under concurrency
func TestMetrics_ConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				RecordAPIRequest("GET", "/api/v1/visualizations", "200", time.Millisecond)
				RecordDBQuery("SELECT", "visualizations", time.Millisecond, nil)
				RecordRenderCacheHit()
				RecordNATSPublish()
				RecordNATSConsume()
				RecordNATSProcessingDuration(time.Millisecond)
			}
		}()
	}
	wg.Wait()
}
