// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package rendercache

import (
	"context"
	"errors"
	"time"

	"github.com/nilskoch/attentia/internal/logging"
	"github.com/nilskoch/attentia/internal/metrics"
)

// GCService runs periodic value-log garbage collection on the render
// cache. It implements suture.Service and is registered under the
// background-services supervisor branch.
type GCService struct {
	store    *Store
	interval time.Duration
}

// NewGCService creates the GC service. A nil store produces a service
// that idles until canceled, so supervisor wiring never needs a branch.
func NewGCService(store *Store, interval time.Duration) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{store: store, interval: interval}
}

// Serve implements suture.Service. Blocks until ctx is canceled.
func (g *GCService) Serve(ctx context.Context) error {
	if g.store == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	logging.Info().Dur("interval", g.interval).Msg("Render cache GC started")

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Render cache GC stopped")
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := g.store.runGC(); err != nil {
				if errors.Is(err, ErrClosed) {
					return nil
				}
				logging.Warn().Err(err).Msg("Render cache GC error")
				continue
			}
			keys, size := func() (int64, int64) {
				g.store.mu.RLock()
				defer g.store.mu.RUnlock()
				if g.store.closed {
					return 0, 0
				}
				return g.store.sizeLocked()
			}()
			metrics.UpdateRenderCacheGauges(keys, size)
			logging.Debug().
				Dur("duration", time.Since(start)).
				Int64("keys", keys).
				Int64("bytes", size).
				Msg("Render cache GC pass complete")
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (g *GCService) String() string {
	return "render-cache-gc"
}
