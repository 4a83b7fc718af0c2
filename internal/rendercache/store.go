// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package rendercache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"

	"github.com/nilskoch/attentia/internal/config"
	"github.com/nilskoch/attentia/internal/logging"
	"github.com/nilskoch/attentia/internal/metrics"
)

// keyPrefix namespaces render entries so future entry types can share the DB.
const keyPrefix = "viz:"

// keyHashLen is the number of hex characters kept from the SHA-256 digest.
// 16 hex chars (64 bits) keeps keys short while making collisions between
// distinct (model, text, view) triples practically impossible.
const keyHashLen = 16

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("render cache closed")

// Entry is the cached result of a render call. The HTML payload dominates
// the value size; the metadata rides along so cache hits can populate a
// Visualization without re-tokenizing.
type Entry struct {
	HTML       string    `json:"html"`
	TokenCount int       `json:"token_count"`
	Truncated  bool      `json:"truncated"`
	ModelName  string    `json:"model_name"`
	ViewType   string    `json:"view_type"`
	RenderedAt time.Time `json:"rendered_at"`
}

// Stats is the snapshot served by the cache stats endpoint.
type Stats struct {
	Available   bool    `json:"available"`
	KeysInCache int64   `json:"keys_in_cache"`
	UsedMemory  int64   `json:"used_memory"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
	Evictions   int64   `json:"evictions"`
}

// Store is a BadgerDB-backed persistent render cache.
//
// A nil *Store is valid and behaves as a permanently-missing cache: Get
// always misses, Set is a no-op. Callers therefore never need to branch on
// cache availability. Open returns nil (with a warning logged) when the
// database cannot be opened, mirroring the cache-unavailable degradation
// of the rest of the system.
type Store struct {
	db  *badger.DB
	ttl time.Duration

	mu     sync.RWMutex
	closed bool

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// Open opens (or creates) the render cache at cfg.Path.
//
// Open never fails the caller: any error opening BadgerDB is logged and a
// nil store is returned, leaving rendering fully functional without
// caching. A disabled config also yields nil.
func Open(cfg *config.RenderCacheConfig) *Store {
	if cfg == nil || !cfg.Enabled {
		logging.Info().Msg("Render cache disabled")
		return nil
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts.Compression = options.Snappy
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		logging.Warn().Err(err).Str("path", cfg.Path).
			Msg("Render cache unavailable, continuing without caching")
		return nil
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	logging.Info().
		Str("path", cfg.Path).
		Dur("ttl", ttl).
		Msg("Render cache opened")

	return &Store{db: db, ttl: ttl}
}

// Key derives the cache key for a (model, text, view) triple.
func Key(modelName, inputText, viewType string) string {
	sum := sha256.Sum256([]byte(modelName + ":" + inputText + ":" + viewType))
	return keyPrefix + hex.EncodeToString(sum[:])[:keyHashLen]
}

// Get looks up a cached render. The second return is false on miss,
// expiry, or when the store is nil/closed.
func (s *Store) Get(modelName, inputText, viewType string) (*Entry, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false
	}

	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key(modelName, inputText, viewType)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logging.Warn().Err(err).Msg("Render cache read failed")
		}
		s.misses.Add(1)
		metrics.RecordRenderCacheMiss()
		return nil, false
	}

	s.hits.Add(1)
	metrics.RecordRenderCacheHit()
	return &entry, true
}

// Set stores a rendered result under the derived key with the configured
// TTL. Errors are logged, not returned, since a failed cache write never
// affects the response.
func (s *Store) Set(modelName, inputText, viewType string, entry *Entry) {
	if s == nil || entry == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		logging.Warn().Err(err).Msg("Render cache marshal failed")
		return
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(Key(modelName, inputText, viewType)), data).
			WithTTL(s.ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		logging.Warn().Err(err).Msg("Render cache write failed")
		return
	}

	keys, size := s.sizeLocked()
	metrics.UpdateRenderCacheGauges(keys, size)
}

// Clear drops every cached entry. Used by the admin cache-clear endpoint.
func (s *Store) Clear() error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	dropped := s.keyCountLocked()
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("drop render cache: %w", err)
	}

	s.evictions.Add(dropped)
	metrics.UpdateRenderCacheGauges(0, 0)
	logging.Info().Msg("Render cache cleared")
	return nil
}

// Stats returns a point-in-time snapshot of cache state. A nil store
// reports Available=false with zeroed counters.
func (s *Store) Stats() Stats {
	if s == nil {
		return Stats{Available: false}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Stats{Available: false}
	}

	keys, size := s.sizeLocked()
	hits := s.hits.Load()
	misses := s.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Available:   true,
		KeysInCache: keys,
		UsedMemory:  size,
		Hits:        hits,
		Misses:      misses,
		HitRate:     hitRate,
		Evictions:   s.evictions.Load(),
	}
}

// Available reports whether the cache is open and serving.
func (s *Store) Available() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

// runGC runs BadgerDB value-log garbage collection until no further
// rewrite is possible.
func (s *Store) runGC() error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("render cache GC: %w", err)
		}
		metrics.RenderCacheEvictions.Inc()
		s.evictions.Add(1)
	}
}

// Close shuts the underlying database. Safe on nil stores and idempotent.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// sizeLocked returns the current key count and on-disk footprint
// (LSM + value log). Caller must hold at least the read lock.
func (s *Store) sizeLocked() (keys int64, bytes int64) {
	keys = s.keyCountLocked()
	lsm, vlog := s.db.Size()
	return keys, lsm + vlog
}

// keyCountLocked iterates keys under the viz prefix without prefetching
// values. Entry counts stay small (one per distinct render), so a full
// key scan is cheap.
func (s *Store) keyCountLocked() int64 {
	var count int64
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count
}
