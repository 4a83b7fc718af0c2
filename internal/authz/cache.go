// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package authz

import (
	"strings"
	"sync"
	"time"
)

// decisionCache caches authorization decisions by subject:object:action.
type decisionCache struct {
	ttl      time.Duration
	mu       sync.RWMutex
	items    map[string]*cachedDecision
	stopChan chan struct{}
	stopOnce sync.Once
}

type cachedDecision struct {
	allowed   bool
	expiresAt time.Time
}

func newDecisionCache(ttl time.Duration) *decisionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &decisionCache{
		ttl:      ttl,
		items:    make(map[string]*cachedDecision),
		stopChan: make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func decisionKey(subject, object, action string) string {
	return subject + ":" + object + ":" + action
}

func (c *decisionCache) get(subject, object, action string) (allowed, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[decisionKey(subject, object, action)]
	if !found || time.Now().After(item.expiresAt) {
		return false, false
	}
	return item.allowed, true
}

func (c *decisionCache) set(subject, object, action string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[decisionKey(subject, object, action)] = &cachedDecision{
		allowed:   allowed,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// invalidateSubject removes all cached decisions for a subject,
// e.g. after a role change.
func (c *decisionCache) invalidateSubject(subject string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := subject + ":"
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

func (c *decisionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*cachedDecision)
}

func (c *decisionCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *decisionCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// stop terminates the cleanup goroutine. Safe to call multiple times.
func (c *decisionCache) stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
