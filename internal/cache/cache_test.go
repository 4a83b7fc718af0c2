// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCacheBasicOperations(t *testing.T) {
	c := New(1 * time.Minute)

	// Test Set and Get
	c.Set("annotations:abc", "value1")
	value, exists := c.Get("annotations:abc")
	if !exists {
		t.Error("Expected key to exist")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	// Test non-existent key
	_, exists = c.Get("annotations:missing")
	if exists {
		t.Error("Expected missing key to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	c := New(100 * time.Millisecond)

	c.Set("key1", "value1")

	// Value should exist immediately
	_, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist immediately after set")
	}

	// Wait for expiration
	time.Sleep(150 * time.Millisecond)

	// Value should be expired
	_, exists = c.Get("key1")
	if exists {
		t.Error("Expected key1 to be expired")
	}
}

func TestCacheDelete(t *testing.T) {
	c := New(1 * time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	_, exists := c.Get("key1")
	if exists {
		t.Error("Expected key1 to be deleted")
	}
}

func TestCacheClear(t *testing.T) {
	c := New(1 * time.Minute)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	c.Clear()

	for _, key := range []string{"key1", "key2", "key3"} {
		_, exists := c.Get(key)
		if exists {
			t.Errorf("Expected %s to be cleared", key)
		}
	}
}

func TestCacheStats(t *testing.T) {
	c := New(1 * time.Minute)

	c.Set("key1", "value1")
	c.Get("key1") // hit
	c.Get("key2") // miss
	c.Get("key1") // hit

	stats := c.GetStats()

	if stats.Hits != 2 {
		t.Errorf("Expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}

	hitRate := c.HitRate()
	expectedHitRate := 66.66666666666667 // 2/3 * 100
	if hitRate < expectedHitRate-0.01 || hitRate > expectedHitRate+0.01 {
		t.Errorf("Expected hit rate around %.2f%%, got %.2f%%", expectedHitRate, hitRate)
	}
}

func TestCacheSetWithTTL(t *testing.T) {
	c := New(1 * time.Minute)

	// Set with short TTL overriding the long default
	c.SetWithTTL("key1", "value1", 100*time.Millisecond)

	_, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist")
	}

	time.Sleep(150 * time.Millisecond)

	_, exists = c.Get("key1")
	if exists {
		t.Error("Expected key1 to be expired")
	}
}

func TestGenerateKey(t *testing.T) {
	type listParams struct {
		UserID string
		Limit  int
		Cursor string
	}

	params1 := listParams{UserID: "u1", Limit: 20, Cursor: ""}
	params2 := listParams{UserID: "u1", Limit: 20, Cursor: ""}
	params3 := listParams{UserID: "u2", Limit: 20, Cursor: ""}

	key1 := GenerateKey("viz:list", params1)
	key2 := GenerateKey("viz:list", params2)
	key3 := GenerateKey("viz:list", params3)

	if key1 != key2 {
		t.Errorf("Equal params should produce equal keys: %s != %s", key1, key2)
	}
	if key1 == key3 {
		t.Error("Different params should produce different keys")
	}
	if key1 == GenerateKey("annotations", params1) {
		t.Error("Different endpoints should produce different keys")
	}
}

func TestGenerateKeyNilParams(t *testing.T) {
	key := GenerateKey("stats:records", nil)
	if key == "" {
		t.Error("Expected non-empty key for nil params")
	}
}

func TestCacheConcurrency(t *testing.T) {
	c := New(1 * time.Minute)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key%d", n%10)
			c.Set(key, n)
			c.Get(key)
			if n%5 == 0 {
				c.Delete(key)
			}
		}(i)
	}

	wg.Wait()
}

func TestCacheManualCleanup(t *testing.T) {
	c := New(1 * time.Minute)

	c.SetWithTTL("expired1", "v", 1*time.Millisecond)
	c.SetWithTTL("expired2", "v", 1*time.Millisecond)
	c.Set("alive", "v")

	time.Sleep(10 * time.Millisecond)
	c.cleanup()

	stats := c.GetStats()
	if stats.TotalKeys != 1 {
		t.Errorf("Expected 1 key after cleanup, got %d", stats.TotalKeys)
	}
	if stats.Evictions != 2 {
		t.Errorf("Expected 2 evictions, got %d", stats.Evictions)
	}

	_, exists := c.Get("alive")
	if !exists {
		t.Error("Expected unexpired key to survive cleanup")
	}
}

func TestCacheHitRateZeroOperations(t *testing.T) {
	c := New(1 * time.Minute)

	if rate := c.HitRate(); rate != 0.0 {
		t.Errorf("Expected 0.0 hit rate with no operations, got %f", rate)
	}
}

func TestCacheEntryOverwrite(t *testing.T) {
	c := New(1 * time.Minute)

	c.Set("key", "first")
	c.Set("key", "second")

	value, exists := c.Get("key")
	if !exists {
		t.Fatal("Expected key to exist")
	}
	if value != "second" {
		t.Errorf("Expected overwritten value, got %v", value)
	}

	stats := c.GetStats()
	if stats.TotalKeys != 1 {
		t.Errorf("Expected 1 key after overwrite, got %d", stats.TotalKeys)
	}
}

func BenchmarkCacheSet(b *testing.B) {
	c := New(5 * time.Minute)
	for i := 0; i < b.N; i++ {
		c.Set(fmt.Sprintf("key%d", i%1000), i)
	}
}

func BenchmarkCacheGet(b *testing.B) {
	c := New(5 * time.Minute)
	c.Set("key", "value")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key")
	}
}
