// SPDX-License-Identifier: GPL-3.0-only

package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryCacheGetMiss(t *testing.T) {
	m := NewMemoryCache()

	if _, err := m.Get(context.Background(), "absent"); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheSetAndGet(t *testing.T) {
	m := NewMemoryCache()
	ctx := context.Background()

	if err := m.SetWithTTL(ctx, "k", 42, time.Minute); err != nil {
		t.Fatalf("SetWithTTL failed: %v", err)
	}

	value, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != 42 {
		t.Errorf("Expected 42, got %d", value)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	m := NewMemoryCache()
	ctx := context.Background()

	if err := m.SetWithTTL(ctx, "k", 1, 10*time.Millisecond); err != nil {
		t.Fatalf("SetWithTTL failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, err := m.Get(ctx, "k"); err != ErrCacheMiss {
		t.Errorf("Expired entry should miss, got %v", err)
	}
}

func TestMemoryCacheIncrement(t *testing.T) {
	m := NewMemoryCache()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		count, err := m.Increment(ctx, "counter", time.Minute)
		if err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
		if count != i {
			t.Errorf("Expected %d, got %d", i, count)
		}
	}
}

func TestMemoryCacheIncrementKeepsOriginalTTL(t *testing.T) {
	m := NewMemoryCache()
	ctx := context.Background()

	if _, err := m.Increment(ctx, "counter", 50*time.Millisecond); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	// A later increment must not extend the expiry set on first write.
	if _, err := m.Increment(ctx, "counter", time.Hour); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	ttl, err := m.TTL(ctx, "counter")
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl > 50*time.Millisecond {
		t.Errorf("TTL should not be extended by later increments, got %v", ttl)
	}
}

func TestMemoryCacheIncrementAfterExpiryRestarts(t *testing.T) {
	m := NewMemoryCache()
	ctx := context.Background()

	if _, err := m.Increment(ctx, "counter", 10*time.Millisecond); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	count, err := m.Increment(ctx, "counter", time.Minute)
	if err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Counter should restart at 1 after expiry, got %d", count)
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	m := NewMemoryCache()
	ctx := context.Background()

	if err := m.SetWithTTL(ctx, "k", 1, time.Minute); err != nil {
		t.Fatalf("SetWithTTL failed: %v", err)
	}
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := m.Get(ctx, "k"); err != ErrCacheMiss {
		t.Errorf("Deleted entry should miss, got %v", err)
	}
	if err := m.Delete(ctx, "absent"); err != nil {
		t.Errorf("Deleting an absent key should succeed: %v", err)
	}
}

func TestMemoryCacheConcurrentIncrements(t *testing.T) {
	m := NewMemoryCache()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Increment(ctx, "counter", time.Minute); err != nil {
				t.Errorf("Increment failed: %v", err)
			}
		}()
	}
	wg.Wait()

	count, err := m.Get(ctx, "counter")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if count != 200 {
		t.Errorf("Expected 200 after concurrent increments, got %d", count)
	}
}
