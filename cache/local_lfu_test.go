package cache

import (
	"testing"
	"time"
)

func newTestLFUCache(t *testing.T) *LFUCache {
	t.Helper()
	cache, err := NewLFUCache(DefaultLocalCacheConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	t.Cleanup(cache.Close)
	return cache
}

func TestLFUCacheNew(t *testing.T) {
	cache := newTestLFUCache(t)
	if cache == nil {
		t.Fatal("Cache should not be nil")
	}
}

func TestLFUCacheNewInvalidConfig(t *testing.T) {
	_, err := NewLFUCache(LocalCacheConfig{})
	if err == nil {
		t.Fatal("Expected error for zero NumCounters")
	}
}

func TestLFUCacheGet(t *testing.T) {
	cache := newTestLFUCache(t)

	if !cache.Set("ann:ann-1", "value1", 0) {
		t.Fatal("Set should be accepted")
	}
	cache.Wait()

	value, found := cache.Get("ann:ann-1")
	if !found {
		t.Fatal("Value should be found")
	}
	if value != "value1" {
		t.Fatalf("Expected 'value1', got %v", value)
	}
}

func TestLFUCacheTTLExpiry(t *testing.T) {
	cache := newTestLFUCache(t)

	cache.Set("ann:ann-1", "value1", 50*time.Millisecond)
	cache.Wait()
	time.Sleep(100 * time.Millisecond)

	if _, found := cache.Get("ann:ann-1"); found {
		t.Fatal("Value should expire after its TTL")
	}
}

func TestLFUCacheDeleteIsIdempotent(t *testing.T) {
	cache := newTestLFUCache(t)

	cache.Set("ann:ann-1", "value1", 0)
	cache.Wait()
	cache.Delete("ann:ann-1")
	cache.Delete("ann:ann-1")

	if _, found := cache.Get("ann:ann-1"); found {
		t.Fatal("Value should not be found after deletion")
	}
}

func TestLFUCacheClear(t *testing.T) {
	cache := newTestLFUCache(t)

	cache.Set("key1", "value1", 0)
	cache.Set("key2", "value2", 0)
	cache.Wait()
	cache.Clear()

	_, found1 := cache.Get("key1")
	_, found2 := cache.Get("key2")
	if found1 || found2 {
		t.Fatal("Cache should be empty after clear")
	}
}

func TestLFUCacheMetrics(t *testing.T) {
	cache := newTestLFUCache(t)

	cache.Set("key1", "value1", 0)
	cache.Wait()
	cache.Get("key1") // Hit
	cache.Get("key2") // Miss

	metrics := cache.Metrics()
	if metrics.Hits != 1 {
		t.Fatalf("Expected 1 hit, got %d", metrics.Hits)
	}
	if metrics.Misses != 1 {
		t.Fatalf("Expected 1 miss, got %d", metrics.Misses)
	}
}

func TestLFUCacheFactory(t *testing.T) {
	factory := NewLFUCacheFactory(DefaultLocalCacheConfig())

	cache, err := factory.Create()
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	if _, ok := cache.(*LFUCache); !ok {
		t.Fatalf("Expected *LFUCache, got %T", cache)
	}
}
