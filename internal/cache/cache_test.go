package cache

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestLRUEviction(t *testing.T) {
	c := NewLRU[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Set("key4", "value4") // over capacity, key1 goes

	if _, found := c.Get("key1"); found {
		t.Error("key1 should have been evicted")
	}
	for _, key := range []string{"key2", "key3", "key4"} {
		if _, found := c.Get(key); !found {
			t.Errorf("%s should still exist", key)
		}
	}
}

func TestLRUEvictionRespectsRecency(t *testing.T) {
	c := NewLRU[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	// Touch key1 so key2 becomes the eviction candidate.
	if _, found := c.Get("key1"); !found {
		t.Fatal("key1 should exist before eviction")
	}
	c.Set("key4", "value4")

	if _, found := c.Get("key2"); found {
		t.Error("key2 should have been evicted")
	}
	if _, found := c.Get("key1"); !found {
		t.Error("key1 should have survived eviction")
	}
}

func TestLRUOverwriteDoesNotGrow(t *testing.T) {
	c := NewLRU[string](3, time.Hour)

	c.Set("key1", "old")
	c.Set("key1", "new")

	if c.Size() != 1 {
		t.Errorf("expected size 1, got %d", c.Size())
	}
	if v, _ := c.Get("key1"); v != "new" {
		t.Errorf("expected overwritten value, got %q", v)
	}
}

func TestLRUTTLExpiration(t *testing.T) {
	c := NewLRU[string](100, 50*time.Millisecond)

	c.Set("key1", "value1")
	if _, found := c.Get("key1"); !found {
		t.Error("key1 should exist immediately")
	}

	time.Sleep(60 * time.Millisecond)

	if _, found := c.Get("key1"); found {
		t.Error("key1 should have expired")
	}
}

func TestLRUCleanExpired(t *testing.T) {
	c := NewLRU[string](100, 50*time.Millisecond)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	time.Sleep(60 * time.Millisecond)

	if removed := c.CleanExpired(); removed != 3 {
		t.Errorf("expected 3 items cleaned, got %d", removed)
	}
	if c.Size() != 0 {
		t.Errorf("expected empty cache after cleanup, got %d items", c.Size())
	}
}

func TestLRUDelete(t *testing.T) {
	c := NewLRU[string](100, time.Hour)

	c.Set("key1", "value1")
	c.Delete("key1")
	c.Delete("missing") // no-op

	if _, found := c.Get("key1"); found {
		t.Error("key1 should be gone after delete")
	}
}

func TestLRUClear(t *testing.T) {
	c := NewLRU[string](100, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Clear()

	if c.Size() != 0 {
		t.Errorf("Size() = %d after Clear, want 0", c.Size())
	}
	c.Set("key3", "value3")
	if _, found := c.Get("key3"); !found {
		t.Error("cache should accept entries after Clear")
	}
}

func TestManagerSweep(t *testing.T) {
	c := NewLRU[string](100, 10*time.Millisecond)
	c.Set("key1", "value1")
	c.Set("key2", "value2")

	m := NewManager(nil)
	m.Register(c)
	m.StartCleanup(20 * time.Millisecond)
	defer m.Stop()

	deadline := time.After(500 * time.Millisecond)
	for c.Size() > 0 {
		select {
		case <-deadline:
			t.Fatalf("sweep did not clean expired entries, %d left", c.Size())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestManagerStopIdempotent(t *testing.T) {
	m := NewManager(nil)
	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop() // second call must not panic

	unstarted := NewManager(nil)
	unstarted.Stop() // must not block
}

func BenchmarkLRU(b *testing.B) {
	c := NewLRU[core.MonthOverview](1000, time.Hour)
	overview := core.MonthOverview{Year: 2025, Month: 1}

	b.ResetTimer()

	// Read-heavy mix, roughly what the month endpoints see.
	for i := 0; i < b.N; i++ {
		key := "bench-key"
		if i%10 == 0 {
			c.Set(key, overview)
		} else {
			c.Get(key)
		}
	}
}

func BenchmarkLRUCleanExpired(b *testing.B) {
	c := NewLRU[string](1000, time.Nanosecond)
	for i := 0; i < 100; i++ {
		c.Set("key", "value")
	}
	time.Sleep(time.Millisecond)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		c.CleanExpired()
	}
}
