package repository

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestMemoryEmbeddingCache_GetMiss(t *testing.T) {
	c := NewMemoryEmbeddingCache(10, time.Hour)

	vec, ok := c.Get("never stored")
	assert.False(t, ok)
	assert.Nil(t, vec)
}

func TestMemoryEmbeddingCache_PutThenGet(t *testing.T) {
	c := NewMemoryEmbeddingCache(10, time.Hour)
	c.Put("hello", []float32{0.1, 0.2, 0.3})

	vec, ok := c.Get("hello")
	require.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 1, c.Size())
}

func TestMemoryEmbeddingCache_EmptyTextIsAValidKey(t *testing.T) {
	c := NewMemoryEmbeddingCache(10, time.Hour)
	c.Put("", []float32{1})

	vec, ok := c.Get("")
	require.True(t, ok)
	assert.Equal(t, []float32{1}, vec)
}

func TestMemoryEmbeddingCache_ReturnsCopies(t *testing.T) {
	c := NewMemoryEmbeddingCache(10, time.Hour)
	input := []float32{1, 2}
	c.Put("k", input)
	input[0] = 100

	vec, _ := c.Get("k")
	assert.Equal(t, float32(1), vec[0])

	vec[1] = 200
	again, _ := c.Get("k")
	assert.Equal(t, float32(2), again[1])
}

func TestMemoryEmbeddingCache_CapacityInvariant(t *testing.T) {
	const maxSize = 5
	c := NewMemoryEmbeddingCache(maxSize, time.Hour)

	for i := 0; i < 50; i++ {
		c.Put(fmt.Sprintf("text-%d", i), []float32{float32(i)})
		assert.LessOrEqual(t, c.Size(), maxSize)
	}
	assert.Equal(t, maxSize, c.Size())
	assert.Equal(t, int64(45), c.Stats().Evictions)
}

func TestMemoryEmbeddingCache_LRURefreshOnGet(t *testing.T) {
	c := NewMemoryEmbeddingCache(2, time.Hour)
	c.Put("a", []float32{1})
	c.Put("b", []float32{2})

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", []float32{3})

	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestMemoryEmbeddingCache_LRUWithoutAccessEvictsInsertionOrder(t *testing.T) {
	c := NewMemoryEmbeddingCache(2, time.Hour)
	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	c.Put("c", []float32{3})

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestMemoryEmbeddingCache_ReplaceDoesNotEvictOthers(t *testing.T) {
	c := NewMemoryEmbeddingCache(2, time.Hour)
	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	c.Put("a", []float32{10})

	assert.Equal(t, 2, c.Size())
	vec, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []float32{10}, vec)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestMemoryEmbeddingCache_PutRefreshesRecency(t *testing.T) {
	c := NewMemoryEmbeddingCache(2, time.Hour)
	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	c.Put("a", []float32{1})
	c.Put("c", []float32{3})

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestMemoryEmbeddingCache_TTLExpiryOnGet(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryEmbeddingCache(10, time.Hour, WithClock(clock.Now))
	c.Put("x", []float32{1})

	clock.Advance(time.Hour)
	_, ok := c.Get("x")
	assert.True(t, ok, "age equal to ttl is still valid")

	clock.Advance(time.Second)
	_, ok = c.Get("x")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size(), "expired entry is removed by Get")
}

func TestMemoryEmbeddingCache_ZeroTTL(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryEmbeddingCache(10, 0, WithClock(clock.Now))
	c.Put("x", []float32{1})
	clock.Advance(time.Millisecond)

	_, ok := c.Get("x")
	assert.False(t, ok)

	c.Put("y", []float32{2})
	clock.Advance(time.Millisecond)
	assert.Equal(t, 1, c.Size(), "size counts expired entries")
	assert.Equal(t, 1, c.CleanupExpired())
	assert.Equal(t, 0, c.Size())
}

func TestMemoryEmbeddingCache_CleanupExpiredOnlyRemovesOld(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryEmbeddingCache(10, time.Hour, WithClock(clock.Now))
	c.Put("old-1", []float32{1})
	c.Put("old-2", []float32{2})
	clock.Advance(90 * time.Minute)
	c.Put("fresh", []float32{3})

	assert.Equal(t, 2, c.CleanupExpired())
	assert.Equal(t, 1, c.Size())
	_, ok := c.Get("fresh")
	assert.True(t, ok)
	assert.Equal(t, 0, c.CleanupExpired())
}

func TestMemoryEmbeddingCache_GetDoesNotRefreshTTL(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryEmbeddingCache(10, time.Hour, WithClock(clock.Now))
	c.Put("x", []float32{1})

	clock.Advance(50 * time.Minute)
	_, ok := c.Get("x")
	require.True(t, ok)

	clock.Advance(20 * time.Minute)
	_, ok = c.Get("x")
	assert.False(t, ok)
}

func TestMemoryEmbeddingCache_ClearIsIdempotent(t *testing.T) {
	c := NewMemoryEmbeddingCache(10, time.Hour)
	c.Clear()
	assert.Equal(t, 0, c.Size())

	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	c.Clear()
	assert.Equal(t, 0, c.Size())
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestMemoryEmbeddingCache_DegenerateMaxSize(t *testing.T) {
	c := NewMemoryEmbeddingCache(0, time.Hour)
	c.Put("a", []float32{1})
	c.Put("b", []float32{2})

	assert.Equal(t, 1, c.Size())
	_, ok := c.Get("b")
	assert.True(t, ok)
}

func TestMemoryEmbeddingCache_Stats(t *testing.T) {
	c := NewMemoryEmbeddingCache(10, 2*time.Hour)
	c.Put("a", make([]float32, 1536))
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, 10, stats.MaxSize)
	assert.Equal(t, int64(7200), stats.TTLSeconds)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, uint64(64+1536*4), stats.ApproxBytes)
	assert.NotEmpty(t, stats.HumanSize)
	assert.InDelta(t, 0.5, stats.HitRatio(), 0.0001)
}

func TestCacheKey_IsSHA256Hex(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", CacheKey(""))
	assert.Len(t, CacheKey("hello"), 64)
	assert.NotEqual(t, CacheKey("hello"), CacheKey("hello "))
}

func TestMemoryEmbeddingCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryEmbeddingCache(16, time.Hour)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k-%d", (w*7+i)%40)
				c.Put(key, []float32{float32(i)})
				c.Get(key)
				if i%50 == 0 {
					c.CleanupExpired()
				}
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Size(), 16)
}
