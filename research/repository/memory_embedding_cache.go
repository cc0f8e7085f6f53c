package repository

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	domain "github.com/AzielCF/az-insights/research/domain"
)

const (
	DefaultEmbeddingCacheSize = 1000
	DefaultEmbeddingCacheTTL  = 24 * time.Hour
)

type embeddingCacheEntry struct {
	key        string
	vector     []float32
	insertedAt time.Time
}

// MemoryEmbeddingCache is a bounded LRU cache of embedding vectors keyed by
// the SHA-256 of the input text. Entries older than the TTL are treated as
// absent and removed lazily on Get, or eagerly by CleanupExpired.
type MemoryEmbeddingCache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	// front = most recently used
	order   *list.List
	entries map[string]*list.Element

	hits        int64
	misses      int64
	evictions   int64
	expirations int64
}

type MemoryEmbeddingCacheOption func(*MemoryEmbeddingCache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) MemoryEmbeddingCacheOption {
	return func(c *MemoryEmbeddingCache) {
		c.now = now
	}
}

// NewMemoryEmbeddingCache creates a cache holding at most maxSize vectors.
// A maxSize below 1 is raised to 1; a negative ttl is treated as zero.
func NewMemoryEmbeddingCache(maxSize int, ttl time.Duration, opts ...MemoryEmbeddingCacheOption) *MemoryEmbeddingCache {
	if maxSize < 1 {
		maxSize = 1
	}
	if ttl < 0 {
		ttl = 0
	}
	c := &MemoryEmbeddingCache{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheKey is the hex SHA-256 digest of the text's UTF-8 bytes.
func CacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (c *MemoryEmbeddingCache) expired(e *embeddingCacheEntry, now time.Time) bool {
	return now.Sub(e.insertedAt) > c.ttl
}

// Get returns a copy of the cached vector for text.
func (c *MemoryEmbeddingCache) Get(text string) ([]float32, bool) {
	key := CacheKey(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	entry := elem.Value.(*embeddingCacheEntry)
	if c.expired(entry, c.now()) {
		c.removeElement(elem)
		c.expirations++
		c.misses++
		return nil, false
	}

	c.order.MoveToFront(elem)
	c.hits++
	return copyVector(entry.vector), true
}

// Put stores vector for text as the most recently used entry. It evicts
// least recently used entries first when the cache is full, so the new
// entry is never evicted to make room for itself.
func (c *MemoryEmbeddingCache) Put(text string, vector []float32) {
	key := CacheKey(text)
	entry := &embeddingCacheEntry{
		key:    key,
		vector: copyVector(vector),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry.insertedAt = c.now()

	if elem, ok := c.entries[key]; ok {
		c.removeElement(elem)
	}

	for c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
		c.evictions++
	}

	c.entries[key] = c.order.PushFront(entry)
}

// Clear removes every entry.
func (c *MemoryEmbeddingCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.entries = make(map[string]*list.Element)
}

// Size counts stored entries, including expired ones not yet swept.
func (c *MemoryEmbeddingCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// CleanupExpired removes every expired entry and returns how many it removed.
func (c *MemoryEmbeddingCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if c.expired(elem.Value.(*embeddingCacheEntry), now) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}
	c.expirations += int64(removed)

	if removed > 0 {
		logrus.Debugf("[EMBED_CACHE] Removed %d expired embeddings, %d remain", removed, c.order.Len())
	}
	return removed
}

// Stats returns counters and an approximate memory footprint.
func (c *MemoryEmbeddingCache) Stats() domain.EmbeddingCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var bytes uint64
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		e := elem.Value.(*embeddingCacheEntry)
		bytes += uint64(len(e.key)) + uint64(len(e.vector))*4
	}

	return domain.EmbeddingCacheStats{
		Size:        c.order.Len(),
		MaxSize:     c.maxSize,
		TTLSeconds:  int64(c.ttl / time.Second),
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
		ApproxBytes: bytes,
		HumanSize:   humanize.Bytes(bytes),
	}
}

// StartCleanupLoop sweeps expired entries every interval until stop is closed.
func (c *MemoryEmbeddingCache) StartCleanupLoop(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.CleanupExpired()
			}
		}
	}()
}

func (c *MemoryEmbeddingCache) removeElement(elem *list.Element) {
	entry := c.order.Remove(elem).(*embeddingCacheEntry)
	delete(c.entries, entry.key)
}

func copyVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	dst := make([]float32, len(v))
	copy(dst, v)
	return dst
}
