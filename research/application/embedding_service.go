package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	domain "github.com/AzielCF/az-insights/research/domain"
)

// EmbeddingService puts the embedding caches in front of an Embedder.
// Lookups go memory cache, then the shared store (if any), then the
// provider; provider results are written back to both tiers.
type EmbeddingService struct {
	embedder  domain.Embedder
	cache     domain.EmbeddingCache
	shared    domain.SharedEmbeddingStore
	sharedTTL time.Duration

	mu    sync.Mutex
	usage domain.EmbeddingUsage
}

// NewEmbeddingService wires the cache-aside path. shared may be nil.
func NewEmbeddingService(embedder domain.Embedder, cache domain.EmbeddingCache, shared domain.SharedEmbeddingStore, sharedTTL time.Duration) *EmbeddingService {
	return &EmbeddingService{
		embedder:  embedder,
		cache:     cache,
		shared:    shared,
		sharedTTL: sharedTTL,
	}
}

// NormalizeText is the form under which text is embedded and cached.
func NormalizeText(text string) string {
	return strings.TrimSpace(text)
}

// Embed returns the vector for a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per text, in order, with a single provider
// call for all cache misses.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missTexts []string
		missIdx   = map[string][]int{}
	)

	for i, raw := range texts {
		text := NormalizeText(raw)
		if text == "" {
			return nil, fmt.Errorf("cannot embed empty text at position %d", i)
		}

		if vec, ok := s.cache.Get(text); ok {
			out[i] = vec
			continue
		}

		if vec, ok := s.lookupShared(ctx, text); ok {
			s.cache.Put(text, vec)
			out[i] = vec
			continue
		}

		if _, seen := missIdx[text]; !seen {
			missTexts = append(missTexts, text)
		}
		missIdx[text] = append(missIdx[text], i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, usage, err := s.embedder.Embed(ctx, missTexts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d texts with %s: %w", len(missTexts), s.embedder.Model(), err)
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("provider returned %d vectors for %d texts", len(vectors), len(missTexts))
	}
	s.recordUsage(usage)

	dim := s.embedder.Dimensions()
	for i, text := range missTexts {
		vec := vectors[i]
		if dim > 0 && len(vec) != dim {
			return nil, fmt.Errorf("provider returned a %d-dimension vector, expected %d", len(vec), dim)
		}

		s.cache.Put(text, vec)
		s.saveShared(ctx, text, vec)

		for _, idx := range missIdx[text] {
			out[idx] = vec
		}
	}

	logrus.WithFields(logrus.Fields{
		"requested": len(texts),
		"embedded":  len(missTexts),
		"cached":    len(texts) - countIndexes(missIdx),
		"model":     s.embedder.Model(),
	}).Debug("[EMBEDDINGS] Batch resolved")

	return out, nil
}

func (s *EmbeddingService) lookupShared(ctx context.Context, text string) ([]float32, bool) {
	if s.shared == nil {
		return nil, false
	}
	vec, ok, err := s.shared.Get(ctx, text)
	if err != nil {
		logrus.WithError(err).Warn("[EMBEDDINGS] Shared cache lookup failed, falling back to provider")
		return nil, false
	}
	if ok && s.embedder.Dimensions() > 0 && len(vec) != s.embedder.Dimensions() {
		return nil, false
	}
	return vec, ok
}

func (s *EmbeddingService) saveShared(ctx context.Context, text string, vec []float32) {
	if s.shared == nil {
		return
	}
	if err := s.shared.Save(ctx, text, vec, s.sharedTTL); err != nil {
		logrus.WithError(err).Warn("[EMBEDDINGS] Failed to write shared cache")
	}
}

func (s *EmbeddingService) recordUsage(u domain.EmbeddingUsage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = s.usage.Add(u)
}

// Usage is the provider usage accumulated since start or the last reset.
func (s *EmbeddingService) Usage() domain.EmbeddingUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

func (s *EmbeddingService) ResetUsage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = domain.EmbeddingUsage{}
}

func (s *EmbeddingService) CacheStats() domain.EmbeddingCacheStats {
	return s.cache.Stats()
}

// ClearCache empties the memory cache and, when configured, the shared one.
func (s *EmbeddingService) ClearCache(ctx context.Context) (int, error) {
	s.cache.Clear()
	if s.shared == nil {
		return 0, nil
	}
	return s.shared.Clear(ctx)
}

func (s *EmbeddingService) CleanupExpired() int {
	return s.cache.CleanupExpired()
}

func countIndexes(m map[string][]int) int {
	n := 0
	for _, idx := range m {
		n += len(idx)
	}
	return n
}
