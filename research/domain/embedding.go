package domain

import (
	"context"
	"time"
)

// EmbeddingUsage is the token accounting reported by an embedding provider.
type EmbeddingUsage struct {
	Model        string `json:"model"`
	PromptTokens int    `json:"prompt_tokens"`
	TotalTokens  int    `json:"total_tokens"`
	Requests     int    `json:"requests"`
}

func (u EmbeddingUsage) Add(other EmbeddingUsage) EmbeddingUsage {
	if u.Model == "" {
		u.Model = other.Model
	}
	u.PromptTokens += other.PromptTokens
	u.TotalTokens += other.TotalTokens
	u.Requests += other.Requests
	return u
}

// Embedder turns texts into fixed-length vectors. Implementations return one
// vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, EmbeddingUsage, error)
	Dimensions() int
	Model() string
}

// EmbeddingCache is the in-process, bounded cache placed in front of an
// Embedder. Put is best effort: it cannot fail and never reports an error.
type EmbeddingCache interface {
	Get(text string) ([]float32, bool)
	Put(text string, vector []float32)
	Clear()
	Size() int
	CleanupExpired() int
	Stats() EmbeddingCacheStats
}

// SharedEmbeddingStore is an optional second tier shared between processes.
type SharedEmbeddingStore interface {
	Get(ctx context.Context, text string) ([]float32, bool, error)
	Save(ctx context.Context, text string, vector []float32, ttl time.Duration) error
	Clear(ctx context.Context) (int, error)
}

type EmbeddingCacheStats struct {
	Size        int    `json:"size"`
	MaxSize     int    `json:"max_size"`
	TTLSeconds  int64  `json:"ttl_seconds"`
	Hits        int64  `json:"hits"`
	Misses      int64  `json:"misses"`
	Evictions   int64  `json:"evictions"`
	Expirations int64  `json:"expirations"`
	ApproxBytes uint64 `json:"approx_bytes"`
	HumanSize   string `json:"human_size"`
}

func (s EmbeddingCacheStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
