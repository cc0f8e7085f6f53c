package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"

	"github.com/AzielCF/az-insights/infrastructure/valkey"
)

type valkeyEmbeddingRecord struct {
	Vector    []float32 `json:"vector"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ValkeyEmbeddingCache implements domain.SharedEmbeddingStore using Valkey.
// Keys are the same SHA-256 digests as the in-memory cache, namespaced by
// model so vectors from different models never mix.
type ValkeyEmbeddingCache struct {
	client *valkey.Client
	prefix string
	model  string
}

func NewValkeyEmbeddingCache(client *valkey.Client, model string) *ValkeyEmbeddingCache {
	return &ValkeyEmbeddingCache{
		client: client,
		prefix: client.Key("embedding", model) + ":",
		model:  model,
	}
}

func (s *ValkeyEmbeddingCache) fullKey(text string) string {
	return s.prefix + CacheKey(text)
}

func (s *ValkeyEmbeddingCache) inner() valkeylib.Client {
	return s.client.Inner()
}

// Get returns the shared vector for text, if any.
func (s *ValkeyEmbeddingCache) Get(ctx context.Context, text string) ([]float32, bool, error) {
	cmd := s.inner().B().Get().Key(s.fullKey(text)).Build()

	data, err := s.inner().Do(ctx, cmd).AsBytes()
	if err != nil {
		if valkeylib.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get shared embedding: %w", err)
	}

	var rec valkeyEmbeddingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal shared embedding: %w", err)
	}
	return rec.Vector, true, nil
}

// Save stores vector for text; Valkey expires it after ttl.
func (s *ValkeyEmbeddingCache) Save(ctx context.Context, text string, vector []float32, ttl time.Duration) error {
	data, err := json.Marshal(valkeyEmbeddingRecord{
		Vector:    vector,
		Model:     s.model,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal shared embedding: %w", err)
	}

	builder := s.inner().B().Set().Key(s.fullKey(text)).Value(string(data))
	var cmd valkeylib.Completed
	if ttl > 0 {
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}

	if err := s.inner().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save shared embedding: %w", err)
	}
	return nil
}

// Clear deletes every shared embedding of this model and returns the count.
func (s *ValkeyEmbeddingCache) Clear(ctx context.Context) (int, error) {
	var cursor uint64
	deleted := 0

	for {
		cmd := s.inner().B().Scan().Cursor(cursor).Match(s.prefix + "*").Count(100).Build()
		result, err := s.inner().Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan shared embeddings: %w", err)
		}

		if len(result.Elements) > 0 {
			del := s.inner().B().Del().Key(result.Elements...).Build()
			n, err := s.inner().Do(ctx, del).AsInt64()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete shared embeddings: %w", err)
			}
			deleted += int(n)
		}

		cursor = result.Cursor
		if cursor == 0 {
			break
		}
	}
	return deleted, nil
}
