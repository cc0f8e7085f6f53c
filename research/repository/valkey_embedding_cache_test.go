package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzielCF/az-insights/infrastructure/valkey"
)

// Requires a running server, e.g. VALKEY_TEST_ADDRESS=localhost:6379.
func newTestValkeyCache(t *testing.T) *ValkeyEmbeddingCache {
	t.Helper()

	addr := os.Getenv("VALKEY_TEST_ADDRESS")
	if addr == "" {
		t.Skip("VALKEY_TEST_ADDRESS not set")
	}

	client, err := valkey.NewClient(valkey.Config{
		Address:        addr,
		KeyPrefix:      "insights-test-" + time.Now().Format("150405.000000"),
		ConnectTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	cache := NewValkeyEmbeddingCache(client, "test-model")
	t.Cleanup(func() { _, _ = cache.Clear(context.Background()) })
	return cache
}

func TestValkeyEmbeddingCache_SaveGet(t *testing.T) {
	cache := newTestValkeyCache(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Save(ctx, "hello", []float32{0.5, 0.25}, time.Minute))

	vec, ok, err := cache.Get(ctx, "hello")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{0.5, 0.25}, vec)
}

func TestValkeyEmbeddingCache_Clear(t *testing.T) {
	cache := newTestValkeyCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, "a", []float32{1}, time.Minute))
	require.NoError(t, cache.Save(ctx, "b", []float32{2}, 0))

	n, err := cache.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}
