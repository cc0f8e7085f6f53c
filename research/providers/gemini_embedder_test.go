package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiEmbedder_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiEmbedder(context.Background(), "", "", 0, nil)
	assert.Error(t, err)
}

func TestGeminiEmbedder_Defaults(t *testing.T) {
	e, err := NewGeminiEmbedder(context.Background(), "test-key", "", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultGeminiEmbeddingModel, e.Model())
	assert.Equal(t, DefaultEmbeddingDimension, e.Dimensions())
}

func TestGeminiEmbedder_EmptyInputSkipsRequest(t *testing.T) {
	e, err := NewGeminiEmbedder(context.Background(), "test-key", "text-embedding-004", 768, nil)
	require.NoError(t, err)

	vectors, usage, err := e.Embed(context.Background(), []string{})
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Equal(t, "text-embedding-004", usage.Model)
}
