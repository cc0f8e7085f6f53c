package providers

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"

	domain "github.com/AzielCF/az-insights/research/domain"
)

// OpenAIEmbedder is the adapter for the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder creates an embedder. Extra request options (base URL,
// retries, test transports) are passed through to the client.
func NewOpenAIEmbedder(apiKey, model string, dimension int, opts ...option.RequestOption) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai embedder requires an API key")
	}
	if model == "" {
		model = DefaultOpenAIEmbeddingModel
	}
	if dimension <= 0 {
		dimension = DefaultEmbeddingDimension
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIEmbedder{
		client:    openai.NewClient(opts...),
		model:     model,
		dimension: dimension,
	}, nil
}

func (e *OpenAIEmbedder) Model() string   { return e.model }
func (e *OpenAIEmbedder) Dimensions() int { return e.dimension }

// Embed implements domain.Embedder for OpenAI.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, domain.EmbeddingUsage, error) {
	if len(texts) == 0 {
		return nil, domain.EmbeddingUsage{Model: e.model}, nil
	}

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	}
	// ada-002 has a fixed size and rejects the dimensions parameter
	if e.model != "text-embedding-ada-002" {
		params.Dimensions = openai.Int(int64(e.dimension))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, domain.EmbeddingUsage{}, fmt.Errorf("openai embeddings request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, domain.EmbeddingUsage{}, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(vectors) {
			return nil, domain.EmbeddingUsage{}, fmt.Errorf("openai returned out of range index %d", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors[d.Index] = vec
	}

	usage := domain.EmbeddingUsage{
		Model:        e.model,
		PromptTokens: int(resp.Usage.PromptTokens),
		TotalTokens:  int(resp.Usage.TotalTokens),
		Requests:     1,
	}

	logrus.WithFields(logrus.Fields{
		"model":         e.model,
		"inputs":        len(texts),
		"prompt_tokens": usage.PromptTokens,
		"cost_usd":      fmt.Sprintf("$%.6f", EstimateCost(e.model, usage.TotalTokens)),
	}).Debug("[OPENAI] Embeddings created")

	return vectors, usage, nil
}
