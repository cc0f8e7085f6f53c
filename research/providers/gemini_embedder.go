package providers

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	domain "github.com/AzielCF/az-insights/research/domain"
)

// GeminiEmbedder is the adapter for the Gemini embedContent API.
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	dimension int
	tokens    func(string) int
}

// NewGeminiEmbedder creates a Gemini API client. countTokens estimates usage,
// since embedContent does not report token counts; it may be nil.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dimension int, countTokens func(string) int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini embedder requires an API key")
	}
	if model == "" {
		model = DefaultGeminiEmbeddingModel
	}
	if dimension <= 0 {
		dimension = DefaultEmbeddingDimension
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiEmbedder{
		client:    client,
		model:     model,
		dimension: dimension,
		tokens:    countTokens,
	}, nil
}

func (e *GeminiEmbedder) Model() string   { return e.model }
func (e *GeminiEmbedder) Dimensions() int { return e.dimension }

// Embed implements domain.Embedder for Gemini.
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, domain.EmbeddingUsage, error) {
	if len(texts) == 0 {
		return nil, domain.EmbeddingUsage{Model: e.model}, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	dim := int32(e.dimension)
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType:             "RETRIEVAL_DOCUMENT",
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, domain.EmbeddingUsage{}, fmt.Errorf("gemini embed request failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, domain.EmbeddingUsage{}, fmt.Errorf("gemini returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		vectors[i] = emb.Values
	}

	usage := domain.EmbeddingUsage{Model: e.model, Requests: 1}
	if e.tokens != nil {
		for _, t := range texts {
			usage.PromptTokens += e.tokens(t)
		}
		usage.TotalTokens = usage.PromptTokens
	}

	logrus.WithFields(logrus.Fields{
		"model":            e.model,
		"inputs":           len(texts),
		"estimated_tokens": usage.TotalTokens,
	}).Debug("[GEMINI] Embeddings created")

	return vectors, usage, nil
}
