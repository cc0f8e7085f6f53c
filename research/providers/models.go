package providers

const (
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"
	DefaultGeminiEmbeddingModel = "gemini-embedding-001"
	DefaultEmbeddingDimension   = 1536
)

// EmbeddingModelDimensions lists the native output size of known models.
var EmbeddingModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"gemini-embedding-001":   3072,
	"text-embedding-004":     768,
}

// EmbeddingModelPrices is USD per 1M input tokens.
var EmbeddingModelPrices = map[string]float64{
	"text-embedding-3-small": 0.02,
	"text-embedding-3-large": 0.13,
	"text-embedding-ada-002": 0.10,
	"gemini-embedding-001":   0.15,
	"text-embedding-004":     0.00,
}

// EstimateCost returns the USD cost of embedding tokens with model.
func EstimateCost(model string, tokens int) float64 {
	price, ok := EmbeddingModelPrices[model]
	if !ok {
		price = EmbeddingModelPrices[DefaultOpenAIEmbeddingModel]
	}
	return float64(tokens) * price / 1_000_000
}
