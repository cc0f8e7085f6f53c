package domain

import "encoding/json"

type AddSelectionRequest struct {
	ItemType string          `json:"item_type"`
	Item     json.RawMessage `json:"item"`
}

type UpdateLimitsRequest struct {
	MaxTokens   int `json:"max_tokens"`
	TokenBuffer int `json:"token_buffer"`
}

type TruncateRequest struct {
	TargetPercent float64 `json:"target_percent"`
}

type SearchRequest struct {
	Query     string   `json:"query"`
	Types     []string `json:"types,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	Threshold float64  `json:"threshold,omitempty"`
}

// Document formats accepted on submit. Plain text is the default.
const (
	DocumentFormatText = "text"
	DocumentFormatHTML = "html"
)

type SubmitDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
	Format  string `json:"format,omitempty"`
}

type SubmitInsightRequest struct {
	Description string `json:"description"`
	Context     string `json:"context,omitempty"`
	DocumentID  string `json:"document_id,omitempty"`
}

type SubmitJTBDRequest struct {
	Statement  string `json:"statement"`
	Context    string `json:"context,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
}

type SubmitMetricRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	CurrentValue *float64 `json:"current_value,omitempty"`
	TargetValue  *float64 `json:"target_value,omitempty"`
}

// SubmitResult identifies a stored record. Embedded reports whether the
// embedding job was accepted by the worker pool.
type SubmitResult struct {
	ID          string      `json:"id"`
	ContentType ContentType `json:"content_type"`
	Embedded    bool        `json:"embedding_queued"`
}
