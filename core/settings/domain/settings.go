package domain

import "context"

// Setting is a runtime override stored in the database.
type Setting struct {
	Key   string
	Value string
}

// ISettingsRepository defines the contract for persisting dynamic settings.
type ISettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error

	InitSchema(ctx context.Context) error
}

const (
	KeyContextMaxTokens   = "context_max_tokens"
	KeyContextTokenBuffer = "context_token_buffer"
)
