package config

import (
	"os"
	"strconv"
	"strings"
)

// PublicSettings returns the non-secret settings exposed by the API.
func (c *Config) PublicSettings() map[string]any {
	return map[string]any{
		"app_version":                 c.App.Version,
		"app_debug":                   c.App.Debug,
		"db_driver":                   c.Database.Driver,
		"valkey_enabled":              c.Database.ValkeyEnabled,
		"ai_embedding_provider":       c.AI.EmbeddingProvider,
		"ai_embedding_model":          c.AI.EmbeddingModel,
		"ai_embedding_dimension":      c.AI.EmbeddingDimension,
		"ai_completion_model":         c.AI.CompletionModel,
		"embedding_cache_max_size":    c.EmbeddingCache.MaxSize,
		"embedding_cache_ttl_seconds": int64(c.EmbeddingCache.TTL.Seconds()),
		"context_max_tokens":          c.Context.MaxTokens,
		"context_token_buffer":        c.Context.TokenBuffer,
		"ingest_worker_pool_size":     c.WorkerPool.Size,
		"ingest_worker_queue_size":    c.WorkerPool.QueueSize,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
