package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App            AppConfig
	MCP            MCPConfig
	Paths          PathsConfig
	Database       DatabaseConfig
	AI             AIConfig
	EmbeddingCache EmbeddingCacheConfig
	Context        ContextConfig
	WorkerPool     WorkerPoolConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasicAuth          []string
	BasePath           string
	CorsAllowedOrigins []string
}

type MCPConfig struct {
	Port string
	Host string
}

type PathsConfig struct {
	Storages string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // File path for SQLite, DB Name for Postgres
	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

type AIConfig struct {
	EmbeddingProvider  string
	EmbeddingModel     string
	EmbeddingDimension int
	// CompletionModel selects the tokenizer used for context budgeting.
	CompletionModel string
	OpenAIKey       string
	GeminiKey       string
}

type EmbeddingCacheConfig struct {
	MaxSize         int
	TTL             time.Duration
	SharedTTL       time.Duration
	CleanupInterval time.Duration
}

type ContextConfig struct {
	MaxTokens   int
	TokenBuffer int
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

// LoadConfig loads configuration from Environment Variables or defaults.
func LoadConfig() (*Config, error) {
	storages := getEnv("APP_BASE_DIR", "storages")

	debug := getEnvBool("APP_DEBUG", false) || getEnvBool("DEBUG", false)

	var basicAuth []string
	if v := os.Getenv("APP_BASIC_AUTH"); v != "" {
		basicAuth = splitList(v)
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := os.Getenv("APP_CORS_ALLOWED_ORIGINS"); v != "" {
		corsOrigins = splitList(v)
	}

	appCfg := AppConfig{
		Version:            getEnv("APP_VERSION", "v0.3.0"),
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              debug,
		Environment:        getEnv("APP_ENV", "development"),
		BasicAuth:          basicAuth,
		BasePath:           getEnv("APP_BASE_PATH", ""),
		CorsAllowedOrigins: corsOrigins,
	}

	dbDriver := getEnv("DB_DRIVER", "sqlite")
	dbName := getEnv("DB_NAME", "")
	if dbName == "" {
		if dbDriver == "postgres" {
			dbName = "insights"
		} else {
			dbName = filepath.Join(storages, "insights.db")
		}
	}

	dbCfg := DatabaseConfig{
		Driver:          dbDriver,
		Name:            dbName,
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "insights:"),
	}

	aiCfg := AIConfig{
		EmbeddingProvider:  strings.ToLower(getEnv("AI_EMBEDDING_PROVIDER", "openai")),
		EmbeddingModel:     getEnv("AI_EMBEDDING_MODEL", ""),
		EmbeddingDimension: getEnvInt("AI_EMBEDDING_DIMENSION", 1536),
		CompletionModel:    getEnv("AI_COMPLETION_MODEL", "gpt-4o-mini"),
		OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
		GeminiKey:          getEnv("GEMINI_API_KEY", ""),
	}

	cacheCfg := EmbeddingCacheConfig{
		MaxSize:         getEnvInt("EMBEDDING_CACHE_MAX_SIZE", 1000),
		TTL:             time.Duration(getEnvInt("EMBEDDING_CACHE_TTL_HOURS", 24)) * time.Hour,
		SharedTTL:       time.Duration(getEnvInt("EMBEDDING_CACHE_SHARED_TTL_HOURS", 168)) * time.Hour,
		CleanupInterval: time.Duration(getEnvInt("EMBEDDING_CACHE_CLEANUP_MINUTES", 10)) * time.Minute,
	}

	cfg := &Config{
		App:            appCfg,
		MCP:            MCPConfig{Port: getEnv("MCP_PORT", "8080"), Host: getEnv("MCP_HOST", "localhost")},
		Paths:          PathsConfig{Storages: storages},
		Database:       dbCfg,
		AI:             aiCfg,
		EmbeddingCache: cacheCfg,
		Context: ContextConfig{
			MaxTokens:   getEnvInt("CONTEXT_MAX_TOKENS", 8000),
			TokenBuffer: getEnvInt("CONTEXT_TOKEN_BUFFER", 1000),
		},
		WorkerPool: WorkerPoolConfig{
			Size:      getEnvInt("INGEST_WORKER_POOL_SIZE", 4),
			QueueSize: getEnvInt("INGEST_WORKER_QUEUE_SIZE", 100),
		},
	}

	return cfg, nil
}
