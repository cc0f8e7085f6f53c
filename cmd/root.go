package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	coreconfig "github.com/AzielCF/az-insights/core/config"
	coreDB "github.com/AzielCF/az-insights/core/database"
	settingsApp "github.com/AzielCF/az-insights/core/settings/application"
	"github.com/AzielCF/az-insights/infrastructure/valkey"
	"github.com/AzielCF/az-insights/pkg/jobworker"
	"github.com/AzielCF/az-insights/pkg/utils"
	"github.com/AzielCF/az-insights/research/application"
	domain "github.com/AzielCF/az-insights/research/domain"
	"github.com/AzielCF/az-insights/research/providers"
	"github.com/AzielCF/az-insights/research/repository"
	"github.com/AzielCF/az-insights/research/tokenizer"
)

var (
	cfg *coreconfig.Config

	db          *gorm.DB
	vkClient    *valkey.Client
	settingsSvc *settingsApp.SettingsService

	contextManager   *application.ContextManager
	embeddingCache   *repository.MemoryEmbeddingCache
	embeddingService *application.EmbeddingService
	ingestPool       *jobworker.Pool
	ingestService    *application.IngestService
	searchService    *application.SearchService

	stopCleanup chan struct{}
	cancelApp   context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "insights",
	Short: "Research assistant backend with token-budgeted context and cached embeddings",
	Long: `Stores research documents, insights, jobs-to-be-done and metrics, finds them by
semantic similarity and keeps a token-budgeted working context for prompting an LLM.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initEnvConfig)
}

func initFlags() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "displaying debug log with --debug <true/false> | example: --debug=true")
	_ = viper.BindPFlag("app_debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// initEnvConfig builds the configuration from the environment and applies
// the flags that override it.
func initEnvConfig() {
	var err error
	cfg, err = coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("[CONFIG] Failed to load configuration: %v", err)
	}

	if viper.GetBool("app_debug") {
		cfg.App.Debug = true
	}
	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

// initApp wires storage, caches, providers and services. Commands that only
// need configuration skip it.
func initApp() {
	ctx, cancel := context.WithCancel(context.Background())
	cancelApp = cancel

	var err error
	db, err = coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("[DB] %v", err)
	}

	store := repository.NewResearchGormRepository(db)
	if err := store.InitSchema(ctx); err != nil {
		logrus.Fatalf("[DB] Failed to migrate research tables: %v", err)
	}

	settingsSvc = settingsApp.NewSettingsService(db)
	if err := settingsSvc.InitSchema(ctx); err != nil {
		logrus.Fatalf("[DB] Failed to migrate settings table: %v", err)
	}

	// 1. Context manager with persisted limit overrides
	counter := tokenizer.NewCounter(cfg.AI.CompletionModel)
	contextManager = application.NewContextManager(counter, cfg.Context.MaxTokens, cfg.Context.TokenBuffer)
	applyStoredLimits(ctx)

	// 2. Embedding caches
	embeddingCache = repository.NewMemoryEmbeddingCache(cfg.EmbeddingCache.MaxSize, cfg.EmbeddingCache.TTL)
	stopCleanup = make(chan struct{})
	embeddingCache.StartCleanupLoop(cfg.EmbeddingCache.CleanupInterval, stopCleanup)

	embedder, err := newEmbedder(ctx, counter)
	if err != nil {
		logrus.Fatalf("[EMBEDDINGS] %v", err)
	}

	var shared domain.SharedEmbeddingStore
	if cfg.Database.ValkeyEnabled {
		vkClient, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Database.ValkeyAddress,
			Password:  cfg.Database.ValkeyPassword,
			DB:        cfg.Database.ValkeyDB,
			KeyPrefix: cfg.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.WithError(err).Warn("[VALKEY] Unavailable, embeddings will only be cached in memory")
		} else {
			shared = repository.NewValkeyEmbeddingCache(vkClient, embedder.Model())
			logrus.Infof("[VALKEY] Shared embedding cache enabled at %s", cfg.Database.ValkeyAddress)
		}
	}

	embeddingService = application.NewEmbeddingService(embedder, embeddingCache, shared, cfg.EmbeddingCache.SharedTTL)

	// 3. Ingest workers and services
	ingestPool = jobworker.NewPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)
	ingestPool.Start(ctx)

	ingestService = application.NewIngestService(store, embeddingService, ingestPool)
	searchService = application.NewSearchService(store, embeddingService, contextManager)

	logrus.WithFields(logrus.Fields{
		"db":        cfg.Database.Driver,
		"provider":  cfg.AI.EmbeddingProvider,
		"model":     embedder.Model(),
		"tokenizer": counter.Encoding(),
		"workers":   cfg.WorkerPool.Size,
	}).Info("[APP] Initialized")
}

func applyStoredLimits(ctx context.Context) {
	limits, err := settingsSvc.GetContextLimits(ctx)
	if err != nil {
		logrus.WithError(err).Warn("[CONTEXT] Failed to load stored limits, using configured defaults")
		return
	}

	maxTokens, buffer := cfg.Context.MaxTokens, cfg.Context.TokenBuffer
	if limits.MaxTokens != nil {
		maxTokens = *limits.MaxTokens
	}
	if limits.TokenBuffer != nil {
		buffer = *limits.TokenBuffer
	}
	contextManager.SetLimits(maxTokens, buffer)
}

func newEmbedder(ctx context.Context, counter tokenizer.Counter) (domain.Embedder, error) {
	switch cfg.AI.EmbeddingProvider {
	case "openai":
		embedder, err := providers.NewOpenAIEmbedder(cfg.AI.OpenAIKey, cfg.AI.EmbeddingModel, cfg.AI.EmbeddingDimension)
		if err != nil {
			return nil, err
		}
		return embedder, nil
	case "gemini":
		embedder, err := providers.NewGeminiEmbedder(ctx, cfg.AI.GeminiKey, cfg.AI.EmbeddingModel, cfg.AI.EmbeddingDimension, counter.CountTokens)
		if err != nil {
			return nil, err
		}
		return embedder, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q: must be openai or gemini", cfg.AI.EmbeddingProvider)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp drains the ingest queue and closes every connection.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if ingestPool != nil {
		ingestPool.Stop()
	}
	if stopCleanup != nil {
		close(stopCleanup)
		stopCleanup = nil
	}
	if cancelApp != nil {
		cancelApp()
	}
	if vkClient != nil {
		vkClient.Close()
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	logrus.Info("[APP] Application stopped cleanly.")
}
