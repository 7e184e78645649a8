package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/scribe/internal/cache/memory"
	"github.com/davidbz/scribe/internal/config"
	"github.com/davidbz/scribe/internal/domain"
	embeddingopenai "github.com/davidbz/scribe/internal/embedding/openai"
	"github.com/davidbz/scribe/internal/httpserver"
	"github.com/davidbz/scribe/internal/httpserver/middleware"
	"github.com/davidbz/scribe/internal/observability"
	"github.com/davidbz/scribe/internal/provider/echo"
	provideropenai "github.com/davidbz/scribe/internal/provider/openai"
	"github.com/davidbz/scribe/internal/provider/registry"
	mongostore "github.com/davidbz/scribe/internal/store/mongo"
	redisstore "github.com/davidbz/scribe/internal/store/redis"
)

// ErrProviderNotConfigured indicates that a provider is not configured and should be skipped.
var ErrProviderNotConfigured = errors.New("provider not configured")

func main() {
	container := buildContainer()

	if err := container.Invoke(run); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

// app collects what run needs to serve and to shut down.
type app struct {
	dig.In

	Config         *config.Config
	Logger         *zap.Logger
	Server         *httpserver.Server
	Runner         *domain.BackgroundRunner
	EmbeddingCache *memory.Cache[[]float64]
	SearchCache    *memory.Cache[domain.RetrievalResult]
	Mongo          *mongo.Client
	Redis          *goredis.Client
}

func run(a app) error {
	logger := a.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer := func(context.Context) error { return nil }
	if a.Config.Telemetry.TracingEnabled {
		shutdown, err := observability.InitTracer(a.Config.Telemetry.ServiceName, a.Config.Telemetry.TraceSampleRatio)
		if err != nil {
			return err
		}
		shutdownTracer = shutdown
	}

	go a.EmbeddingCache.Run(ctx, a.Config.Cache.SweepInterval)
	go a.SearchCache.Run(ctx, a.Config.Cache.SweepInterval)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.Server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(a.Config.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", observability.Error(err))
	}
	if err := a.Runner.Wait(shutdownCtx); err != nil {
		logger.Warn("background tasks did not finish", observability.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown failed", observability.Error(err))
	}
	if err := a.Mongo.Disconnect(shutdownCtx); err != nil {
		logger.Warn("mongo disconnect failed", observability.Error(err))
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Warn("redis close failed", observability.Error(err))
		}
	}

	_ = logger.Sync()
	return nil
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Provide(func() *observability.Metrics {
		return observability.NewMetrics()
	}); err != nil {
		log.Fatalf("Failed to provide metrics: %v", err)
	}

	provideCaches(container)
	provideProviders(container)
	provideStores(container)
	provideServices(container)

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(func(
		chat *domain.ChatService,
		completion *domain.CompletionService,
		embeddingCache *memory.Cache[[]float64],
		searchCache *memory.Cache[domain.RetrievalResult],
	) *httpserver.Handler {
		return httpserver.NewHandler(chat, completion, embeddingCache, searchCache)
	}); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(httpserver.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}

func provideCaches(container *dig.Container) {
	if err := container.Provide(func(m *observability.Metrics) *memory.Cache[[]float64] {
		return memory.New[[]float64]("embedding", memory.WithMetrics(m))
	}); err != nil {
		log.Fatalf("Failed to provide embedding cache: %v", err)
	}
	if err := container.Provide(func(m *observability.Metrics) *memory.Cache[domain.RetrievalResult] {
		return memory.New[domain.RetrievalResult]("search", memory.WithMetrics(m))
	}); err != nil {
		log.Fatalf("Failed to provide search cache: %v", err)
	}
}

func provideProviders(container *dig.Container) {
	if err := container.Provide(func() domain.ProviderRegistry {
		return registry.NewRegistry()
	}); err != nil {
		log.Fatalf("Failed to provide registry: %v", err)
	}
	if err := container.Provide(func() domain.PricingRegistry {
		return domain.NewPricingTable()
	}); err != nil {
		log.Fatalf("Failed to provide pricing registry: %v", err)
	}

	// OpenAI Provider
	if err := container.Provide(func(cfg *provideropenai.Config) (*provideropenai.Provider, error) {
		if cfg.APIKey == "" {
			return nil, ErrProviderNotConfigured
		}
		return provideropenai.NewProvider(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide OpenAI provider: %v", err)
	}

	// Echo is always available; OpenAI only with an API key.
	if err := container.Invoke(func(
		reg domain.ProviderRegistry,
		pricing domain.PricingRegistry,
		chat *config.ChatConfig,
	) error {
		ctx := context.Background()

		if err := reg.Register(ctx, echo.NewProvider()); err != nil {
			return fmt.Errorf("failed to register echo provider: %w", err)
		}
		if chat.Provider != echo.ProviderName {
			return nil
		}
		return echo.RegisterPricing(ctx, pricing, chat.Model)
	}); err != nil {
		log.Fatalf("Failed to register echo provider: %v", err)
	}

	if err := container.Invoke(func(
		reg domain.ProviderRegistry,
		pricing domain.PricingRegistry,
		openaiProvider *provideropenai.Provider,
	) error {
		ctx := context.Background()

		if err := reg.Register(ctx, openaiProvider); err != nil {
			return fmt.Errorf("failed to register OpenAI provider: %w", err)
		}
		return provideropenai.RegisterPricing(ctx, pricing)
	}); err != nil {
		// Ignore ErrProviderNotConfigured as it's expected for optional providers
		if !errors.Is(err, ErrProviderNotConfigured) {
			log.Fatalf("Failed to register providers: %v", err)
		}
	}

	if err := container.Provide(func(cfg *embeddingopenai.Config) (domain.EmbeddingGenerator, error) {
		return embeddingopenai.NewGenerator(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide embedding generator: %v", err)
	}
}

func provideStores(container *dig.Container) {
	if err := container.Provide(func(cfg *mongostore.Config) (*mongo.Client, error) {
		return mongostore.Connect(context.Background(), *cfg)
	}); err != nil {
		log.Fatalf("Failed to provide mongo client: %v", err)
	}
	if err := container.Provide(func(client *mongo.Client, cfg *mongostore.Config) domain.DocumentStore {
		return mongostore.NewWorklogStore(client.Database(cfg.Database), *cfg)
	}); err != nil {
		log.Fatalf("Failed to provide work-log store: %v", err)
	}

	// A nil client disables history.
	if err := container.Provide(func(chat *config.ChatConfig, cfg *redisstore.Config) (*goredis.Client, error) {
		if !chat.HistoryEnabled {
			return nil, nil
		}
		return redisstore.NewClient(context.Background(), *cfg)
	}); err != nil {
		log.Fatalf("Failed to provide redis client: %v", err)
	}
	if err := container.Provide(func(client *goredis.Client, cfg *redisstore.Config) domain.ChatHistoryStore {
		if client == nil {
			return nil
		}
		return redisstore.NewHistoryStore(client, *cfg)
	}); err != nil {
		log.Fatalf("Failed to provide history store: %v", err)
	}
}

func provideServices(container *dig.Container) {
	if err := container.Provide(func(
		generator domain.EmbeddingGenerator,
		cache *memory.Cache[[]float64],
		cfg *config.CacheConfig,
	) *domain.EmbeddingService {
		return domain.NewEmbeddingService(generator, cache, cfg.EmbeddingTTL)
	}); err != nil {
		log.Fatalf("Failed to provide embedding service: %v", err)
	}

	if err := container.Provide(func(
		store domain.DocumentStore,
		cache *memory.Cache[domain.RetrievalResult],
		cacheCfg *config.CacheConfig,
		chat *config.ChatConfig,
		metrics *observability.Metrics,
	) (*domain.RetrievalService, error) {
		keyFunc, err := cacheCfg.SearchKeyFunc()
		if err != nil {
			return nil, err
		}
		return domain.NewRetrievalService(store, cache, domain.RetrievalConfig{
			TTL:            cacheCfg.SearchTTL,
			CandidateRatio: chat.CandidateRatio,
			KeyFunc:        keyFunc,
		}, metrics), nil
	}); err != nil {
		log.Fatalf("Failed to provide retrieval service: %v", err)
	}

	if err := container.Provide(func(chat *config.ChatConfig) *domain.ContextAssembler {
		return domain.NewContextAssembler(chat.ContentBudget)
	}); err != nil {
		log.Fatalf("Failed to provide context assembler: %v", err)
	}

	if err := container.Provide(func(
		reg domain.ProviderRegistry,
		pricing domain.PricingRegistry,
		chat *config.ChatConfig,
		metrics *observability.Metrics,
	) *domain.CompletionService {
		return domain.NewCompletionService(
			reg,
			domain.NewCostCalculator(pricing),
			domain.CompletionSettings{
				Provider:    chat.Provider,
				Model:       chat.Model,
				MaxTokens:   chat.MaxTokens,
				Temperature: chat.Temperature,
				TopP:        chat.TopP,
				Timeout:     chat.Timeout,
			},
			domain.NewLatencyWindow(chat.LatencyWindow),
			metrics,
		)
	}); err != nil {
		log.Fatalf("Failed to provide completion service: %v", err)
	}

	if err := container.Provide(func(chat *config.ChatConfig) *domain.BackgroundRunner {
		return domain.NewBackgroundRunner(chat.PersistTimeout)
	}); err != nil {
		log.Fatalf("Failed to provide background runner: %v", err)
	}

	if err := container.Provide(func(
		embeddings *domain.EmbeddingService,
		retrieval *domain.RetrievalService,
		assembler *domain.ContextAssembler,
		completion *domain.CompletionService,
		history domain.ChatHistoryStore,
		runner *domain.BackgroundRunner,
		metrics *observability.Metrics,
		chat *config.ChatConfig,
	) *domain.ChatService {
		return domain.NewChatService(embeddings, retrieval, assembler, completion, history,
			runner, metrics, domain.ChatSettings{SearchLimit: chat.SearchLimit})
	}); err != nil {
		log.Fatalf("Failed to provide chat service: %v", err)
	}
}
