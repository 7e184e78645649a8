package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/scribe/internal/domain"
	embeddingopenai "github.com/davidbz/scribe/internal/embedding/openai"
	provideropenai "github.com/davidbz/scribe/internal/provider/openai"
	"github.com/davidbz/scribe/internal/store/mongo"
	"github.com/davidbz/scribe/internal/store/redis"
)

// Config represents the service configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	OpenAI    provideropenai.Config
	Embedding embeddingopenai.Config
	Chat      ChatConfig
	Cache     CacheConfig
	Mongo     mongo.Config
	Redis     redis.Config
	Telemetry TelemetryConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int `env:"SERVER_PORT"             envDefault:"8080"`
	ReadTimeout     int `env:"SERVER_READ_TIMEOUT"     envDefault:"30"`
	WriteTimeout    int `env:"SERVER_WRITE_TIMEOUT"    envDefault:"60"`
	ShutdownTimeout int `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// ChatConfig contains the answer pipeline settings.
type ChatConfig struct {
	Provider       string        `env:"CHAT_PROVIDER"               envDefault:"openai"`
	Model          string        `env:"CHAT_MODEL"                  envDefault:"gpt-4o-mini"`
	MaxTokens      int           `env:"CHAT_MAX_TOKENS"             envDefault:"500"`
	Temperature    float64       `env:"CHAT_TEMPERATURE"            envDefault:"0.3"`
	TopP           float64       `env:"CHAT_TOP_P"                  envDefault:"0.9"`
	Timeout        time.Duration `env:"CHAT_TIMEOUT"                envDefault:"30s"`
	LatencyWindow  int           `env:"CHAT_LATENCY_WINDOW"         envDefault:"100"`
	SearchLimit    int           `env:"CHAT_SEARCH_LIMIT"           envDefault:"5"`
	CandidateRatio int           `env:"CHAT_CANDIDATE_RATIO"        envDefault:"10"`
	ContentBudget  int           `env:"CHAT_CONTEXT_CONTENT_BUDGET" envDefault:"600"`
	PersistTimeout time.Duration `env:"CHAT_PERSIST_TIMEOUT"        envDefault:"10s"`
	HistoryEnabled bool          `env:"CHAT_HISTORY_ENABLED"        envDefault:"true"`
}

// Search cache key strategies.
const (
	SearchKeyFingerprint = "fingerprint"
	SearchKeyFull        = "full"
)

// CacheConfig contains the embedding and search cache settings.
type CacheConfig struct {
	EmbeddingTTL  time.Duration `env:"CACHE_EMBEDDING_TTL"  envDefault:"1h"`
	SearchTTL     time.Duration `env:"CACHE_SEARCH_TTL"     envDefault:"5m"`
	SweepInterval time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"0s"`
	SearchKey     string        `env:"CACHE_SEARCH_KEY"     envDefault:"fingerprint"`
}

// SearchKeyFunc returns the search cache key derivation selected by SearchKey.
func (c CacheConfig) SearchKeyFunc() (domain.VectorKeyFunc, error) {
	switch c.SearchKey {
	case SearchKeyFingerprint, "":
		return domain.VectorFingerprint, nil
	case SearchKeyFull:
		return domain.FullVectorKey, nil
	default:
		return nil, fmt.Errorf("unknown search cache key strategy: %s", c.SearchKey)
	}
}

// TelemetryConfig contains tracing settings.
type TelemetryConfig struct {
	ServiceName      string  `env:"OTEL_SERVICE_NAME"  envDefault:"scribe"`
	TracingEnabled   bool    `env:"TRACING_ENABLED"    envDefault:"true"`
	TraceSampleRatio float64 `env:"TRACE_SAMPLE_RATIO" envDefault:"1.0"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out

	Server    *ServerConfig
	CORS      *CORSConfig
	OpenAI    *provideropenai.Config
	Embedding *embeddingopenai.Config
	Chat      *ChatConfig
	Cache     *CacheConfig
	Mongo     *mongo.Config
	Redis     *redis.Config
	Telemetry *TelemetryConfig
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		Server:    &cfg.Server,
		CORS:      &cfg.CORS,
		OpenAI:    &cfg.OpenAI,
		Embedding: &cfg.Embedding,
		Chat:      &cfg.Chat,
		Cache:     &cfg.Cache,
		Mongo:     &cfg.Mongo,
		Redis:     &cfg.Redis,
		Telemetry: &cfg.Telemetry,
	}
}
