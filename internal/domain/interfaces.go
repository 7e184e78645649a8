package domain

import (
	"context"
	"time"
)

// EmbeddingGenerator creates vector embeddings from text.
type EmbeddingGenerator interface {
	// Generate creates a vector embedding from text.
	Generate(ctx context.Context, text string) ([]float64, error)

	// Name returns the generator identifier.
	Name() string

	// Dimension returns the vector dimension.
	Dimension() int
}

// DocumentStore is the work-log store with similarity search.
type DocumentStore interface {
	// SimilaritySearch returns up to limit documents ranked by similarity to the
	// query vector, drawn from a pool of candidates nearest neighbours.
	SimilaritySearch(ctx context.Context, vector []float64, candidates, limit int) ([]RetrievedDocument, error)

	// Recent returns the limit most recently created documents, without scores.
	Recent(ctx context.Context, limit int) ([]RetrievedDocument, error)
}

// CompletionProvider represents any LLM provider.
type CompletionProvider interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider identifier.
	Name() string
}

// ProviderRegistry manages available completion providers.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider CompletionProvider) error

	// Get retrieves a provider by name.
	Get(ctx context.Context, providerName string) (CompletionProvider, error)

	// List returns all available providers.
	List(ctx context.Context) ([]string, error)
}

// ChatHistoryStore persists completed exchanges.
type ChatHistoryStore interface {
	// Append stores one exchange for its session.
	Append(ctx context.Context, exchange *ConversationExchange) error
}

// ComputeCache maps keys to values with an expiry and runs at most one
// computation per key at a time.
type ComputeCache[V any] interface {
	// GetOrCompute returns the live value for key or computes, stores and returns it.
	// Concurrent callers for the same key share one computation and its result.
	GetOrCompute(
		ctx context.Context,
		key string,
		ttl time.Duration,
		compute func(ctx context.Context) (V, error),
	) (V, error)

	// Stats returns the cache's counters.
	Stats() CacheStats
}
