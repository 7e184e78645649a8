package domain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/davidbz/scribe/internal/observability"
)

// Degradation reasons, used as log fields and metric labels.
const (
	degradedSearchError = "error"
	degradedNoResults   = "empty"
)

// RetrievalService finds the work logs most relevant to a query vector. When
// semantic search fails or finds nothing it falls back to the most recent logs,
// so it always yields a document set, possibly empty, and never an error.
type RetrievalService struct {
	store          DocumentStore
	cache          ComputeCache[RetrievalResult]
	keyFunc        VectorKeyFunc
	ttl            time.Duration
	candidateRatio int
	metrics        *observability.Metrics
}

// RetrievalConfig tunes a RetrievalService.
type RetrievalConfig struct {
	// TTL is how long a result stays cached.
	TTL time.Duration

	// CandidateRatio sizes the nearest-neighbour pool as limit * CandidateRatio.
	CandidateRatio int

	// KeyFunc derives the cache key from the query vector; VectorFingerprint when nil.
	KeyFunc VectorKeyFunc
}

const defaultCandidateRatio = 10

// NewRetrievalService creates a retrieval service (DI constructor).
func NewRetrievalService(
	store DocumentStore,
	cache ComputeCache[RetrievalResult],
	cfg RetrievalConfig,
	metrics *observability.Metrics,
) *RetrievalService {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = VectorFingerprint
	}
	if cfg.CandidateRatio <= 0 {
		cfg.CandidateRatio = defaultCandidateRatio
	}

	return &RetrievalService{
		store:          store,
		cache:          cache,
		keyFunc:        cfg.KeyFunc,
		ttl:            cfg.TTL,
		candidateRatio: cfg.CandidateRatio,
		metrics:        metrics,
	}
}

// Search returns up to limit documents for the query vector through the search
// cache; concurrent identical searches share one store round trip. A store that
// is entirely unreachable yields an empty degraded result that is not cached.
func (s *RetrievalService) Search(ctx context.Context, vector []float64, limit int) RetrievalResult {
	key := s.keyFunc(vector) + ":" + strconv.Itoa(limit)

	result, err := s.cache.GetOrCompute(ctx, key, s.ttl, func(ctx context.Context) (RetrievalResult, error) {
		return s.search(ctx, vector, limit)
	})
	switch {
	case errors.Is(err, ErrRetrievalUnavailable):
		observability.FromContext(ctx).Warn("retrieval unavailable, answering without context",
			observability.Error(err))
		return RetrievalResult{Degraded: true}
	case err != nil:
		observability.FromContext(ctx).Warn("retrieval abandoned", observability.Error(err))
		return RetrievalResult{}
	}
	return result
}

// search runs the uncached semantic query with its recency fallback.
func (s *RetrievalService) search(ctx context.Context, vector []float64, limit int) (RetrievalResult, error) {
	logger := observability.FromContext(ctx)

	docs, err := s.store.SimilaritySearch(ctx, vector, limit*s.candidateRatio, limit)
	switch {
	case err != nil:
		logger.Warn("semantic search failed, using recent work logs",
			observability.Error(err))
		return s.fallback(ctx, limit, degradedSearchError)
	case len(docs) == 0:
		logger.Warn("semantic search returned nothing, using recent work logs")
		return s.fallback(ctx, limit, degradedNoResults)
	}

	logger.Debug("semantic search completed",
		observability.Int("documents", len(docs)))

	return RetrievalResult{Documents: docs}, nil
}

func (s *RetrievalService) fallback(ctx context.Context, limit int, reason string) (RetrievalResult, error) {
	logger := observability.FromContext(ctx)
	s.metrics.IncRetrievalDegraded(reason)

	docs, err := s.store.Recent(ctx, limit)
	if err != nil {
		logger.Error("recent work logs listing failed",
			observability.String("reason", reason),
			observability.Error(err))
		return RetrievalResult{}, fmt.Errorf("%w: %w", ErrRetrievalUnavailable, err)
	}

	for i := range docs {
		docs[i].Score = nil
	}

	logger.Info("retrieval degraded to recent work logs",
		observability.String("reason", reason),
		observability.Int("documents", len(docs)))

	return RetrievalResult{Documents: docs, Degraded: true}, nil
}
