package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/davidbz/scribe/internal/observability"
)

// EmbeddingService turns question text into a vector through a process-wide
// cache, so repeated or concurrent requests for the same text embed once.
type EmbeddingService struct {
	generator EmbeddingGenerator
	cache     ComputeCache[[]float64]
	ttl       time.Duration
}

// NewEmbeddingService creates an embedding service (DI constructor).
func NewEmbeddingService(generator EmbeddingGenerator, cache ComputeCache[[]float64], ttl time.Duration) *EmbeddingService {
	return &EmbeddingService{
		generator: generator,
		cache:     cache,
		ttl:       ttl,
	}
}

// Embed returns the embedding of text. The returned slice is shared with the
// cache and other callers and must not be modified.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float64, error) {
	text = NormalizeQuestion(text)
	if text == "" {
		return nil, &InputError{Reason: "text cannot be empty"}
	}

	vector, err := s.cache.GetOrCompute(ctx, TextKey(text), s.ttl, func(ctx context.Context) ([]float64, error) {
		return s.generate(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return vector, nil
}

func (s *EmbeddingService) generate(ctx context.Context, text string) ([]float64, error) {
	logger := observability.FromContext(ctx)

	vector, err := s.generator.Generate(ctx, text)
	if err != nil {
		logger.Error("embedding generation failed",
			observability.String("generator", s.generator.Name()),
			observability.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	if err := s.validate(vector); err != nil {
		logger.Error("embedding rejected",
			observability.String("generator", s.generator.Name()),
			observability.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	logger.Debug("embedding generated",
		observability.Int("embedding_dimension", len(vector)))

	return vector, nil
}

func (s *EmbeddingService) validate(vector []float64) error {
	if len(vector) == 0 {
		return errors.New("empty vector")
	}

	if dim := s.generator.Dimension(); dim > 0 && len(vector) != dim {
		return fmt.Errorf("vector has %d dimensions, expected %d", len(vector), dim)
	}

	for _, v := range vector {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("vector contains non-finite values")
		}
	}

	return nil
}
