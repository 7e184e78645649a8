package domain_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/scribe/internal/cache/memory"
	"github.com/davidbz/scribe/internal/domain"
	"github.com/davidbz/scribe/internal/mocks"
)

func newEmbeddingService(t *testing.T, dimension int) (*domain.EmbeddingService, *mocks.MockEmbeddingGenerator) {
	t.Helper()

	generator := mocks.NewMockEmbeddingGenerator(t)
	generator.EXPECT().Name().Return("fake-embedder").Maybe()
	generator.EXPECT().Dimension().Return(dimension).Maybe()

	service := domain.NewEmbeddingService(generator, memory.New[[]float64]("embedding"), time.Minute)
	return service, generator
}

func TestEmbeddingService_Embed(t *testing.T) {
	ctx := context.Background()

	t.Run("embeds normalized text once", func(t *testing.T) {
		service, generator := newEmbeddingService(t, 3)
		vector := []float64{0.1, 0.2, 0.3}
		generator.EXPECT().Generate(mock.Anything, "What did Alice do?").Return(vector, nil).Once()

		first, err := service.Embed(ctx, "  What did   Alice do?")
		require.NoError(t, err)
		require.Equal(t, vector, first)

		second, err := service.Embed(ctx, "What did Alice do?\n")
		require.NoError(t, err)
		require.Equal(t, vector, second)
	})

	t.Run("rejects empty text without calling the generator", func(t *testing.T) {
		service, _ := newEmbeddingService(t, 3)

		_, err := service.Embed(ctx, " \t ")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("wraps generator failures and does not cache them", func(t *testing.T) {
		service, generator := newEmbeddingService(t, 3)
		upstream := errors.New("connection reset")
		generator.EXPECT().Generate(mock.Anything, "hello").Return(nil, upstream).Times(2)

		_, err := service.Embed(ctx, "hello")
		require.ErrorIs(t, err, domain.ErrEmbeddingFailed)
		require.ErrorIs(t, err, upstream)

		_, err = service.Embed(ctx, "hello")
		require.ErrorIs(t, err, domain.ErrEmbeddingFailed)
	})

	t.Run("rejects unusable vectors", func(t *testing.T) {
		tests := []struct {
			name   string
			vector []float64
		}{
			{name: "empty", vector: []float64{}},
			{name: "wrong dimension", vector: []float64{0.1, 0.2}},
			{name: "not a number", vector: []float64{0.1, math.NaN(), 0.3}},
			{name: "infinite", vector: []float64{0.1, math.Inf(1), 0.3}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				service, generator := newEmbeddingService(t, 3)
				generator.EXPECT().Generate(mock.Anything, "hello").Return(tt.vector, nil).Once()

				_, err := service.Embed(ctx, "hello")
				require.ErrorIs(t, err, domain.ErrEmbeddingFailed)
			})
		}
	})
}
