package domain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/scribe/internal/domain"
	"github.com/davidbz/scribe/internal/mocks"
)

var testCompletionSettings = domain.CompletionSettings{
	Provider:    "fake",
	Model:       "fake-model",
	MaxTokens:   500,
	Temperature: 0.3,
	TopP:        0.9,
	Timeout:     time.Second,
}

func newCompletionService(
	t *testing.T,
	settings domain.CompletionSettings,
) (*domain.CompletionService, *mocks.MockCompletionProvider) {
	t.Helper()

	provider := mocks.NewMockCompletionProvider(t)
	provider.EXPECT().Name().Return("fake").Maybe()

	registry := mocks.NewMockProviderRegistry(t)
	registry.EXPECT().Get(mock.Anything, "fake").Return(provider, nil).Maybe()

	service := domain.NewCompletionService(
		registry,
		domain.NewCostCalculator(domain.NewPricingTable()),
		settings,
		domain.NewLatencyWindow(10),
		nil,
	)
	return service, provider
}

func TestCompletionService_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("sends a system and a user message with fixed parameters", func(t *testing.T) {
		service, provider := newCompletionService(t, testCompletionSettings)

		var sent *domain.CompletionRequest
		provider.EXPECT().Complete(mock.Anything, mock.Anything).
			RunAndReturn(func(_ context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
				sent = req
				return &domain.CompletionResponse{Model: req.Model, Content: "  Alice shipped it.\n"}, nil
			}).Once()

		answer, err := service.Complete(ctx, "system prompt", "what happened?")
		require.NoError(t, err)
		require.Equal(t, "Alice shipped it.", answer)

		require.NotNil(t, sent)
		require.Equal(t, "fake-model", sent.Model)
		require.Equal(t, 500, sent.MaxTokens)
		require.InDelta(t, 0.3, sent.Temperature, 1e-9)
		require.InDelta(t, 0.9, sent.TopP, 1e-9)
		require.Equal(t, []domain.Message{
			{Role: domain.RoleSystem, Content: "system prompt"},
			{Role: domain.RoleUser, Content: "what happened?"},
		}, sent.Messages)

		_, samples := service.AverageLatency()
		require.Equal(t, 1, samples)
	})

	t.Run("uses the default timeout when none is configured", func(t *testing.T) {
		settings := testCompletionSettings
		settings.Timeout = 0
		service, provider := newCompletionService(t, settings)

		var deadline time.Time
		provider.EXPECT().Complete(mock.Anything, mock.Anything).
			RunAndReturn(func(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
				deadline, _ = ctx.Deadline()
				return &domain.CompletionResponse{Model: req.Model, Content: "answered"}, nil
			}).Once()

		start := time.Now()
		answer, err := service.Complete(ctx, "system prompt", "what happened?")
		require.NoError(t, err)
		require.Equal(t, "answered", answer)
		require.WithinDuration(t, start.Add(domain.DefaultCompletionTimeout), deadline, 5*time.Second)
	})

	t.Run("times out a provider that never answers", func(t *testing.T) {
		settings := testCompletionSettings
		settings.Timeout = 50 * time.Millisecond
		service, provider := newCompletionService(t, settings)

		release := make(chan struct{})
		t.Cleanup(func() { close(release) })

		provider.EXPECT().Complete(mock.Anything, mock.Anything).
			RunAndReturn(func(context.Context, *domain.CompletionRequest) (*domain.CompletionResponse, error) {
				<-release
				return &domain.CompletionResponse{Content: "too late"}, nil
			}).Once()

		start := time.Now()
		_, err := service.Complete(ctx, "system", "question")
		require.ErrorIs(t, err, domain.ErrCompletionTimeout)
		require.ErrorIs(t, err, domain.ErrCompletionUnavailable)
		require.Less(t, time.Since(start), 500*time.Millisecond)

		_, samples := service.AverageLatency()
		require.Equal(t, 1, samples)
	})

	t.Run("cancels the outbound call on timeout", func(t *testing.T) {
		settings := testCompletionSettings
		settings.Timeout = 20 * time.Millisecond
		service, provider := newCompletionService(t, settings)

		cancelled := make(chan struct{})
		provider.EXPECT().Complete(mock.Anything, mock.Anything).
			RunAndReturn(func(ctx context.Context, _ *domain.CompletionRequest) (*domain.CompletionResponse, error) {
				<-ctx.Done()
				close(cancelled)
				return nil, ctx.Err()
			}).Once()

		_, err := service.Complete(ctx, "system", "question")
		require.ErrorIs(t, err, domain.ErrCompletionTimeout)

		select {
		case <-cancelled:
		case <-time.After(time.Second):
			t.Fatal("provider context was not cancelled")
		}
	})

	t.Run("rejects an empty answer", func(t *testing.T) {
		service, provider := newCompletionService(t, testCompletionSettings)
		provider.EXPECT().Complete(mock.Anything, mock.Anything).
			Return(&domain.CompletionResponse{Content: "   "}, nil).Once()

		_, err := service.Complete(ctx, "system", "question")
		require.ErrorIs(t, err, domain.ErrCompletionInvalidResponse)
		require.ErrorIs(t, err, domain.ErrCompletionUnavailable)
	})

	t.Run("classifies provider failures as transport errors", func(t *testing.T) {
		service, provider := newCompletionService(t, testCompletionSettings)
		upstream := errors.New("502 bad gateway")
		provider.EXPECT().Complete(mock.Anything, mock.Anything).Return(nil, upstream).Once()

		_, err := service.Complete(ctx, "system", "question")
		require.ErrorIs(t, err, domain.ErrCompletionTransport)
		require.ErrorIs(t, err, upstream)
	})

	t.Run("fails when the provider is not registered", func(t *testing.T) {
		registry := mocks.NewMockProviderRegistry(t)
		registry.EXPECT().Get(mock.Anything, "missing").Return(nil, errors.New("provider not found")).Once()

		settings := testCompletionSettings
		settings.Provider = "missing"
		service := domain.NewCompletionService(
			registry,
			domain.NewCostCalculator(domain.NewPricingTable()),
			settings,
			domain.NewLatencyWindow(10),
			nil,
		)

		_, err := service.Complete(ctx, "system", "question")
		require.ErrorIs(t, err, domain.ErrCompletionTransport)
	})
}
