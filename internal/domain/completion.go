package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidbz/scribe/internal/observability"
)

// Completion outcomes, used as metric labels.
const (
	completionOK              = "ok"
	completionTimeout         = "timeout"
	completionInvalidResponse = "invalid_response"
	completionTransport       = "transport"
)

// DefaultCompletionTimeout bounds a completion when no positive timeout is configured.
const DefaultCompletionTimeout = 30 * time.Second

// CompletionSettings are the fixed generation parameters of every answer.
type CompletionSettings struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
	Timeout     time.Duration
}

// CompletionService asks the configured LLM provider for an answer under a hard
// deadline. Answers are never cached.
type CompletionService struct {
	registry ProviderRegistry
	costs    *CostCalculator
	settings CompletionSettings
	latency  *LatencyWindow
	metrics  *observability.Metrics
}

// NewCompletionService creates a completion service (DI constructor).
func NewCompletionService(
	registry ProviderRegistry,
	costs *CostCalculator,
	settings CompletionSettings,
	latency *LatencyWindow,
	metrics *observability.Metrics,
) *CompletionService {
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultCompletionTimeout
	}

	return &CompletionService{
		registry: registry,
		costs:    costs,
		settings: settings,
		latency:  latency,
		metrics:  metrics,
	}
}

type completionResult struct {
	resp *CompletionResponse
	err  error
}

// Complete sends the system prompt and the user's question and returns the
// answer text. Failures match ErrCompletionUnavailable and one of
// ErrCompletionTimeout, ErrCompletionInvalidResponse or ErrCompletionTransport.
func (s *CompletionService) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	logger := observability.FromContext(ctx)

	provider, err := s.registry.Get(ctx, s.settings.Provider)
	if err != nil {
		s.metrics.ObserveCompletion(completionTransport, 0)
		return "", fmt.Errorf("%w: %w", ErrCompletionTransport, err)
	}

	req := &CompletionRequest{
		Model: s.settings.Model,
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: userMessage},
		},
		Temperature: s.settings.Temperature,
		TopP:        s.settings.TopP,
		MaxTokens:   s.settings.MaxTokens,
	}

	callCtx, cancel := context.WithTimeout(ctx, s.settings.Timeout)
	defer cancel()

	start := time.Now()
	done := make(chan completionResult, 1)
	go func() {
		resp, err := provider.Complete(callCtx, req)
		done <- completionResult{resp: resp, err: err}
	}()

	var result completionResult
	select {
	case result = <-done:
	case <-callCtx.Done():
		result = completionResult{err: callCtx.Err()}
	}
	elapsed := time.Since(start)
	s.latency.Record(elapsed)

	answer, err := s.interpret(callCtx, result)
	if err != nil {
		logger.Error("completion failed",
			observability.String("provider", provider.Name()),
			observability.String("model", req.Model),
			observability.Duration("duration", elapsed),
			observability.Error(err))
		return "", err
	}

	cost := s.costs.Cost(ctx, result.resp.Model, result.resp.Usage)
	s.metrics.ObserveCompletion(completionOK, cost)

	logger.Info("completion succeeded",
		observability.String("provider", provider.Name()),
		observability.String("model", result.resp.Model),
		observability.Int("total_tokens", result.resp.Usage.TotalTokens),
		observability.Float64("cost_usd", cost),
		observability.Duration("duration", elapsed))

	return answer, nil
}

// interpret classifies a provider result into an answer or a typed error.
func (s *CompletionService) interpret(callCtx context.Context, result completionResult) (string, error) {
	switch {
	case result.err != nil && (errors.Is(result.err, context.DeadlineExceeded) ||
		errors.Is(callCtx.Err(), context.DeadlineExceeded)):
		s.metrics.ObserveCompletion(completionTimeout, 0)
		return "", fmt.Errorf("%w after %s", ErrCompletionTimeout, s.settings.Timeout)
	case result.err != nil:
		s.metrics.ObserveCompletion(completionTransport, 0)
		return "", fmt.Errorf("%w: %w", ErrCompletionTransport, result.err)
	case result.resp == nil || strings.TrimSpace(result.resp.Content) == "":
		s.metrics.ObserveCompletion(completionInvalidResponse, 0)
		return "", ErrCompletionInvalidResponse
	}
	return strings.TrimSpace(result.resp.Content), nil
}

// AverageLatency returns the mean duration of recent completion attempts and
// the number of attempts it covers.
func (s *CompletionService) AverageLatency() (time.Duration, int) {
	return s.latency.Average()
}
