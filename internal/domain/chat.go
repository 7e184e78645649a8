package domain

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/davidbz/scribe/internal/observability"
)

// DefaultNoContextAnswer is returned when no work log could be retrieved.
const DefaultNoContextAnswer = "I couldn't find any work logs to answer your question. " +
	"There may be no data recorded yet for this topic."

// Pipeline states, logged as the run progresses.
const (
	stateReceived       = "received"
	stateEmbeddingReady = "embedding_ready"
	stateRetrieved      = "retrieved"
	stateNoContext      = "no_context"
	stateContextBuilt   = "context_built"
	stateAnswered       = "answered"
)

// Pipeline phases, used as metric labels.
const (
	phaseEmbedding = "embedding"
	phaseSearch    = "search"
	phaseAI        = "ai"
	phaseTotal     = "total"
)

// Chat outcomes, used as metric labels.
const (
	outcomeAnswered  = "answered"
	outcomeNoContext = "no_context"
	outcomeInvalid   = "invalid"
	outcomeFailed    = "failed"
)

// ChatSettings tunes the chat pipeline.
type ChatSettings struct {
	// SearchLimit is the number of work logs retrieved per question.
	SearchLimit int

	// NoContextAnswer replaces the model's answer when nothing was retrieved.
	NoContextAnswer string
}

const defaultSearchLimit = 5

// ChatService answers questions about work logs: it embeds the question,
// retrieves related logs and asks the completion provider, in that order.
type ChatService struct {
	embeddings *EmbeddingService
	retrieval  *RetrievalService
	assembler  *ContextAssembler
	completion *CompletionService
	history    ChatHistoryStore
	runner     *BackgroundRunner
	metrics    *observability.Metrics
	settings   ChatSettings
}

// NewChatService creates a chat service (DI constructor). A nil history store
// disables persistence.
func NewChatService(
	embeddings *EmbeddingService,
	retrieval *RetrievalService,
	assembler *ContextAssembler,
	completion *CompletionService,
	history ChatHistoryStore,
	runner *BackgroundRunner,
	metrics *observability.Metrics,
	settings ChatSettings,
) *ChatService {
	if settings.SearchLimit <= 0 {
		settings.SearchLimit = defaultSearchLimit
	}
	if settings.NoContextAnswer == "" {
		settings.NoContextAnswer = DefaultNoContextAnswer
	}

	return &ChatService{
		embeddings: embeddings,
		retrieval:  retrieval,
		assembler:  assembler,
		completion: completion,
		history:    history,
		runner:     runner,
		metrics:    metrics,
		settings:   settings,
	}
}

// Answer runs the pipeline for one question. It fails with ErrInvalidInput for
// an empty message, ErrEmbeddingFailed when no vector could be produced and
// ErrCompletionUnavailable when the model did not answer. Retrieval problems
// degrade the answer instead of failing it.
func (s *ChatService) Answer(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	question := NormalizeQuestion(req.Message)
	if question == "" {
		s.metrics.IncChat(outcomeInvalid)
		return nil, &InputError{Reason: "message is required"}
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = observability.GenerateSessionID()
	}
	ctx = observability.WithSessionID(ctx, sessionID)

	ctx, span := observability.Tracer().Start(ctx, "chat.answer")
	defer span.End()

	logger := observability.FromContext(ctx)
	logger.Debug("chat pipeline", observability.String("state", stateReceived))

	resp := &ChatResponse{
		SessionID: sessionID,
		Message:   req.Message,
	}

	// Phase 1: embedding.
	phaseStart := time.Now()
	vector, err := s.embed(ctx, question)
	resp.Timings.Embedding = time.Since(phaseStart)
	s.metrics.ObservePhase(phaseEmbedding, resp.Timings.Embedding)
	if err != nil {
		return nil, s.fail(span, err)
	}
	logger.Debug("chat pipeline", observability.String("state", stateEmbeddingReady))

	// Phase 2: retrieval.
	phaseStart = time.Now()
	retrieved := s.search(ctx, vector)
	resp.Timings.Search = time.Since(phaseStart)
	s.metrics.ObservePhase(phaseSearch, resp.Timings.Search)
	resp.Degraded = retrieved.Degraded
	resp.Sources = retrieved.Documents
	logger.Debug("chat pipeline",
		observability.String("state", stateRetrieved),
		observability.Int("documents", len(retrieved.Documents)),
		observability.Bool("degraded", retrieved.Degraded))

	workLogs, ok := s.assembler.Build(retrieved.Documents)
	if !ok {
		resp.Response = s.settings.NoContextAnswer
		s.finish(ctx, span, resp, outcomeNoContext, stateNoContext, start)
		s.persist(ctx, question, resp)
		return resp, nil
	}
	logger.Debug("chat pipeline", observability.String("state", stateContextBuilt))

	// Phase 3: completion.
	phaseStart = time.Now()
	answer, err := s.complete(ctx, BuildSystemPrompt(workLogs), question)
	resp.Timings.AI = time.Since(phaseStart)
	s.metrics.ObservePhase(phaseAI, resp.Timings.AI)
	if err != nil {
		return nil, s.fail(span, err)
	}

	resp.Response = answer
	resp.ContextLogsCount = len(retrieved.Documents)
	s.finish(ctx, span, resp, outcomeAnswered, stateAnswered, start)
	s.persist(ctx, question, resp)

	return resp, nil
}

func (s *ChatService) embed(ctx context.Context, question string) ([]float64, error) {
	ctx, span := observability.Tracer().Start(ctx, "chat.embedding")
	defer span.End()

	vector, err := s.embeddings.Embed(ctx, question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		return nil, err
	}
	return vector, nil
}

func (s *ChatService) search(ctx context.Context, vector []float64) RetrievalResult {
	ctx, span := observability.Tracer().Start(ctx, "chat.search")
	defer span.End()

	result := s.retrieval.Search(ctx, vector, s.settings.SearchLimit)
	span.SetAttributes(
		attribute.Int("documents", len(result.Documents)),
		attribute.Bool("degraded", result.Degraded),
	)
	return result
}

func (s *ChatService) complete(ctx context.Context, systemPrompt, question string) (string, error) {
	ctx, span := observability.Tracer().Start(ctx, "chat.completion")
	defer span.End()

	answer, err := s.completion.Complete(ctx, systemPrompt, question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", err
	}
	return answer, nil
}

func (s *ChatService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.metrics.IncChat(outcomeFailed)
	return err
}

func (s *ChatService) finish(
	ctx context.Context,
	span trace.Span,
	resp *ChatResponse,
	outcome, state string,
	start time.Time,
) {
	resp.Timings.Total = time.Since(start)
	s.metrics.ObservePhase(phaseTotal, resp.Timings.Total)
	s.metrics.IncChat(outcome)

	span.SetAttributes(
		attribute.String("outcome", outcome),
		attribute.Int("context_logs_count", resp.ContextLogsCount),
	)

	observability.FromContext(ctx).Info("chat answered",
		observability.String("state", state),
		observability.Int("context_logs_count", resp.ContextLogsCount),
		observability.Bool("degraded", resp.Degraded),
		observability.Duration("embedding", resp.Timings.Embedding),
		observability.Duration("search", resp.Timings.Search),
		observability.Duration("ai", resp.Timings.AI),
		observability.Duration("total", resp.Timings.Total))
}

// persist stores the exchange in the background; the response is already final.
func (s *ChatService) persist(ctx context.Context, question string, resp *ChatResponse) {
	if s.history == nil {
		return
	}

	exchange := &ConversationExchange{
		SessionID:        resp.SessionID,
		Question:         question,
		Answer:           resp.Response,
		ContextDocuments: resp.ContextLogsCount,
		Degraded:         resp.Degraded,
		CreatedAt:        time.Now().UTC(),
	}

	s.runner.Go(ctx, "persist_exchange", func(ctx context.Context) error {
		if err := s.history.Append(ctx, exchange); err != nil {
			s.metrics.IncPersistFailure()
			return err
		}
		return nil
	})
}
