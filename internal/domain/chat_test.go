package domain_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/scribe/internal/cache/memory"
	"github.com/davidbz/scribe/internal/domain"
	"github.com/davidbz/scribe/internal/mocks"
)

type chatFixture struct {
	generator *mocks.MockEmbeddingGenerator
	store     *mocks.MockDocumentStore
	provider  *mocks.MockCompletionProvider
	history   *mocks.MockChatHistoryStore
	runner    *domain.BackgroundRunner
	service   *domain.ChatService
}

func newChatFixture(t *testing.T, completionTimeout time.Duration) *chatFixture {
	t.Helper()

	f := &chatFixture{
		generator: mocks.NewMockEmbeddingGenerator(t),
		store:     mocks.NewMockDocumentStore(t),
		provider:  mocks.NewMockCompletionProvider(t),
		history:   mocks.NewMockChatHistoryStore(t),
		runner:    domain.NewBackgroundRunner(time.Second),
	}
	f.generator.EXPECT().Name().Return("fake-embedder").Maybe()
	f.generator.EXPECT().Dimension().Return(0).Maybe()
	f.provider.EXPECT().Name().Return("fake").Maybe()

	registry := mocks.NewMockProviderRegistry(t)
	registry.EXPECT().Get(mock.Anything, "fake").Return(f.provider, nil).Maybe()

	settings := testCompletionSettings
	settings.Timeout = completionTimeout

	f.service = domain.NewChatService(
		domain.NewEmbeddingService(f.generator, memory.New[[]float64]("embedding"), time.Minute),
		domain.NewRetrievalService(f.store, memory.New[domain.RetrievalResult]("search"),
			domain.RetrievalConfig{TTL: time.Minute}, nil),
		domain.NewContextAssembler(0),
		domain.NewCompletionService(registry, domain.NewCostCalculator(domain.NewPricingTable()),
			settings, domain.NewLatencyWindow(10), nil),
		f.history,
		f.runner,
		nil,
		domain.ChatSettings{SearchLimit: 5},
	)

	// Registered last so background tasks finish before mock expectations are checked.
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = f.runner.Wait(ctx)
	})

	return f
}

func (f *chatFixture) answers(content string) {
	f.provider.EXPECT().Complete(mock.Anything, mock.Anything).
		Return(&domain.CompletionResponse{Model: "fake-model", Content: content}, nil)
}

func TestChatService_Answer_NoContext(t *testing.T) {
	f := newChatFixture(t, time.Second)
	question := "What did Alice work on this week?"

	f.generator.EXPECT().Generate(mock.Anything, question).Return([]float64{0.1, 0.2}, nil).Once()
	f.store.EXPECT().SimilaritySearch(mock.Anything, mock.Anything, 50, 5).Return(nil, nil).Once()
	f.store.EXPECT().Recent(mock.Anything, 5).Return(nil, nil).Once()
	f.history.EXPECT().Append(mock.Anything, mock.MatchedBy(func(e *domain.ConversationExchange) bool {
		return e.ContextDocuments == 0 && e.Answer == domain.DefaultNoContextAnswer
	})).Return(nil).Once()

	resp, err := f.service.Answer(context.Background(), domain.ChatRequest{Message: question})
	require.NoError(t, err)
	require.Equal(t, 0, resp.ContextLogsCount)
	require.Equal(t, domain.DefaultNoContextAnswer, resp.Response)
	require.Equal(t, question, resp.Message)
	require.NotEmpty(t, resp.SessionID)
	require.Zero(t, resp.Timings.AI)
	require.True(t, resp.Degraded)

	require.NoError(t, f.runner.Wait(context.Background()))
	f.provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestChatService_Answer_CoalescesConcurrentQuestions(t *testing.T) {
	f := newChatFixture(t, time.Second)
	question := "What did Alice ship?"

	f.generator.EXPECT().Generate(mock.Anything, question).
		RunAndReturn(func(context.Context, string) ([]float64, error) {
			time.Sleep(100 * time.Millisecond)
			return []float64{0.3, 0.1, 0.7}, nil
		}).Once()
	f.store.EXPECT().SimilaritySearch(mock.Anything, mock.Anything, 50, 5).
		Return([]domain.RetrievedDocument{
			workLog("1", "billing migration", score(0.9)),
			workLog("2", "login fix", score(0.8)),
		}, nil).Once()
	f.answers("Alice shipped the billing migration.")
	f.history.EXPECT().Append(mock.Anything, mock.Anything).Return(nil).Times(2)

	const callers = 2
	var wg sync.WaitGroup
	responses := make([]*domain.ChatResponse, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			responses[i], errs[i] = f.service.Answer(context.Background(), domain.ChatRequest{Message: question})
		}()
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, 2, responses[i].ContextLogsCount)
	}
	require.NoError(t, f.runner.Wait(context.Background()))
}

func TestChatService_Answer_ReusesCachedRetrieval(t *testing.T) {
	f := newChatFixture(t, time.Second)
	question := "Who fixed login?"

	f.generator.EXPECT().Generate(mock.Anything, question).Return([]float64{0.5, 0.5}, nil).Once()
	f.store.EXPECT().SimilaritySearch(mock.Anything, mock.Anything, 50, 5).
		Return([]domain.RetrievedDocument{
			workLog("2", "login fix", score(0.95)),
			workLog("1", "billing migration", score(0.4)),
		}, nil).Once()
	// Answers are generated afresh even when retrieval is served from cache.
	f.provider.EXPECT().Complete(mock.Anything, mock.Anything).
		Return(&domain.CompletionResponse{Model: "fake-model", Content: "Alice fixed login."}, nil).Times(2)
	f.history.EXPECT().Append(mock.Anything, mock.Anything).Return(nil).Times(2)

	first, err := f.service.Answer(context.Background(), domain.ChatRequest{Message: question})
	require.NoError(t, err)
	second, err := f.service.Answer(context.Background(), domain.ChatRequest{Message: question})
	require.NoError(t, err)

	titles := func(resp *domain.ChatResponse) []string {
		out := make([]string, 0, len(resp.Sources))
		for _, doc := range resp.Sources {
			out = append(out, doc.Title)
		}
		return out
	}
	require.Equal(t, []string{"login fix", "billing migration"}, titles(first))
	require.Equal(t, titles(first), titles(second))
}

func TestChatService_Answer_CompletionTimeout(t *testing.T) {
	f := newChatFixture(t, 50*time.Millisecond)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	f.generator.EXPECT().Generate(mock.Anything, "slow question").Return([]float64{0.2}, nil).Once()
	f.store.EXPECT().SimilaritySearch(mock.Anything, mock.Anything, 50, 5).
		Return([]domain.RetrievedDocument{workLog("1", "billing migration", score(0.9))}, nil).Once()
	f.provider.EXPECT().Complete(mock.Anything, mock.Anything).
		RunAndReturn(func(context.Context, *domain.CompletionRequest) (*domain.CompletionResponse, error) {
			<-release
			return nil, errors.New("too late")
		}).Once()

	start := time.Now()
	_, err := f.service.Answer(context.Background(), domain.ChatRequest{Message: "slow question"})
	require.ErrorIs(t, err, domain.ErrCompletionTimeout)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestChatService_Answer_PersistenceFailureIsNotSurfaced(t *testing.T) {
	f := newChatFixture(t, time.Second)

	f.generator.EXPECT().Generate(mock.Anything, "status?").Return([]float64{0.2, 0.4}, nil).Once()
	f.store.EXPECT().SimilaritySearch(mock.Anything, mock.Anything, 50, 5).
		Return([]domain.RetrievedDocument{workLog("1", "billing migration", score(0.9))}, nil).Once()
	f.answers("On track.")
	f.history.EXPECT().Append(mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

	resp, err := f.service.Answer(context.Background(), domain.ChatRequest{Message: "status?", SessionID: "session-1"})
	require.NoError(t, err)
	require.Equal(t, "On track.", resp.Response)
	require.Equal(t, "session-1", resp.SessionID)
	require.Equal(t, 1, resp.ContextLogsCount)
	require.False(t, resp.Degraded)

	require.NoError(t, f.runner.Wait(context.Background()))
}

func TestChatService_Answer_DegradedRetrievalStillAnswers(t *testing.T) {
	f := newChatFixture(t, time.Second)

	f.generator.EXPECT().Generate(mock.Anything, "anything new?").Return([]float64{0.9}, nil).Once()
	f.store.EXPECT().SimilaritySearch(mock.Anything, mock.Anything, 50, 5).
		Return(nil, errors.New("vector index missing")).Once()
	f.store.EXPECT().Recent(mock.Anything, 5).
		Return([]domain.RetrievedDocument{workLog("9", "weekly notes", nil)}, nil).Once()
	f.answers("Weekly notes were posted.")
	f.history.EXPECT().Append(mock.Anything, mock.MatchedBy(func(e *domain.ConversationExchange) bool {
		return e.Degraded && e.ContextDocuments == 1
	})).Return(nil).Once()

	resp, err := f.service.Answer(context.Background(), domain.ChatRequest{Message: "anything new?"})
	require.NoError(t, err)
	require.True(t, resp.Degraded)
	require.Equal(t, 1, resp.ContextLogsCount)
	require.Nil(t, resp.Sources[0].Score)
}

func TestChatService_Answer_Failures(t *testing.T) {
	t.Run("empty message is rejected before any upstream call", func(t *testing.T) {
		f := newChatFixture(t, time.Second)

		_, err := f.service.Answer(context.Background(), domain.ChatRequest{Message: "  \n "})
		require.ErrorIs(t, err, domain.ErrInvalidInput)

		f.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})

	t.Run("embedding failure stops the pipeline", func(t *testing.T) {
		f := newChatFixture(t, time.Second)
		f.generator.EXPECT().Generate(mock.Anything, "hello").Return(nil, errors.New("quota exceeded")).Once()

		_, err := f.service.Answer(context.Background(), domain.ChatRequest{Message: "hello"})
		require.ErrorIs(t, err, domain.ErrEmbeddingFailed)

		f.store.AssertNotCalled(t, "SimilaritySearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
