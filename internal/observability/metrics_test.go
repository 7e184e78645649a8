package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/scribe/internal/observability"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *observability.Metrics

	require.NotPanics(t, func() {
		m.ObserveCache("embedding", observability.CacheHit)
		m.ObservePhase("search", time.Millisecond)
		m.IncRetrievalDegraded("empty")
		m.ObserveCompletion("ok", 0.01)
		m.IncChat("answered")
		m.IncPersistFailure()
	})
}

func TestMetrics_RecordsToRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(observability.WithRegisterer(reg))

	m.ObserveCache("embedding", observability.CacheHit)
	m.ObserveCache("embedding", observability.CacheHit)
	m.ObserveCache("search", observability.CacheCoalesced)
	m.IncRetrievalDegraded("error")

	count, err := testutil.GatherAndCount(reg, "scribe_cache_requests_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(reg, "scribe_retrieval_degraded_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestContextIDs(t *testing.T) {
	t.Run("should round-trip session id", func(t *testing.T) {
		ctx := observability.WithSessionID(context.Background(), "sess-1")
		require.Equal(t, "sess-1", observability.GetSessionID(ctx))
		require.Empty(t, observability.GetTraceID(ctx))
	})

	t.Run("should generate ids of the expected width", func(t *testing.T) {
		require.Len(t, observability.GenerateTraceID(), 32)
		require.Len(t, observability.GenerateSpanID(), 16)
		require.NotEqual(t, observability.GenerateSessionID(), observability.GenerateSessionID())
	})
}
