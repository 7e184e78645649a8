package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache lookup outcomes.
const (
	CacheHit       = "hit"
	CacheMiss      = "miss"
	CacheCoalesced = "coalesced"
)

// Metrics wraps the service's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	cacheRequests      *prometheus.CounterVec
	phaseLatency       *prometheus.HistogramVec
	retrievalDegraded  *prometheus.CounterVec
	completionOutcomes *prometheus.CounterVec
	completionCost     prometheus.Counter
	chatRequests       *prometheus.CounterVec
	persistFailures    prometheus.Counter
}

// MetricsOption customizes metrics construction.
type MetricsOption func(*metricsConfig)

type metricsConfig struct {
	registerer prometheus.Registerer
	buckets    []float64
}

// WithRegisterer overrides the default Prometheus registerer.
func WithRegisterer(r prometheus.Registerer) MetricsOption {
	return func(cfg *metricsConfig) {
		cfg.registerer = r
	}
}

// WithLatencyBuckets overrides the default latency histogram buckets (in ms).
func WithLatencyBuckets(buckets []float64) MetricsOption {
	return func(cfg *metricsConfig) {
		cfg.buckets = buckets
	}
}

// NewMetrics constructs Metrics and registers the collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := metricsConfig{
		registerer: prometheus.DefaultRegisterer,
		buckets:    []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Metrics{
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_cache_requests_total",
			Help: "Cache lookups by cache name and outcome (hit, miss, coalesced).",
		}, []string{"cache", "result"}),
		phaseLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scribe_pipeline_phase_duration_ms",
			Help:    "Latency of chat pipeline phases in milliseconds.",
			Buckets: cfg.buckets,
		}, []string{"phase"}),
		retrievalDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_retrieval_degraded_total",
			Help: "Semantic searches replaced by the recency fallback, by reason.",
		}, []string{"reason"}),
		completionOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_completion_requests_total",
			Help: "Completion calls by outcome.",
		}, []string{"outcome"}),
		completionCost: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scribe_completion_cost_usd_total",
			Help: "Accumulated completion cost in USD.",
		}),
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_chat_requests_total",
			Help: "Chat pipeline runs by terminal outcome.",
		}, []string{"outcome"}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scribe_history_persist_failures_total",
			Help: "Conversation exchanges that could not be persisted.",
		}),
	}

	if cfg.registerer != nil {
		cfg.registerer.MustRegister(
			m.cacheRequests,
			m.phaseLatency,
			m.retrievalDegraded,
			m.completionOutcomes,
			m.completionCost,
			m.chatRequests,
			m.persistFailures,
		)
	}

	return m
}

// ObserveCache records a cache lookup outcome.
func (m *Metrics) ObserveCache(cache, result string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(cache, result).Inc()
}

// ObservePhase records the latency of a pipeline phase.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseLatency.WithLabelValues(phase).Observe(float64(d.Milliseconds()))
}

// IncRetrievalDegraded records a fallback to the recency listing.
func (m *Metrics) IncRetrievalDegraded(reason string) {
	if m == nil {
		return
	}
	m.retrievalDegraded.WithLabelValues(reason).Inc()
}

// ObserveCompletion records a completion outcome and its cost.
func (m *Metrics) ObserveCompletion(outcome string, cost float64) {
	if m == nil {
		return
	}
	m.completionOutcomes.WithLabelValues(outcome).Inc()
	if cost > 0 {
		m.completionCost.Add(cost)
	}
}

// IncChat records the terminal outcome of a chat pipeline run.
func (m *Metrics) IncChat(outcome string) {
	if m == nil {
		return
	}
	m.chatRequests.WithLabelValues(outcome).Inc()
}

// IncPersistFailure records a failed history write.
func (m *Metrics) IncPersistFailure() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}
