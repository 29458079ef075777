package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the bot's Prometheus metrics: chat exchange outcomes,
// dispatch latency, budget evictions, and outbound chunk volume.
type Metrics struct {
	// ExchangeCounter counts chat exchanges by provider and outcome.
	// Labels: provider, status (success|error)
	ExchangeCounter *prometheus.CounterVec

	// DispatchDuration measures remote completion latency in seconds.
	// Labels: provider, model
	DispatchDuration *prometheus.HistogramVec

	// EvictedTurns counts history turns removed by budget enforcement.
	// Labels: provider
	EvictedTurns *prometheus.CounterVec

	// HistoryTokens tracks the serialized history token count after
	// enforcement. Labels: provider
	HistoryTokens *prometheus.GaugeVec

	// ChunksEmitted counts outbound message chunks. Labels: provider
	ChunksEmitted *prometheus.CounterVec

	// ResetCounter counts administrative history resets. Labels: provider
	ResetCounter *prometheus.CounterVec
}

// NewMetrics registers the bot's metrics on the given registerer. Pass a
// fresh prometheus.NewRegistry() in tests to keep registrations isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ExchangeCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "socksbot_exchanges_total",
			Help: "Chat exchanges by provider and outcome",
		}, []string{"provider", "status"}),
		DispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "socksbot_dispatch_duration_seconds",
			Help:    "Remote completion latency",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider", "model"}),
		EvictedTurns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "socksbot_evicted_turns_total",
			Help: "History turns evicted by budget enforcement",
		}, []string{"provider"}),
		HistoryTokens: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "socksbot_history_tokens",
			Help: "Serialized history token count after enforcement",
		}, []string{"provider"}),
		ChunksEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "socksbot_chunks_emitted_total",
			Help: "Outbound message chunks emitted",
		}, []string{"provider"}),
		ResetCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "socksbot_resets_total",
			Help: "Administrative history resets",
		}, []string{"provider"}),
	}
}
