package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "oncall"
	subsystem = "chat"
)

// ChatMetrics exposes counters/histograms for the duty chat pipeline.
type ChatMetrics struct {
	turnsTotal       *prometheus.CounterVec
	turnLatency      *prometheus.HistogramVec
	contextConflicts *prometheus.CounterVec
	fallbackTotal    *prometheus.CounterVec
	rateLimited      prometheus.Counter
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "turns_total",
			Help:      "Chat turns handled, by outcome and resolution path",
		}, []string{"outcome", "path"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "turn_latency_seconds",
			Help:      "Time spent resolving a chat turn",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"outcome"}),
		contextConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "context_conflicts_total",
			Help:      "Optimistic-lock retries in external context stores",
		}, []string{"store"}),
		fallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fallback_total",
			Help:      "Fallback answer calls for unmatched questions",
		}, []string{"provider", "status"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rate_limited_total",
			Help:      "Chat requests rejected by the per-session limiter",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.turnLatency, m.contextConflicts, m.fallbackTotal, m.rateLimited)
	return m
}

func (m *ChatMetrics) ObserveTurn(outcome, path string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome, path).Inc()
	m.turnLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *ChatMetrics) ObserveContextConflict(store string) {
	if m == nil {
		return
	}
	m.contextConflicts.WithLabelValues(store).Inc()
}

func (m *ChatMetrics) ObserveFallback(provider string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.fallbackTotal.WithLabelValues(provider, status).Inc()
}

func (m *ChatMetrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
