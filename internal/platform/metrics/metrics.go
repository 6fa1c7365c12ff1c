package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the application-specific Prometheus collectors.
var Registry = prometheus.NewRegistry()

// Handler serves the service registry over HTTP.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ImportMetrics covers the scheduled import coordinator: one duration sample
// and one outcome count per attempt, a counter per scheduled retry, and one
// exhaustion count per run that burned every attempt.
type ImportMetrics struct {
	AttemptDuration  *prometheus.HistogramVec
	AttemptsTotal    *prometheus.CounterVec
	RetriesScheduled *prometheus.CounterVec
	RunsExhausted    prometheus.Counter
}

// NewImportMetrics registers the import collectors with reg.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	factory := promauto.With(reg)
	return &ImportMetrics{
		AttemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "currency_service",
				Subsystem: "import",
				Name:      "attempt_duration_seconds",
				Help:      "Duration of import attempts.",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
			},
			[]string{"outcome", "attempt"},
		),
		AttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "currency_service",
				Subsystem: "import",
				Name:      "attempts_total",
				Help:      "Import attempts by outcome and error kind.",
			},
			[]string{"outcome", "attempt", "error_kind"},
		),
		RetriesScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "currency_service",
				Subsystem: "import",
				Name:      "retries_scheduled_total",
				Help:      "Retries scheduled after failed attempts, by the attempt they will run as.",
			},
			[]string{"next_attempt"},
		),
		RunsExhausted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "currency_service",
				Subsystem: "import",
				Name:      "runs_exhausted_total",
				Help:      "Import runs that failed every configured attempt.",
			},
		),
	}
}

// ObserveAttempt records the duration sample and outcome count for one attempt.
func (m *ImportMetrics) ObserveAttempt(outcome string, attempt int, errorKind string, seconds float64) {
	attemptLabel := strconv.Itoa(attempt)
	m.AttemptDuration.WithLabelValues(outcome, attemptLabel).Observe(seconds)
	m.AttemptsTotal.WithLabelValues(outcome, attemptLabel, errorKind).Inc()
}

// ObserveRetryScheduled records that a retry was queued to run as nextAttempt.
func (m *ImportMetrics) ObserveRetryScheduled(nextAttempt int) {
	m.RetriesScheduled.WithLabelValues(strconv.Itoa(nextAttempt)).Inc()
}
