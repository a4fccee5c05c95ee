package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the approval queue.
// All methods are safe to call on a nil receiver.
type Metrics struct {
	Enqueued        prometheus.Counter
	Decisions       *prometheus.CounterVec
	DeniedDecisions *prometheus.CounterVec
	TimeToDecision  prometheus.Histogram
}

// New creates a new Metrics instance with all approval metrics registered.
func New() *Metrics {
	return &Metrics{
		Enqueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "punchclock_approvals_enqueued_total",
			Help: "Punches escalated to human review",
		}),
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "punchclock_approval_decisions_total",
			Help: "Reviewer decisions by verdict",
		}, []string{"decision"}),
		DeniedDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "punchclock_approval_decisions_denied_total",
			Help: "Refused decision attempts by reason",
		}, []string{"reason"}),
		TimeToDecision: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "punchclock_approval_time_to_decision_seconds",
			Help:    "Time an entry waited in the queue before a decision",
			Buckets: []float64{60, 300, 900, 3600, 4 * 3600, 12 * 3600, 24 * 3600, 72 * 3600},
		}),
	}
}

func (m *Metrics) IncrementEnqueued() {
	if m == nil {
		return
	}
	m.Enqueued.Inc()
}

// ObserveDecision records a decision on an entry created at enqueuedAt.
func (m *Metrics) ObserveDecision(decision string, enqueuedAt, decidedAt time.Time) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(decision).Inc()
	m.TimeToDecision.Observe(decidedAt.Sub(enqueuedAt).Seconds())
}

func (m *Metrics) IncrementDenied(reason string) {
	if m == nil {
		return
	}
	m.DeniedDecisions.WithLabelValues(reason).Inc()
}
