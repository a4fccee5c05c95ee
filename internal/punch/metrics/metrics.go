package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for punch registration and signal collection.
// All methods are safe to call on a nil receiver.
type Metrics struct {
	RegisterOutcomes  *prometheus.CounterVec
	RegisterDuration  prometheus.Histogram
	LookupDuration    *prometheus.HistogramVec
	LookupFailures    *prometheus.CounterVec
	SignalCache       *prometheus.CounterVec
	BackoffEngaged    prometheus.Counter
	RiskScore         prometheus.Histogram
	GeocodeUnresolved prometheus.Counter
}

// New creates a new Metrics instance with all punch module metrics registered.
func New() *Metrics {
	return &Metrics{
		RegisterOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "punchclock_register_outcomes_total",
			Help: "Punch registrations by outcome and reason code",
		}, []string{"outcome", "reason"}),
		RegisterDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "punchclock_register_duration_seconds",
			Help:    "End-to-end latency of punch registration",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		LookupDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "punchclock_signal_lookup_duration_seconds",
			Help:    "Latency of signal sub-lookups by source",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"source"}),
		LookupFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "punchclock_signal_lookup_failures_total",
			Help: "Failed or timed out signal sub-lookups by source",
		}, []string{"source"}),
		SignalCache: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "punchclock_signal_cache_total",
			Help: "Signal cache results (hit, miss, stale, shared)",
		}, []string{"result"}),
		BackoffEngaged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "punchclock_signal_backoff_engaged_total",
			Help: "Times the signal collector entered backoff after consecutive failures",
		}),
		RiskScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "punchclock_risk_score",
			Help:    "Distribution of computed risk scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		GeocodeUnresolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "punchclock_geocode_unresolved_total",
			Help: "Registrations stored with an unknown address",
		}),
	}
}

func (m *Metrics) IncrementOutcome(outcome, reason string) {
	if m == nil {
		return
	}
	m.RegisterOutcomes.WithLabelValues(outcome, reason).Inc()
}

// ObserveRegister records the duration of a Register call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRegister(start time.Time) {
	if m == nil {
		return
	}
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveLookup(source string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.LookupDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		m.LookupFailures.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) IncrementCache(result string) {
	if m == nil {
		return
	}
	m.SignalCache.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementBackoff() {
	if m == nil {
		return
	}
	m.BackoffEngaged.Inc()
}

func (m *Metrics) ObserveRiskScore(score int) {
	if m == nil {
		return
	}
	m.RiskScore.Observe(float64(score))
}

func (m *Metrics) IncrementGeocodeUnresolved() {
	if m == nil {
		return
	}
	m.GeocodeUnresolved.Inc()
}
