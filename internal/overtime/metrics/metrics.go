package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the overtime workflow.
// All methods are safe to call on a nil receiver.
type Metrics struct {
	Requests         prometheus.Counter
	RequestedMinutes prometheus.Histogram
	Reviews          *prometheus.CounterVec
}

// New creates a new Metrics instance with all overtime metrics registered.
func New() *Metrics {
	return &Metrics{
		Requests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "punchclock_overtime_requests_total",
			Help: "Overtime requests created",
		}),
		RequestedMinutes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "punchclock_overtime_requested_minutes",
			Help:    "Length of requested overtime windows",
			Buckets: []float64{15, 30, 60, 120, 180, 240, 360},
		}),
		Reviews: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "punchclock_overtime_reviews_total",
			Help: "Overtime reviews by resulting status",
		}, []string{"status"}),
	}
}

func (m *Metrics) ObserveRequest(minutes int) {
	if m == nil {
		return
	}
	m.Requests.Inc()
	m.RequestedMinutes.Observe(float64(minutes))
}

func (m *Metrics) IncrementReview(status string) {
	if m == nil {
		return
	}
	m.Reviews.WithLabelValues(status).Inc()
}
