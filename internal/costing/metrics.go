package costing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records costing activity. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	runs       *prometheus.CounterVec
	lineErrors *prometheus.CounterVec
	duration   prometheus.Histogram
}

// NewMetrics builds the costing collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pxi_costing_runs_total",
				Help: "Costing runs by resolution path",
			},
			[]string{"path"},
		),
		lineErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pxi_costing_line_errors_total",
				Help: "Breakdown lines that could not be priced",
			},
			[]string{"problem"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pxi_costing_duration_seconds",
			Help:    "Time spent loading snapshots and computing a breakdown",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.lineErrors, m.duration)
	}
	return m
}

func (m *Metrics) observe(result Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	path := "recipe"
	if result.Fallback {
		path = "fallback"
	}
	m.runs.WithLabelValues(path).Inc()
	for _, line := range result.Lines {
		if line.HasError {
			m.lineErrors.WithLabelValues(line.Problem.String()).Inc()
		}
	}
	m.duration.Observe(elapsed.Seconds())
}
