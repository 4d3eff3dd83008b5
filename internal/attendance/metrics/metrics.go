package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the attendance module.
// Tracks verification outcomes, ledger transitions, and gate latency.
type Metrics struct {
	Verifications      *prometheus.CounterVec
	CheckIns           prometheus.Counter
	CheckOuts          prometheus.Counter
	DuplicateRejected  prometheus.Counter
	EvaluationDuration prometheus.Histogram
}

// New creates a Metrics instance with all attendance metrics registered.
func New() *Metrics {
	return &Metrics{
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attendly_verifications_total",
			Help: "Total verification requests by gate outcome",
		}, []string{"outcome"}),
		CheckIns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attendly_check_ins_total",
			Help: "Total successful check-ins",
		}),
		CheckOuts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attendly_check_outs_total",
			Help: "Total successful check-outs",
		}),
		DuplicateRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attendly_duplicate_rejections_total",
			Help: "Total admitted events rejected because the record lifecycle was exhausted",
		}),
		EvaluationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "attendly_gate_evaluation_duration_seconds",
			Help:    "Duration of gate evaluations (includes the network probe and biometric comparison)",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// RecordOutcome counts one gate verdict.
func (m *Metrics) RecordOutcome(outcome string) {
	m.Verifications.WithLabelValues(outcome).Inc()
}

// ObserveEvaluation records the duration of one gate evaluation.
// Call with time.Now() at the start of the evaluation.
func (m *Metrics) ObserveEvaluation(start time.Time) {
	m.EvaluationDuration.Observe(time.Since(start).Seconds())
}
