package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eigerco/stakeslot/internal/gate"
	"github.com/eigerco/stakeslot/internal/migration"
)

// Metrics counts migration transactions by operation and final state
type Metrics struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewMetrics registers the ledger metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stakeslot_migration_operations_total",
			Help: "Total number of migration transactions by operation and final state",
		}, []string{"operation", "state"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stakeslot_migration_duration_seconds",
			Help:    "Duration of migration transactions including the storage commit",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"operation"}),
	}
}

// observe records a finished transaction. Call with time.Now() taken at the
// start of the transaction.
func (m *Metrics) observe(op gate.Operation, state migration.State, start time.Time) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op.String(), state.String()).Inc()
	m.Duration.WithLabelValues(op.String()).Observe(time.Since(start).Seconds())
}
