package hyperspace

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational metrics. Implement it to feed a
// monitoring system; see the metrics package for a Prometheus collector.
//
// Implementations must be safe for concurrent use: OptimizeLeaves records
// evaluations from one goroutine per leaf.
type MetricsCollector interface {
	// RecordBisection is called once per bisected (non-fixed) dimension.
	// degenerate is true when the bisection produced a
	// *DegenerateIntervalWarning.
	RecordBisection(kind Kind, degenerate bool)

	// RecordPartition is called after each partition tree build.
	RecordPartition(depth, leaves int, duration time.Duration, err error)

	// RecordEvaluation is called after each objective evaluation.
	RecordEvaluation(rank int, duration time.Duration, err error)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBisection(Kind, bool)                     {}
func (NoopMetricsCollector) RecordPartition(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordEvaluation(int, time.Duration, error)     {}

// BasicMetricsCollector counts events in memory. Useful in tests and for
// debugging without a monitoring backend.
type BasicMetricsCollector struct {
	Bisections           atomic.Int64
	DegenerateBisections atomic.Int64
	Partitions           atomic.Int64
	PartitionErrors      atomic.Int64
	Leaves               atomic.Int64
	Evaluations          atomic.Int64
	EvaluationErrors     atomic.Int64
}

// RecordBisection implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBisection(_ Kind, degenerate bool) {
	b.Bisections.Add(1)
	if degenerate {
		b.DegenerateBisections.Add(1)
	}
}

// RecordPartition implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPartition(_, leaves int, _ time.Duration, err error) {
	b.Partitions.Add(1)
	if err != nil {
		b.PartitionErrors.Add(1)

		return
	}

	b.Leaves.Add(int64(leaves))
}

// RecordEvaluation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEvaluation(_ int, _ time.Duration, err error) {
	b.Evaluations.Add(1)
	if err != nil {
		b.EvaluationErrors.Add(1)
	}
}
