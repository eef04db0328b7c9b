// Package metrics provides a Prometheus implementation of
// hyperspace.MetricsCollector.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/thalesfsp/hyperspace"
)

// PrometheusCollector records partitioning and optimization metrics.
type PrometheusCollector struct {
	bisections        *prometheus.CounterVec
	partitions        *prometheus.CounterVec
	partitionDuration prometheus.Histogram
	leaves            prometheus.Gauge
	evaluations       *prometheus.CounterVec
	evalDuration      *prometheus.HistogramVec
}

var _ hyperspace.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		bisections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hyperspace_bisections_total",
			Help: "Dimensions bisected, by kind and whether the children were degenerate",
		}, []string{"kind", "degenerate"}),
		partitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hyperspace_partitions_total",
			Help: "Partition trees built, by status",
		}, []string{"status"}),
		partitionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hyperspace_partition_duration_seconds",
			Help:    "Time spent building a partition tree",
			Buckets: prometheus.ExponentialBuckets(1e-6, 10, 7),
		}),
		leaves: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hyperspace_partition_leaves",
			Help: "Leaves produced by the last successful partition",
		}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hyperspace_evaluations_total",
			Help: "Objective evaluations, by rank and status",
		}, []string{"rank", "status"}),
		evalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hyperspace_evaluation_duration_seconds",
			Help:    "Objective evaluation latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"rank"}),
	}

	for _, col := range []prometheus.Collector{
		c.bisections, c.partitions, c.partitionDuration, c.leaves, c.evaluations, c.evalDuration,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RecordBisection implements hyperspace.MetricsCollector.
func (c *PrometheusCollector) RecordBisection(kind hyperspace.Kind, degenerate bool) {
	c.bisections.WithLabelValues(kind.String(), strconv.FormatBool(degenerate)).Inc()
}

// RecordPartition implements hyperspace.MetricsCollector.
func (c *PrometheusCollector) RecordPartition(_, leaves int, duration time.Duration, err error) {
	c.partitions.WithLabelValues(status(err)).Inc()
	c.partitionDuration.Observe(duration.Seconds())

	if err == nil {
		c.leaves.Set(float64(leaves))
	}
}

// RecordEvaluation implements hyperspace.MetricsCollector.
func (c *PrometheusCollector) RecordEvaluation(rank int, duration time.Duration, err error) {
	r := strconv.Itoa(rank)
	c.evaluations.WithLabelValues(r, status(err)).Inc()
	c.evalDuration.WithLabelValues(r).Observe(duration.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}
