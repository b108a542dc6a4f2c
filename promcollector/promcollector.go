// Package promcollector provides a Prometheus-backed implementation of
// vexiter.MetricsCollector.
package promcollector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vexiter/vexiter"
)

// Compile-time check to ensure Collector satisfies the contract.
var _ vexiter.MetricsCollector = (*Collector)(nil)

// Collector exports hybrid iterator metrics to Prometheus.
type Collector struct {
	prepareLatency *prometheus.HistogramVec
	prepareBatches prometheus.Histogram
	batchSize      prometheus.Histogram
	batchMatched   prometheus.Histogram
	evictions      prometheus.Counter
	reads          prometheus.Counter
	rewinds        prometheus.Counter
}

// New creates a Collector and registers its metrics with reg. It returns
// an error if any metric is already registered.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		prepareLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vexiter_prepare_latency_seconds",
			Help:    "Latency of result preparation passes",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode", "status"}),
		prepareBatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vexiter_prepare_batches",
			Help:    "Candidate batches retrieved per preparation pass",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vexiter_batch_candidates",
			Help:    "Candidates per merged batch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		batchMatched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vexiter_batch_matched",
			Help:    "Accepted results per merged batch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vexiter_heap_evictions_total",
			Help: "Heap entries evicted by strictly better candidates",
		}),
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vexiter_reads_total",
			Help: "Results returned to callers",
		}),
		rewinds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vexiter_rewinds_total",
			Help: "Iterator rewinds",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.prepareLatency,
		c.prepareBatches,
		c.batchSize,
		c.batchMatched,
		c.evictions,
		c.reads,
		c.rewinds,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RecordPrepare implements vexiter.MetricsCollector.
func (c *Collector) RecordPrepare(mode vexiter.Mode, batches, _ int, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	c.prepareLatency.WithLabelValues(mode.String(), status).Observe(duration.Seconds())
	c.prepareBatches.Observe(float64(batches))
}

// RecordBatch implements vexiter.MetricsCollector.
func (c *Collector) RecordBatch(size, matched int) {
	c.batchSize.Observe(float64(size))
	c.batchMatched.Observe(float64(matched))
}

// RecordEviction implements vexiter.MetricsCollector.
func (c *Collector) RecordEviction() {
	c.evictions.Inc()
}

// RecordRead implements vexiter.MetricsCollector.
func (c *Collector) RecordRead() {
	c.reads.Inc()
}

// RecordRewind implements vexiter.MetricsCollector.
func (c *Collector) RecordRewind() {
	c.rewinds.Inc()
}
