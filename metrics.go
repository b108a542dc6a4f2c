package vexiter

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// promcollector package provides a Prometheus-backed implementation.
type MetricsCollector interface {
	// RecordPrepare is called after each preparation pass.
	// batches is the number of candidate batches retrieved (0 in
	// StandardKNN mode), collected the number of accepted results,
	// duration the total time taken, err nil if successful.
	RecordPrepare(mode Mode, batches, collected int, duration time.Duration, err error)

	// RecordBatch is called after each merge-join pass over a batch.
	// size is the number of candidates in the batch, matched the
	// number accepted into the heap.
	RecordBatch(size, matched int)

	// RecordEviction is called whenever a heap entry is evicted by a
	// strictly better candidate.
	RecordEviction()

	// RecordRead is called after each successful Read.
	RecordRead()

	// RecordRewind is called on each Rewind.
	RecordRewind()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPrepare(Mode, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordBatch(int, int)                               {}
func (NoopMetricsCollector) RecordEviction()                                    {}
func (NoopMetricsCollector) RecordRead()                                        {}
func (NoopMetricsCollector) RecordRewind()                                      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	PrepareCount      atomic.Int64
	PrepareErrors     atomic.Int64
	PrepareTotalNanos atomic.Int64
	BatchCount        atomic.Int64
	BatchCandidates   atomic.Int64
	BatchMatched      atomic.Int64
	Evictions         atomic.Int64
	Reads             atomic.Int64
	Rewinds           atomic.Int64
}

// RecordPrepare implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPrepare(_ Mode, _, _ int, duration time.Duration, err error) {
	b.PrepareCount.Add(1)
	b.PrepareTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PrepareErrors.Add(1)
	}
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(size, matched int) {
	b.BatchCount.Add(1)
	b.BatchCandidates.Add(int64(size))
	b.BatchMatched.Add(int64(matched))
}

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction() {
	b.Evictions.Add(1)
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead() {
	b.Reads.Add(1)
}

// RecordRewind implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRewind() {
	b.Rewinds.Add(1)
}
