package seqidx

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    indexCounter prometheus.Counter
//	    getHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordGet(duration time.Duration, err error) {
//	    p.getHistogram.Observe(duration.Seconds())
//	    // ... record error state, etc.
//	}
type MetricsCollector interface {
	// RecordIndexFile is called after each file indexing operation.
	// records is the number of record entries written, duration is the total
	// time taken, err is nil if successful.
	RecordIndexFile(records int, duration time.Duration, err error)

	// RecordGet is called after each record fetch (Get, GetLines or Lookup).
	RecordGet(duration time.Duration, err error)

	// RecordVerify is called after each verification pass.
	RecordVerify(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIndexFile(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordGet(time.Duration, error)           {}
func (NoopMetricsCollector) RecordVerify(time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IndexFileCount      atomic.Int64
	IndexFileErrors     atomic.Int64
	IndexFileRecords    atomic.Int64
	IndexFileTotalNanos atomic.Int64
	GetCount            atomic.Int64
	GetErrors           atomic.Int64
	GetTotalNanos       atomic.Int64
	VerifyCount         atomic.Int64
	VerifyErrors        atomic.Int64
}

// RecordIndexFile implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexFile(records int, duration time.Duration, err error) {
	b.IndexFileCount.Add(1)
	b.IndexFileRecords.Add(int64(records))
	b.IndexFileTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.IndexFileErrors.Add(1)
	}
}

// RecordGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGet(duration time.Duration, err error) {
	b.GetCount.Add(1)
	b.GetTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.GetErrors.Add(1)
	}
}

// RecordVerify implements MetricsCollector.
func (b *BasicMetricsCollector) RecordVerify(duration time.Duration, err error) {
	b.VerifyCount.Add(1)
	if err != nil {
		b.VerifyErrors.Add(1)
	}
}

// BasicMetricsStats is a point-in-time snapshot of BasicMetricsCollector.
type BasicMetricsStats struct {
	IndexFileCount    int64
	IndexFileErrors   int64
	IndexFileRecords  int64
	IndexFileAvgNanos int64
	GetCount          int64
	GetErrors         int64
	GetAvgNanos       int64
	VerifyCount       int64
	VerifyErrors      int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		IndexFileCount:    b.IndexFileCount.Load(),
		IndexFileErrors:   b.IndexFileErrors.Load(),
		IndexFileRecords:  b.IndexFileRecords.Load(),
		IndexFileAvgNanos: avgNanos(b.IndexFileTotalNanos.Load(), b.IndexFileCount.Load()),
		GetCount:          b.GetCount.Load(),
		GetErrors:         b.GetErrors.Load(),
		GetAvgNanos:       avgNanos(b.GetTotalNanos.Load(), b.GetCount.Load()),
		VerifyCount:       b.VerifyCount.Load(),
		VerifyErrors:      b.VerifyErrors.Load(),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}
