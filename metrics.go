package electrolytes

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordLookup is called after each lookup operation.
	// duration is the total time taken, err is nil if successful.
	RecordLookup(duration time.Duration, err error)

	// RecordAdd is called after each add operation.
	RecordAdd(duration time.Duration, err error)

	// RecordRemove is called after each remove operation.
	RecordRemove(duration time.Duration, err error)

	// RecordFlush is called after each overlay flush.
	RecordFlush(duration time.Duration, err error)

	// RecordLockWait is called after each cross-process lock acquisition,
	// successful or not. duration is the time spent waiting.
	RecordLockWait(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLookup(time.Duration, error)   {}
func (NoopMetricsCollector) RecordAdd(time.Duration, error)      {}
func (NoopMetricsCollector) RecordRemove(time.Duration, error)   {}
func (NoopMetricsCollector) RecordFlush(time.Duration, error)    {}
func (NoopMetricsCollector) RecordLockWait(time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LookupCount       atomic.Int64
	LookupErrors      atomic.Int64
	AddCount          atomic.Int64
	AddErrors         atomic.Int64
	RemoveCount       atomic.Int64
	RemoveErrors      atomic.Int64
	FlushCount        atomic.Int64
	FlushErrors       atomic.Int64
	LockWaitCount     atomic.Int64
	LockWaitErrors    atomic.Int64
	LockWaitTotalNano atomic.Int64
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(duration time.Duration, err error) {
	b.LookupCount.Add(1)
	if err != nil {
		b.LookupErrors.Add(1)
	}
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(duration time.Duration, err error) {
	b.AddCount.Add(1)
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(duration time.Duration, err error) {
	b.RemoveCount.Add(1)
	if err != nil {
		b.RemoveErrors.Add(1)
	}
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(duration time.Duration, err error) {
	b.FlushCount.Add(1)
	if err != nil {
		b.FlushErrors.Add(1)
	}
}

// RecordLockWait implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLockWait(duration time.Duration, err error) {
	b.LockWaitCount.Add(1)
	b.LockWaitTotalNano.Add(duration.Nanoseconds())
	if err != nil {
		b.LockWaitErrors.Add(1)
	}
}
