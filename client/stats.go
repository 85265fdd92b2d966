package client

import (
	"sync/atomic"
	"time"
)

// PoolStats holds a connection pool's lifetime counters and current gauges.
// All fields are populated from atomics and safe to read concurrently.
type PoolStats struct {
	TotalConns  int32
	IdleConns   int32
	ActiveConns int32

	AcquireCount      uint64
	AcquireWaitCount  uint64
	CreatedConns      uint64
	DestroyedConns    uint64
	AcquireErrors     uint64
	AcquireWaitTimeNs uint64
}

// AverageWaitTime returns the mean time spent waiting for a connection.
func (s *PoolStats) AverageWaitTime() time.Duration {
	if s.AcquireWaitCount == 0 {
		return 0
	}
	return time.Duration(s.AcquireWaitTimeNs / s.AcquireWaitCount)
}

// ClientStats holds one Client's round-trip counters, across all commands:
// every call through the backend counts toward Dispatched and toward
// Succeeded or Errored by transport outcome. There is no per-command
// breakdown.
type ClientStats struct {
	Dispatched  uint64
	Succeeded   uint64
	Errored     uint64
	ConnResets  uint64
	CircuitTrip uint64
}

type clientStatsCollector struct {
	stats ClientStats
}

func (c *clientStatsCollector) recordDispatch(err error) {
	atomic.AddUint64(&c.stats.Dispatched, 1)
	if err != nil {
		atomic.AddUint64(&c.stats.Errored, 1)
		return
	}
	atomic.AddUint64(&c.stats.Succeeded, 1)
}

func (c *clientStatsCollector) recordConnReset() {
	atomic.AddUint64(&c.stats.ConnResets, 1)
}

func (c *clientStatsCollector) recordCircuitTrip() {
	atomic.AddUint64(&c.stats.CircuitTrip, 1)
}

func (c *clientStatsCollector) snapshot() ClientStats {
	return ClientStats{
		Dispatched:  atomic.LoadUint64(&c.stats.Dispatched),
		Succeeded:   atomic.LoadUint64(&c.stats.Succeeded),
		Errored:     atomic.LoadUint64(&c.stats.Errored),
		ConnResets:  atomic.LoadUint64(&c.stats.ConnResets),
		CircuitTrip: atomic.LoadUint64(&c.stats.CircuitTrip),
	}
}

// poolStatsCollector is the mutable counterpart pool implementations update
// as connections move between states.
type poolStatsCollector struct {
	stats PoolStats
}

func (c *poolStatsCollector) recordAcquire() {
	atomic.AddUint64(&c.stats.AcquireCount, 1)
}

func (c *poolStatsCollector) recordAcquireWait(d time.Duration) {
	atomic.AddUint64(&c.stats.AcquireWaitCount, 1)
	atomic.AddUint64(&c.stats.AcquireWaitTimeNs, uint64(d.Nanoseconds()))
}

func (c *poolStatsCollector) recordCreate() {
	atomic.AddUint64(&c.stats.CreatedConns, 1)
	atomic.AddInt32(&c.stats.TotalConns, 1)
}

func (c *poolStatsCollector) recordDestroy() {
	atomic.AddUint64(&c.stats.DestroyedConns, 1)
	atomic.AddInt32(&c.stats.TotalConns, -1)
}

func (c *poolStatsCollector) recordAcquireError() {
	atomic.AddUint64(&c.stats.AcquireErrors, 1)
}

func (c *poolStatsCollector) recordAcquireFromIdle() {
	atomic.AddInt32(&c.stats.IdleConns, -1)
	atomic.AddInt32(&c.stats.ActiveConns, 1)
}

func (c *poolStatsCollector) recordActivate() {
	atomic.AddInt32(&c.stats.ActiveConns, 1)
}

func (c *poolStatsCollector) recordRelease() {
	atomic.AddInt32(&c.stats.IdleConns, 1)
	atomic.AddInt32(&c.stats.ActiveConns, -1)
}

func (c *poolStatsCollector) snapshot() PoolStats {
	return PoolStats{
		TotalConns:        atomic.LoadInt32(&c.stats.TotalConns),
		IdleConns:         atomic.LoadInt32(&c.stats.IdleConns),
		ActiveConns:       atomic.LoadInt32(&c.stats.ActiveConns),
		AcquireCount:      atomic.LoadUint64(&c.stats.AcquireCount),
		AcquireWaitCount:  atomic.LoadUint64(&c.stats.AcquireWaitCount),
		CreatedConns:      atomic.LoadUint64(&c.stats.CreatedConns),
		DestroyedConns:    atomic.LoadUint64(&c.stats.DestroyedConns),
		AcquireErrors:     atomic.LoadUint64(&c.stats.AcquireErrors),
		AcquireWaitTimeNs: atomic.LoadUint64(&c.stats.AcquireWaitTimeNs),
	}
}
