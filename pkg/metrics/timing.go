// Package metrics provides lightweight instrumentation for the tour engine.
//
// Timings cover the hot paths (placement solves, tracker recomputes,
// catalog loads); counters cover discrete events (tours started, tasks
// cancelled, targets not found). Everything is in-memory and atomic.
// Collection is on by default and can be disabled with GUIDEPOST_METRICS=0.
//
// Usage:
//
//	func load() {
//	    defer metrics.Timer(metrics.CatalogLoad)()
//	    // ...
//	}
package metrics

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("GUIDEPOST_METRICS") != "0")
}

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled allows programmatic control of metrics collection.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric tracks timing statistics for a named operation.
type TimingMetric struct {
	name    string
	count   atomic.Int64
	totalNs atomic.Int64
	maxNs   atomic.Int64
	minNs   atomic.Int64 // 0 means not set
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record records a single timing measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !enabled.Load() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.totalNs.Add(ns)

	for {
		old := m.maxNs.Load()
		if ns <= old || m.maxNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.minNs.Load()
		if old != 0 && ns >= old {
			break
		}
		if m.minNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string { return m.name }

// Count returns the number of recorded measurements.
func (m *TimingMetric) Count() int64 { return m.count.Load() }

// Stats returns all timing statistics at once.
func (m *TimingMetric) Stats() TimingStats {
	count := m.count.Load()
	total := m.totalNs.Load()
	var avg int64
	if count > 0 {
		avg = total / count
	}
	return TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: float64(total) / 1e6,
		AvgMs:   float64(avg) / 1e6,
		MaxMs:   float64(m.maxNs.Load()) / 1e6,
		MinMs:   float64(m.minNs.Load()) / 1e6,
	}
}

// Reset clears all recorded measurements.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.totalNs.Store(0)
	m.maxNs.Store(0)
	m.minNs.Store(0)
}

// TimingStats holds a snapshot of timing statistics.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Counter counts discrete events.
type Counter struct {
	name string
	n    atomic.Int64
}

// Inc adds one to the counter.
func (c *Counter) Inc() {
	if !enabled.Load() {
		return
	}
	c.n.Add(1)
}

// Value returns the current count.
func (c *Counter) Value() int64 { return c.n.Load() }

// Name returns the counter name.
func (c *Counter) Name() string { return c.name }

// Timer returns a function that records elapsed time when called.
//
//	defer metrics.Timer(metrics.CatalogLoad)()
func Timer(m *TimingMetric) func() {
	if !enabled.Load() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Record(time.Since(start))
	}
}

// Global metrics.
var (
	PlacementSolve   = newTimingMetric("placement_solve")
	TrackerRecompute = newTimingMetric("tracker_recompute")
	SettleWait       = newTimingMetric("settle_wait")
	CatalogLoad      = newTimingMetric("catalog_load")
	StoreWrite       = newTimingMetric("store_write")

	ToursStarted    = &Counter{name: "tours_started"}
	ToursAbandoned  = &Counter{name: "tours_abandoned"}
	TasksCancelled  = &Counter{name: "tasks_cancelled"}
	TargetsNotFound = &Counter{name: "targets_not_found"}
)

// AllTimingMetrics returns all registered timing metrics.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{PlacementSolve, TrackerRecompute, SettleWait, CatalogLoad, StoreWrite}
}

// AllCounters returns all registered counters.
func AllCounters() []*Counter {
	return []*Counter{ToursStarted, ToursAbandoned, TasksCancelled, TargetsNotFound}
}

// ResetAll resets every metric.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
	for _, c := range AllCounters() {
		c.n.Store(0)
	}
}

// AllTimingStats returns stats for metrics that have data.
func AllTimingStats() []TimingStats {
	all := AllTimingMetrics()
	stats := make([]TimingStats, 0, len(all))
	for _, m := range all {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}

// WriteSummary prints a plain-text summary of non-empty metrics.
func WriteSummary(w io.Writer) {
	for _, s := range AllTimingStats() {
		fmt.Fprintf(w, "%-18s n=%-6d avg=%.3fms max=%.3fms\n", s.Name, s.Count, s.AvgMs, s.MaxMs)
	}
	for _, c := range AllCounters() {
		if v := c.Value(); v > 0 {
			fmt.Fprintf(w, "%-18s %d\n", c.Name(), v)
		}
	}
}
