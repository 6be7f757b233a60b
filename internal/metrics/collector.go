// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Operation names for backend calls.
const (
	OpGetSessions     = "get_sessions"
	OpCreateSession   = "create_session"
	OpGetMessages     = "get_messages"
	OpCreateMessage   = "create_message"
	OpResolveCitation = "resolve_citation"
	OpGetDocuments    = "get_documents"
)

// Counter names.
const (
	CounterCacheHit   = "cache_hit"
	CounterCacheMiss  = "cache_miss"
	CounterCallFailed = "call_failed"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	Failures  int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	Failures    int64   `json:"failures"`
	TotalTimeMs int64   `json:"totalTimeMs"`
	AvgTimeMs   float64 `json:"avgTimeMs"`
	MinTimeMs   int64   `json:"minTimeMs"`
	MaxTimeMs   int64   `json:"maxTimeMs"`
}

// Snapshot represents the full statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64                      `json:"uptimeSeconds"`
	Operations    map[string]OperationSnapshot `json:"operations"`
	Counters      map[string]int64             `json:"counters"`
}

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe, and a nil *Collector is a valid no-op.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
	counters  map[string]int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
		counters:  make(map[string]int64),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation. Failed calls count too.
func (c *Collector) RecordTiming(op string, duration time.Duration, failed bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration
	if failed {
		m.Failures++
		c.counters[CounterCallFailed]++
	}

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// Incr bumps a named counter.
func (c *Collector) Incr(name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.counters[name]++
	c.mu.Unlock()
}

// Counter returns the current value of a named counter.
func (c *Collector) Counter(name string) int64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters[name]
}

func snapshotOp(m *OperationMetrics) OperationSnapshot {
	return OperationSnapshot{
		Count:       m.Count,
		Failures:    m.Failures,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	snap := Snapshot{
		Operations: make(map[string]OperationSnapshot),
		Counters:   make(map[string]int64),
	}
	if c == nil {
		return snap
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	snap.UptimeSeconds = time.Since(c.startTime).Seconds()
	for op, m := range c.ops {
		if m.Count == 0 {
			continue
		}
		snap.Operations[op] = snapshotOp(m)
	}
	for name, v := range c.counters {
		snap.Counters[name] = v
	}
	return snap
}

// OperationNames returns the recorded operation names in sorted order.
func (s Snapshot) OperationNames() []string {
	names := make([]string, 0, len(s.Operations))
	for name := range s.Operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CacheHitRate returns the share of document lookups served from cache,
// or 0 when there were none.
func (s Snapshot) CacheHitRate() float64 {
	hits, misses := s.Counters[CounterCacheHit], s.Counters[CounterCacheMiss]
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}
