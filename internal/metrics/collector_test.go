package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordTiming(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpGetMessages, 10*time.Millisecond, false)
	c.RecordTiming(OpGetMessages, 30*time.Millisecond, true)

	snap := c.Snapshot()
	require.Contains(t, snap.Operations, OpGetMessages)

	op := snap.Operations[OpGetMessages]
	assert.Equal(t, int64(2), op.Count)
	assert.Equal(t, int64(1), op.Failures)
	assert.Equal(t, int64(40), op.TotalTimeMs)
	assert.Equal(t, 20.0, op.AvgTimeMs)
	assert.Equal(t, int64(10), op.MinTimeMs)
	assert.Equal(t, int64(30), op.MaxTimeMs)
	assert.Equal(t, int64(1), snap.Counters[CounterCallFailed])
}

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()
	c.Incr(CounterCacheHit)
	c.Incr(CounterCacheHit)
	c.Incr(CounterCacheMiss)

	assert.Equal(t, int64(2), c.Counter(CounterCacheHit))
	assert.Equal(t, int64(1), c.Counter(CounterCacheMiss))
	assert.Equal(t, int64(0), c.Counter("unknown"))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.RecordTiming(OpGetSessions, time.Second, false)
	c.Incr(CounterCacheHit)
	assert.Equal(t, int64(0), c.Counter(CounterCacheHit))

	snap := c.Snapshot()
	assert.Empty(t, snap.Operations)
	assert.Empty(t, snap.Counters)
}

func TestSnapshotOperationNames(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpResolveCitation, time.Millisecond, false)
	c.RecordTiming(OpGetDocuments, time.Millisecond, false)

	assert.Equal(t, []string{OpGetDocuments, OpResolveCitation}, c.Snapshot().OperationNames())
}

func TestSnapshotCacheHitRate(t *testing.T) {
	c := NewCollector()
	assert.Zero(t, c.Snapshot().CacheHitRate())

	c.Incr(CounterCacheHit)
	c.Incr(CounterCacheHit)
	c.Incr(CounterCacheHit)
	c.Incr(CounterCacheMiss)
	assert.InDelta(t, 0.75, c.Snapshot().CacheHitRate(), 1e-9)
}
