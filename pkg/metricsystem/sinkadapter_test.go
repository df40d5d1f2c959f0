// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metricsystem

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulse-metrics/pulse/pkg/metrics"
)

// recordingSink keeps everything it is handed, optionally failing the
// first failN deliveries.
type recordingSink struct {
	mu      sync.Mutex
	records []metrics.Record
	flushes int
	failN   int
	fails   int
	delay   time.Duration
}

func (s *recordingSink) PutMetrics(r metrics.Record) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails < s.failN {
		s.fails++
		return errors.New("sink unavailable")
	}
	s.records = append(s.records, r)
	return nil
}

func (s *recordingSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return nil
}

func (s *recordingSink) snapshot() ([]metrics.Record, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]metrics.Record(nil), s.records...), s.flushes
}

func testSinkConf(mutate func(*sinkConfig)) *sinkConfig {
	sc := &sinkConfig{
		name:          "test",
		period:        100 * time.Millisecond,
		queueCapacity: 1,
		retryDelay:    10 * time.Millisecond,
		retryBackoff:  2.0,
		retryCount:    1,
	}
	if mutate != nil {
		mutate(sc)
	}
	return sc
}

func oneRecordBuffer(source, recordName string) Buffer {
	c := metrics.NewCollector()
	c.AddRecordNamed(recordName).AddCounterLong(metrics.NewInfo("Ops", "ops"), 1)
	bb := &bufferBuilder{}
	bb.add(source, c.Records())
	return bb.build()
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSinkAdapterDelivers(t *testing.T) {
	sink := &recordingSink{}
	sa := newSinkAdapter("test", "test sink", sink, testSinkConf(nil))
	sa.start()
	defer sa.stop()

	assert.True(t, sa.putMetrics(oneRecordBuffer("src", "rec"), 100))
	waitFor(t, time.Second, func() bool { _, f := sink.snapshot(); return f == 1 })
	recs, flushes := sink.snapshot()
	require.Len(t, recs, 1)
	assert.Equal(t, "rec", recs[0].Name())
	assert.Equal(t, 1, flushes, "one flush per buffer")
	assert.Equal(t, int32(0), sa.Dropped())
}

func TestSinkAdapterRetryThenSucceed(t *testing.T) {
	sink := &recordingSink{failN: 2}
	sa := newSinkAdapter("retry", "retry sink", sink, testSinkConf(func(sc *sinkConfig) {
		sc.retryCount = 3
	}))
	sa.start()
	defer sa.stop()

	start := time.Now()
	require.True(t, sa.putMetrics(oneRecordBuffer("src", "rec"), 100))
	waitFor(t, 2*time.Second, func() bool { _, f := sink.snapshot(); return f >= 1 })

	// Two failures back off 10ms then 20ms before the third attempt.
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	recs, _ := sink.snapshot()
	assert.Len(t, recs, 1)
	assert.Equal(t, int32(0), sa.Dropped())
}

func TestSinkAdapterRetryExhaustionDrops(t *testing.T) {
	sink := &recordingSink{failN: 100}
	sa := newSinkAdapter("drop", "drop sink", sink, testSinkConf(func(sc *sinkConfig) {
		sc.retryCount = 2
	}))
	sa.start()
	defer sa.stop()

	require.True(t, sa.putMetrics(oneRecordBuffer("src", "rec"), 100))
	waitFor(t, time.Second, func() bool { return sa.Dropped() == 1 })
	recs, _ := sink.snapshot()
	assert.Empty(t, recs)
}

func TestSinkAdapterSkipsOffCadenceTicks(t *testing.T) {
	sink := &recordingSink{}
	sa := newSinkAdapter("slow", "slow sink", sink, testSinkConf(func(sc *sinkConfig) {
		sc.period = 200 * time.Millisecond
	}))
	sa.start()
	defer sa.stop()

	assert.True(t, sa.putMetrics(oneRecordBuffer("src", "r1"), 100),
		"off-cadence ticks are skipped, not dropped")
	assert.True(t, sa.putMetrics(oneRecordBuffer("src", "r2"), 200))
	waitFor(t, time.Second, func() bool { _, f := sink.snapshot(); return f == 1 })
	recs, _ := sink.snapshot()
	require.Len(t, recs, 1)
	assert.Equal(t, "r2", recs[0].Name())
	assert.Equal(t, int32(0), sa.Dropped())
}

func TestSinkAdapterFilters(t *testing.T) {
	sink := &recordingSink{}
	sourceFilter, err := metrics.NewGlobFilter([]string{"good*"}, nil)
	require.NoError(t, err)
	metricFilter, err := metrics.NewGlobFilter(nil, []string{"Ops"})
	require.NoError(t, err)
	sa := newSinkAdapter("filter", "filter sink", sink, testSinkConf(func(sc *sinkConfig) {
		sc.sourceFilter = sourceFilter
		sc.metricFilter = metricFilter
	}))
	sa.start()
	defer sa.stop()

	bb := &bufferBuilder{}
	c := metrics.NewCollector()
	c.AddRecordNamed("kept").
		AddCounterLong(metrics.NewInfo("Ops", "ops"), 1).
		AddCounterLong(metrics.NewInfo("Kept", "kept"), 2)
	bb.add("good1", c.Records())
	c.Clear()
	c.AddRecordNamed("ignored").AddCounterLong(metrics.NewInfo("Ops", "ops"), 3)
	bb.add("bad1", c.Records())

	require.True(t, sa.putMetrics(bb.build(), 100))
	waitFor(t, time.Second, func() bool { _, f := sink.snapshot(); return f == 1 })

	recs, _ := sink.snapshot()
	require.Len(t, recs, 1, "source filter removed bad1")
	assert.Equal(t, "kept", recs[0].Name())
	require.Len(t, recs[0].Metrics(), 1, "metric filter projected the record")
	assert.Equal(t, "Kept", recs[0].Metrics()[0].Name())
}

func TestSinkAdapterStatsSnapshot(t *testing.T) {
	sink := &recordingSink{}
	sa := newSinkAdapter("stats", "stats sink", sink, testSinkConf(nil))
	sa.start()
	defer sa.stop()

	require.True(t, sa.putMetrics(oneRecordBuffer("src", "rec"), 100))
	waitFor(t, time.Second, func() bool { _, f := sink.snapshot(); return f == 1 })

	c := metrics.NewCollector()
	rb := c.AddRecordNamed("self")
	sa.snapshotStats(rb, true)
	names := make(map[string]bool)
	for _, m := range c.Records()[0].Metrics() {
		names[m.Name()] = true
	}
	assert.True(t, names["Sink_statsDropped"])
	assert.True(t, names["Sink_statsQsize"])
	assert.True(t, names["Sink_statsNum"], "latency stat emitted")
}
