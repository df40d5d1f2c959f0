// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshotNames samples a single metric and returns the emitted
// metric names.
func snapshotNames(m MutableMetric, all bool) []string {
	c := NewCollector()
	rb := c.AddRecordNamed("test")
	m.Snapshot(rb, all)
	recs := c.Records()
	var names []string
	for _, mm := range recs[0].Metrics() {
		names = append(names, mm.Name())
	}
	return names
}

func TestCounterLong(t *testing.T) {
	c := NewMutableCounterLong(NewInfo("Requests", "Requests served"), 0)
	assert.False(t, c.Changed())

	c.Inc()
	c.Add(2)
	assert.True(t, c.Changed())
	assert.Equal(t, int64(3), c.Value())

	// Negative deltas are ignored: counters are monotonic.
	c.Add(-5)
	assert.Equal(t, int64(3), c.Value())

	names := snapshotNames(c, false)
	assert.Equal(t, []string{"Requests"}, names)
	assert.False(t, c.Changed(), "snapshot clears the changed flag")

	// Unchanged since last snapshot: all=false emits nothing.
	assert.Empty(t, snapshotNames(c, false))
	// all=true still emits.
	assert.Equal(t, []string{"Requests"}, snapshotNames(c, true))
}

func TestCounterOverflowWraps(t *testing.T) {
	c := NewMutableCounterLong(NewInfo("Big", "Big counter"), math.MaxInt64-1)
	c.Add(2)
	assert.Equal(t, int64(math.MinInt64), c.Value(), "overflow wraps two's-complement")
}

func TestAllSnapshotClearsChanged(t *testing.T) {
	g := NewMutableGaugeInt(NewInfo("Inflight", "Inflight requests"), 0)
	g.Set(7)
	assert.Equal(t, []string{"Inflight"}, snapshotNames(g, true))
	assert.Empty(t, snapshotNames(g, false), "all=true also clears the changed flag")
}

func TestGauges(t *testing.T) {
	g := NewMutableGaugeLong(NewInfo("Queue", "Queue length"), 10)
	g.Inc()
	g.Dec()
	g.Add(5)
	assert.Equal(t, int64(15), g.Value())

	f := NewMutableGaugeDouble(NewInfo("Load", "Load average"), 0)
	f.Set(1.5)
	f.Add(0.25)
	assert.InDelta(t, 1.75, f.Value(), 1e-9)

	c := NewCollector()
	rb := c.AddRecordNamed("r")
	g.Snapshot(rb, true)
	f.Snapshot(rb, true)
	recs := c.Records()
	require.Len(t, recs, 1)
	ms := recs[0].Metrics()
	require.Len(t, ms, 2)
	assert.Equal(t, TypeGaugeLong, ms[0].Type())
	assert.Equal(t, int64(15), ms[0].Int())
	assert.Equal(t, TypeGaugeDouble, ms[1].Type())
	assert.InDelta(t, 1.75, ms[1].Float(), 1e-9)
}

func TestFuncGauge(t *testing.T) {
	v := int64(41)
	g := NewFuncGaugeLong(NewInfo("Heap", "Heap bytes"), func() int64 { v++; return v })

	assert.Equal(t, []string{"Heap"}, snapshotNames(g, false),
		"func gauges always emit")
	c := NewCollector()
	rb := c.AddRecordNamed("r")
	g.Snapshot(rb, false)
	assert.Equal(t, int64(43), c.Records()[0].Metrics()[0].Int())
}
