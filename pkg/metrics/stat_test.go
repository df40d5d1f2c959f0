// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statMetrics(t *testing.T, s *MutableStat, all bool) map[string]float64 {
	t.Helper()
	c := NewCollector()
	rb := c.AddRecordNamed("r")
	s.Snapshot(rb, all)
	recs := c.Records()
	require.Len(t, recs, 1)
	out := make(map[string]float64)
	for _, m := range recs[0].Metrics() {
		out[m.Name()] = m.Float()
	}
	return out
}

func TestSampleStat(t *testing.T) {
	var s SampleStat
	for _, v := range []float64{2, 4, 6} {
		s.Add(v)
	}
	assert.Equal(t, int64(3), s.Count())
	assert.Equal(t, 12.0, s.Sum())
	assert.Equal(t, 2.0, s.Min())
	assert.Equal(t, 6.0, s.Max())
	assert.Equal(t, 4.0, s.Mean())
	assert.InDelta(t, 2.0, s.Stddev(), 1e-9)

	s.Reset()
	assert.Equal(t, int64(0), s.Count())
}

func TestMutableStatSubMetrics(t *testing.T) {
	s := NewMutableStat("RpcTime", "RPC latency", "Ops", "Time", true, false)
	s.Observe(10)
	s.Observe(30)

	got := statMetrics(t, s, false)
	assert.Equal(t, 2.0, got["RpcTimeNum"])
	assert.Equal(t, 20.0, got["RpcTimeAvg"])
	assert.Equal(t, 10.0, got["RpcTimeMin"])
	assert.Equal(t, 30.0, got["RpcTimeMax"])
	assert.Contains(t, got, "RpcTimeStdev", "extended stat emits stddev")
}

func TestMutableStatCumulative(t *testing.T) {
	s := NewMutableStat("Op", "op", "", "", false, false)
	s.Observe(5)
	statMetrics(t, s, true)
	s.Observe(15)
	got := statMetrics(t, s, true)
	assert.Equal(t, 2.0, got["OpNum"])
	assert.Equal(t, 10.0, got["OpAvg"], "cumulative window spans snapshots")
}

func TestMutableStatRolling(t *testing.T) {
	s := NewMutableStat("Op", "op", "", "", false, true)
	s.Observe(5)
	statMetrics(t, s, true)
	s.Observe(15)
	got := statMetrics(t, s, true)
	assert.Equal(t, 2.0, got["OpNum"], "sample count stays cumulative")
	assert.Equal(t, 15.0, got["OpAvg"], "rolling window resets after snapshot")

	// Unchanged rolling stat with all=false emits nothing.
	s2 := NewMutableStat("Idle", "idle", "", "", false, true)
	c := NewCollector()
	rb := c.AddRecordNamed("r")
	s2.Snapshot(rb, false)
	assert.Empty(t, c.Records()[0].Metrics())
}
