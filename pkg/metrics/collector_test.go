// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGlob(t *testing.T, include, exclude []string) Filter {
	t.Helper()
	f, err := NewGlobFilter(include, exclude)
	require.NoError(t, err)
	return f
}

func TestCollectorBuildsRecords(t *testing.T) {
	c := NewCollector()
	c.AddRecordNamed("first").
		SetContext("test").
		Tag(NewInfo("Queue", "Queue name"), "q1").
		AddCounterLong(NewInfo("Ops", "Operations"), 42)
	c.AddRecord(NewInfo("second", "second record")).
		AddGaugeDouble(NewInfo("Load", "Load"), 0.5)

	recs := c.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "first", recs[0].Name())
	assert.Equal(t, "first record", recs[0].Description())
	ctx, ok := recs[0].Context()
	assert.True(t, ok)
	assert.Equal(t, "test", ctx)
	require.Len(t, recs[0].Metrics(), 1)
	assert.Equal(t, "Ops=42", recs[0].Metrics()[0].String())
	assert.Equal(t, "second", recs[1].Name())
	assert.Positive(t, recs[0].Timestamp())

	c.Clear()
	assert.Empty(t, c.Records())
}

func TestRecordFilterYieldsNoopBuilder(t *testing.T) {
	c := NewCollector().SetRecordFilter(mustGlob(t, []string{"keep*"}, nil))

	dropped := c.AddRecordNamed("drop")
	// The no-op builder accepts calls but retains nothing.
	dropped.Tag(NewInfo("T", "t"), "v").
		AddCounterLong(NewInfo("C", "c"), 1).
		SetContext("ctx")
	kept := c.AddRecordNamed("keep1")
	kept.AddGaugeInt(NewInfo("G", "g"), 3)

	recs := c.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "keep1", recs[0].Name())
	assert.Same(t, c, dropped.Parent())
}

func TestMetricFilterAppliedAtBuildTime(t *testing.T) {
	c := NewCollector().SetMetricFilter(mustGlob(t, nil, []string{"Secret*"}))
	rb := c.AddRecordNamed("r")
	rb.AddCounterLong(NewInfo("Public", "p"), 1).
		AddCounterLong(NewInfo("SecretOps", "s"), 2)

	recs := c.Records()
	require.Len(t, recs, 1)
	require.Len(t, recs[0].Metrics(), 1)
	assert.Equal(t, "Public", recs[0].Metrics()[0].Name())
}

func TestRecordFilterOnTags(t *testing.T) {
	c := NewCollector().SetRecordFilter(mustGlob(t, nil, []string{"Context:prod"}))
	c.AddRecordNamed("a").SetContext("prod")
	c.AddRecordNamed("b").SetContext("dev")
	recs := c.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "b", recs[0].Name())
}

func TestRecordFiltered(t *testing.T) {
	c := NewCollector()
	c.AddRecordNamed("r").
		AddCounterLong(NewInfo("A", "a"), 1).
		AddCounterLong(NewInfo("B", "b"), 2)
	rec := c.Records()[0]

	filtered := rec.Filtered(mustGlob(t, []string{"A"}, nil))
	require.Len(t, filtered.Metrics(), 1)
	assert.Equal(t, "A", filtered.Metrics()[0].Name())
	assert.Len(t, rec.Metrics(), 2, "original record untouched")
}
