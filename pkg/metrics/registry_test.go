// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySnapshotOrder(t *testing.T) {
	r := NewRegistryNamed("web")
	r.NewCounter("Requests", "Requests served", 0).Add(3)
	r.NewGauge("Inflight", "Inflight requests", 0).Set(2)
	r.NewCounterInt(NewInfo("Errors", "Errors seen"), 0).Inc()

	c := NewCollector()
	rb := c.AddRecord(r.Info())
	r.Snapshot(rb, true)
	recs := c.Records()
	require.Len(t, recs, 1)

	var names []string
	for _, m := range recs[0].Metrics() {
		names = append(names, m.Name())
	}
	assert.Equal(t, []string{"Requests", "Inflight", "Errors"}, names,
		"insertion order preserved")
}

func TestRegistryDuplicateName(t *testing.T) {
	r := NewRegistryNamed("dup")
	r.NewCounter("X", "x", 0)
	err := r.Add("X", NewMutableCounterLong(NewInfo("X", "x"), 0))
	assert.ErrorIs(t, err, ErrDuplicateName)

	assert.Panics(t, func() { r.NewCounter("X", "x", 0) },
		"constructors panic on duplicate names")
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistryNamed("g")
	c := r.NewCounter("Ops", "ops", 0)
	assert.Same(t, MutableMetric(c), r.Get("Ops"))
	assert.Nil(t, r.Get("Missing"))
}

func TestRegistryContextTag(t *testing.T) {
	r := NewRegistryNamed("ctx")
	r.SetContext("dfs")
	r.SetContext("yarn") // re-tagging replaces

	c := NewCollector()
	rb := c.AddRecord(r.Info())
	r.Snapshot(rb, true)
	rec := c.Records()[0]
	require.Len(t, rec.Tags(), 1)
	ctx, ok := rec.Context()
	assert.True(t, ok)
	assert.Equal(t, "yarn", ctx)
}

func TestInterning(t *testing.T) {
	a := NewInfo("Name", "Desc")
	b := NewInfo("Name", "Desc")
	assert.Same(t, a, b, "equal infos share identity")
	assert.NotSame(t, a, NewInfo("Name", "Other"))

	ta := NewTag(a, "v")
	tb := NewTag(b, "v")
	assert.Equal(t, ta, tb)
	assert.Same(t, ta.Info(), tb.Info())
}
