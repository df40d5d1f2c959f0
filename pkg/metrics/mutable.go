// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

import (
	"go.uber.org/atomic"
)

// MutableMetric is a live accumulator mutated by producers and
// snapshotted by the sampling loop. Updates are atomic and
// non-blocking; Snapshot appends the current sample to a record
// builder.
//
// Each mutable metric keeps a changed-since-last-snapshot flag. With
// all=false the snapshot only emits when the flag is set; emitting
// clears the flag in either mode.
type MutableMetric interface {
	Snapshot(rb *RecordBuilder, all bool)
	Changed() bool
}

type mutableBase struct {
	info    *Info
	changed atomic.Bool
}

func (m *mutableBase) Info() *Info { return m.info }

func (m *mutableBase) Changed() bool { return m.changed.Load() }

func (m *mutableBase) setChanged() { m.changed.Store(true) }

// take reports whether a snapshot should emit, clearing the flag.
func (m *mutableBase) take(all bool) bool {
	return m.changed.Swap(false) || all
}

// MutableCounterInt is a monotonic 32-bit counter. Overflow wraps.
type MutableCounterInt struct {
	mutableBase
	value atomic.Int32
}

func NewMutableCounterInt(info *Info, initial int32) *MutableCounterInt {
	c := &MutableCounterInt{mutableBase: mutableBase{info: info}}
	c.value.Store(initial)
	return c
}

func (c *MutableCounterInt) Inc() { c.Add(1) }

// Add increments the counter by delta. Negative deltas are ignored:
// counters are monotonic.
func (c *MutableCounterInt) Add(delta int32) {
	if delta < 0 {
		return
	}
	c.value.Add(delta)
	c.setChanged()
}

func (c *MutableCounterInt) Value() int32 { return c.value.Load() }

func (c *MutableCounterInt) Snapshot(rb *RecordBuilder, all bool) {
	if c.take(all) {
		rb.AddCounterInt(c.info, c.value.Load())
	}
}

// MutableCounterLong is a monotonic 64-bit counter. Overflow wraps.
type MutableCounterLong struct {
	mutableBase
	value atomic.Int64
}

func NewMutableCounterLong(info *Info, initial int64) *MutableCounterLong {
	c := &MutableCounterLong{mutableBase: mutableBase{info: info}}
	c.value.Store(initial)
	return c
}

func (c *MutableCounterLong) Inc() { c.Add(1) }

func (c *MutableCounterLong) Add(delta int64) {
	if delta < 0 {
		return
	}
	c.value.Add(delta)
	c.setChanged()
}

func (c *MutableCounterLong) Value() int64 { return c.value.Load() }

func (c *MutableCounterLong) Snapshot(rb *RecordBuilder, all bool) {
	if c.take(all) {
		rb.AddCounterLong(c.info, c.value.Load())
	}
}

// MutableGaugeInt is a 32-bit gauge.
type MutableGaugeInt struct {
	mutableBase
	value atomic.Int32
}

func NewMutableGaugeInt(info *Info, initial int32) *MutableGaugeInt {
	g := &MutableGaugeInt{mutableBase: mutableBase{info: info}}
	g.value.Store(initial)
	return g
}

func (g *MutableGaugeInt) Set(v int32) {
	g.value.Store(v)
	g.setChanged()
}

func (g *MutableGaugeInt) Inc() { g.Add(1) }

func (g *MutableGaugeInt) Dec() { g.Add(-1) }

func (g *MutableGaugeInt) Add(delta int32) {
	g.value.Add(delta)
	g.setChanged()
}

func (g *MutableGaugeInt) Value() int32 { return g.value.Load() }

func (g *MutableGaugeInt) Snapshot(rb *RecordBuilder, all bool) {
	if g.take(all) {
		rb.AddGaugeInt(g.info, g.value.Load())
	}
}

// MutableGaugeLong is a 64-bit gauge.
type MutableGaugeLong struct {
	mutableBase
	value atomic.Int64
}

func NewMutableGaugeLong(info *Info, initial int64) *MutableGaugeLong {
	g := &MutableGaugeLong{mutableBase: mutableBase{info: info}}
	g.value.Store(initial)
	return g
}

func (g *MutableGaugeLong) Set(v int64) {
	g.value.Store(v)
	g.setChanged()
}

func (g *MutableGaugeLong) Inc() { g.Add(1) }

func (g *MutableGaugeLong) Dec() { g.Add(-1) }

func (g *MutableGaugeLong) Add(delta int64) {
	g.value.Add(delta)
	g.setChanged()
}

func (g *MutableGaugeLong) Value() int64 { return g.value.Load() }

func (g *MutableGaugeLong) Snapshot(rb *RecordBuilder, all bool) {
	if g.take(all) {
		rb.AddGaugeLong(g.info, g.value.Load())
	}
}

// MutableGaugeFloat is a 32-bit float gauge.
type MutableGaugeFloat struct {
	mutableBase
	value atomic.Float32
}

func NewMutableGaugeFloat(info *Info, initial float32) *MutableGaugeFloat {
	g := &MutableGaugeFloat{mutableBase: mutableBase{info: info}}
	g.value.Store(initial)
	return g
}

func (g *MutableGaugeFloat) Set(v float32) {
	g.value.Store(v)
	g.setChanged()
}

func (g *MutableGaugeFloat) Add(delta float32) {
	g.value.Add(delta)
	g.setChanged()
}

func (g *MutableGaugeFloat) Value() float32 { return g.value.Load() }

func (g *MutableGaugeFloat) Snapshot(rb *RecordBuilder, all bool) {
	if g.take(all) {
		rb.AddGaugeFloat(g.info, g.value.Load())
	}
}

// MutableGaugeDouble is a 64-bit float gauge.
type MutableGaugeDouble struct {
	mutableBase
	value atomic.Float64
}

func NewMutableGaugeDouble(info *Info, initial float64) *MutableGaugeDouble {
	g := &MutableGaugeDouble{mutableBase: mutableBase{info: info}}
	g.value.Store(initial)
	return g
}

func (g *MutableGaugeDouble) Set(v float64) {
	g.value.Store(v)
	g.setChanged()
}

func (g *MutableGaugeDouble) Add(delta float64) {
	g.value.Add(delta)
	g.setChanged()
}

func (g *MutableGaugeDouble) Value() float64 { return g.value.Load() }

func (g *MutableGaugeDouble) Snapshot(rb *RecordBuilder, all bool) {
	if g.take(all) {
		rb.AddGaugeDouble(g.info, g.value.Load())
	}
}

// MutableFuncGauge samples a function at snapshot time, the Go-native
// form of a method-backed gauge. Func gauges are always emitted; the
// backing value is not observable for change tracking.
type MutableFuncGauge struct {
	info *Info
	fn   func() float64
	asFn func(rb *RecordBuilder, info *Info, v float64)
}

func NewFuncGaugeLong(info *Info, fn func() int64) *MutableFuncGauge {
	return &MutableFuncGauge{
		info: info,
		fn:   func() float64 { return float64(fn()) },
		asFn: func(rb *RecordBuilder, info *Info, v float64) {
			rb.AddGaugeLong(info, int64(v))
		},
	}
}

func NewFuncGaugeDouble(info *Info, fn func() float64) *MutableFuncGauge {
	return &MutableFuncGauge{
		info: info,
		fn:   fn,
		asFn: func(rb *RecordBuilder, info *Info, v float64) {
			rb.AddGaugeDouble(info, v)
		},
	}
}

func (g *MutableFuncGauge) Info() *Info { return g.info }

func (g *MutableFuncGauge) Changed() bool { return true }

func (g *MutableFuncGauge) Snapshot(rb *RecordBuilder, _ bool) {
	g.asFn(rb, g.info, g.fn())
}
