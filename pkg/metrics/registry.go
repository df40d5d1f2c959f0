// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

import (
	"fmt"
	"sync"
)

// Registry is a per-source container of mutable metrics keyed by name,
// preserving insertion order for snapshots. A registry lives as long
// as its owning source. Metric names are unique within a registry; the
// New* constructors panic on duplicates (programming error), Add
// returns ErrDuplicateName instead.
type Registry struct {
	mu      sync.Mutex
	info    *Info
	metrics map[string]MutableMetric
	order   []string
	tags    []Tag
}

func NewRegistry(info *Info) *Registry {
	return &Registry{info: info, metrics: make(map[string]MutableMetric)}
}

func NewRegistryNamed(name string) *Registry {
	return NewRegistry(NewInfo(name, name))
}

func (r *Registry) Info() *Info { return r.info }

// Add registers an existing mutable metric under the given name.
func (r *Registry) Add(name string, m MutableMetric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.metrics[name]; ok {
		return fmt.Errorf("%w: %s in %s", ErrDuplicateName, name, r.info.Name())
	}
	r.metrics[name] = m
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) mustAdd(name string, m MutableMetric) {
	if err := r.Add(name, m); err != nil {
		panic(err)
	}
}

// Get returns the metric registered under name, or nil.
func (r *Registry) Get(name string) MutableMetric {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics[name]
}

func (r *Registry) NewCounterInt(info *Info, initial int32) *MutableCounterInt {
	c := NewMutableCounterInt(info, initial)
	r.mustAdd(info.Name(), c)
	return c
}

func (r *Registry) NewCounterLong(info *Info, initial int64) *MutableCounterLong {
	c := NewMutableCounterLong(info, initial)
	r.mustAdd(info.Name(), c)
	return c
}

// NewCounter is shorthand for a 64-bit counter described by name.
func (r *Registry) NewCounter(name, description string, initial int64) *MutableCounterLong {
	return r.NewCounterLong(NewInfo(name, description), initial)
}

func (r *Registry) NewGaugeInt(info *Info, initial int32) *MutableGaugeInt {
	g := NewMutableGaugeInt(info, initial)
	r.mustAdd(info.Name(), g)
	return g
}

func (r *Registry) NewGaugeLong(info *Info, initial int64) *MutableGaugeLong {
	g := NewMutableGaugeLong(info, initial)
	r.mustAdd(info.Name(), g)
	return g
}

func (r *Registry) NewGaugeFloat(info *Info, initial float32) *MutableGaugeFloat {
	g := NewMutableGaugeFloat(info, initial)
	r.mustAdd(info.Name(), g)
	return g
}

func (r *Registry) NewGaugeDouble(info *Info, initial float64) *MutableGaugeDouble {
	g := NewMutableGaugeDouble(info, initial)
	r.mustAdd(info.Name(), g)
	return g
}

// NewGauge is shorthand for a 64-bit gauge described by name.
func (r *Registry) NewGauge(name, description string, initial int64) *MutableGaugeLong {
	return r.NewGaugeLong(NewInfo(name, description), initial)
}

func (r *Registry) NewStat(name, description, sampleName, valueName string, extended bool) *MutableStat {
	return r.newStat(name, description, sampleName, valueName, extended, false)
}

// NewRollingStat creates a stat whose window resets after every
// snapshot.
func (r *Registry) NewRollingStat(name, description, sampleName, valueName string, extended bool) *MutableStat {
	return r.newStat(name, description, sampleName, valueName, extended, true)
}

func (r *Registry) newStat(name, description, sampleName, valueName string, extended, rolling bool) *MutableStat {
	s := NewMutableStat(name, description, sampleName, valueName, extended, rolling)
	r.mustAdd(name, s)
	return s
}

func (r *Registry) NewFuncGaugeLong(info *Info, fn func() int64) *MutableFuncGauge {
	g := NewFuncGaugeLong(info, fn)
	r.mustAdd(info.Name(), g)
	return g
}

func (r *Registry) NewFuncGaugeDouble(info *Info, fn func() float64) *MutableFuncGauge {
	g := NewFuncGaugeDouble(info, fn)
	r.mustAdd(info.Name(), g)
	return g
}

// SetContext sets the context tag appended to every record emitted
// from this registry.
func (r *Registry) SetContext(value string) *Registry {
	return r.TagInfo(ContextInfo, value)
}

// TagInfo appends a registry-level tag. Re-tagging with the same info
// replaces the previous value.
func (r *Registry) TagInfo(info *Info, value string) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.tags {
		if t.Info() == info {
			r.tags[i] = NewTag(info, value)
			return r
		}
	}
	r.tags = append(r.tags, NewTag(info, value))
	return r
}

// Snapshot appends the registry tags and every metric's current
// sample to the builder, in insertion order. Callers must not register
// new metrics from inside a source's GetMetrics; late registrations
// become visible in the next pass.
func (r *Registry) Snapshot(rb *RecordBuilder, all bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tags {
		rb.Add(t)
	}
	for _, name := range r.order {
		r.metrics[name].Snapshot(rb, all)
	}
}
