// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

import (
	"time"
)

// RecordBuilder accumulates tags and samples for one record under the
// current source's sampling pass. Builders are transient: discarded
// when the collector is cleared, never retained by sources.
//
// A builder created for a filtered-out record silently drops
// everything added to it.
type RecordBuilder struct {
	parent       *Collector
	ts           int64
	info         *Info
	tags         []Tag
	metrics      []Metric
	recordFilter Filter
	metricFilter Filter
	acceptable   bool
}

func newRecordBuilder(parent *Collector, info *Info, rf, mf Filter, acceptable bool) *RecordBuilder {
	return &RecordBuilder{
		parent:       parent,
		ts:           time.Now().UnixMilli(),
		info:         info,
		recordFilter: rf,
		metricFilter: mf,
		acceptable:   acceptable,
	}
}

// Parent returns the owning collector, allowing call chains to add
// further records.
func (rb *RecordBuilder) Parent() *Collector { return rb.parent }

// Tag adds an interned tag.
func (rb *RecordBuilder) Tag(info *Info, value string) *RecordBuilder {
	if rb.acceptable {
		rb.tags = append(rb.tags, NewTag(info, value))
	}
	return rb
}

// Add appends an existing tag unchanged.
func (rb *RecordBuilder) Add(tag Tag) *RecordBuilder {
	if rb.acceptable {
		rb.tags = append(rb.tags, tag)
	}
	return rb
}

// AddMetric appends a pre-built sample, bypassing the metric filter.
func (rb *RecordBuilder) AddMetric(m Metric) *RecordBuilder {
	if rb.acceptable {
		rb.metrics = append(rb.metrics, m)
	}
	return rb
}

// SetContext tags the record with the metrics context.
func (rb *RecordBuilder) SetContext(value string) *RecordBuilder {
	return rb.Tag(ContextInfo, value)
}

func (rb *RecordBuilder) AddCounterInt(info *Info, value int32) *RecordBuilder {
	if rb.accepts(info) {
		rb.metrics = append(rb.metrics, CounterInt(info, value))
	}
	return rb
}

func (rb *RecordBuilder) AddCounterLong(info *Info, value int64) *RecordBuilder {
	if rb.accepts(info) {
		rb.metrics = append(rb.metrics, CounterLong(info, value))
	}
	return rb
}

func (rb *RecordBuilder) AddGaugeInt(info *Info, value int32) *RecordBuilder {
	if rb.accepts(info) {
		rb.metrics = append(rb.metrics, GaugeInt(info, value))
	}
	return rb
}

func (rb *RecordBuilder) AddGaugeLong(info *Info, value int64) *RecordBuilder {
	if rb.accepts(info) {
		rb.metrics = append(rb.metrics, GaugeLong(info, value))
	}
	return rb
}

func (rb *RecordBuilder) AddGaugeFloat(info *Info, value float32) *RecordBuilder {
	if rb.accepts(info) {
		rb.metrics = append(rb.metrics, GaugeFloat(info, value))
	}
	return rb
}

func (rb *RecordBuilder) AddGaugeDouble(info *Info, value float64) *RecordBuilder {
	if rb.accepts(info) {
		rb.metrics = append(rb.metrics, GaugeDouble(info, value))
	}
	return rb
}

func (rb *RecordBuilder) accepts(info *Info) bool {
	return rb.acceptable &&
		(rb.metricFilter == nil || rb.metricFilter.Accepts(info.Name()))
}

// record finalizes the builder, applying the record filter to the
// accumulated tag set. A builder without tags skips the tag check; its
// name already passed the record filter.
func (rb *RecordBuilder) record() (Record, bool) {
	if !rb.acceptable {
		return Record{}, false
	}
	if rb.recordFilter != nil && len(rb.tags) > 0 && !rb.recordFilter.AcceptsTags(rb.tags) {
		return Record{}, false
	}
	return NewRecord(rb.info, rb.ts, rb.tags, rb.metrics), true
}
