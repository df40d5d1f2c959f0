// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

import (
	"encoding/json"
)

// Record is a named group of tags and metric samples produced by one
// source during one sampling pass. Immutable once built.
type Record struct {
	info    *Info
	ts      int64 // milliseconds since epoch
	tags    []Tag
	metrics []Metric
}

func NewRecord(info *Info, tsMillis int64, tags []Tag, ms []Metric) Record {
	return Record{info: info, ts: tsMillis, tags: tags, metrics: ms}
}

func (r Record) Info() *Info { return r.info }

func (r Record) Name() string { return r.info.Name() }

func (r Record) Description() string { return r.info.Description() }

// Timestamp returns the sample time in milliseconds since the epoch.
func (r Record) Timestamp() int64 { return r.ts }

// Tags returns the record tags in insertion order. Callers must not
// mutate the returned slice.
func (r Record) Tags() []Tag { return r.tags }

// Metrics returns the samples in insertion order. Callers must not
// mutate the returned slice.
func (r Record) Metrics() []Metric { return r.metrics }

// Context returns the value of the context tag, if present.
func (r Record) Context() (string, bool) {
	for _, t := range r.tags {
		if t.Info() == ContextInfo || t.Name() == ContextInfo.Name() {
			return t.Value(), true
		}
	}
	return "", false
}

// Filtered returns a view of the record retaining only metrics
// accepted by the filter. A nil filter returns the record unchanged.
func (r Record) Filtered(metricFilter Filter) Record {
	if metricFilter == nil {
		return r
	}
	kept := make([]Metric, 0, len(r.metrics))
	for _, m := range r.metrics {
		if metricFilter.Accepts(m.Name()) {
			kept = append(kept, m)
		}
	}
	return Record{info: r.info, ts: r.ts, tags: r.tags, metrics: kept}
}

// MarshalJSON renders the record for JSON-speaking sinks and the
// introspection endpoints.
func (r Record) MarshalJSON() ([]byte, error) {
	tags := make(map[string]string, len(r.tags))
	for _, t := range r.tags {
		tags[t.Name()] = t.Value()
	}
	ms := make(map[string]any, len(r.metrics))
	for _, m := range r.metrics {
		ms[m.Name()] = m.Value()
	}
	return json.Marshal(struct {
		Name      string            `json:"name"`
		Timestamp int64             `json:"timestamp"`
		Tags      map[string]string `json:"tags,omitempty"`
		Metrics   map[string]any    `json:"metrics"`
	}{r.Name(), r.ts, tags, ms})
}
