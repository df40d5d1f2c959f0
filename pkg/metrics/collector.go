// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

// Collector is the transient staging area for one sampling pass: an
// ordered list of record builders, with optional record and metric
// filters applied at build time. It is not safe for concurrent use;
// one pass owns it at a time and clears it between sources.
type Collector struct {
	builders     []*RecordBuilder
	recordFilter Filter
	metricFilter Filter
}

func NewCollector() *Collector {
	return &Collector{}
}

// AddRecord starts a record for the given descriptor. When the record
// filter rejects the name, a no-op builder is returned so callers need
// not branch; it accepts calls but retains nothing.
func (c *Collector) AddRecord(info *Info) *RecordBuilder {
	acceptable := c.recordFilter == nil || c.recordFilter.Accepts(info.Name())
	rb := newRecordBuilder(c, info, c.recordFilter, c.metricFilter, acceptable)
	if acceptable {
		c.builders = append(c.builders, rb)
	}
	return rb
}

// AddRecordNamed is a convenience that synthesizes the descriptor from
// a bare name.
func (c *Collector) AddRecordNamed(name string) *RecordBuilder {
	return c.AddRecord(NewInfo(name, name+" record"))
}

// Records finalizes the pass: one record per accepted builder, with
// builders whose tag set the record filter rejects omitted.
func (c *Collector) Records() []Record {
	recs := make([]Record, 0, len(c.builders))
	for _, rb := range c.builders {
		if r, ok := rb.record(); ok {
			recs = append(recs, r)
		}
	}
	return recs
}

// Builders returns the staged builders of the current pass, allowing
// the sampling loop to append injected tags before finalizing.
func (c *Collector) Builders() []*RecordBuilder {
	return c.builders
}

// Clear discards all staged builders, isolating the next source.
func (c *Collector) Clear() {
	c.builders = c.builders[:0]
}

func (c *Collector) SetRecordFilter(f Filter) *Collector {
	c.recordFilter = f
	return c
}

func (c *Collector) SetMetricFilter(f Filter) *Collector {
	c.metricFilter = f
	return c
}
