// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metricsystem

import (
	"github.com/pulse-metrics/pulse/pkg/metrics"
)

// BufferEntry pairs a source name with the records it produced during
// one sampling pass.
type BufferEntry struct {
	source  string
	records []metrics.Record
}

func (e BufferEntry) Source() string { return e.source }

func (e BufferEntry) Records() []metrics.Record { return e.records }

// Buffer is the immutable unit of delivery to sinks: the records of
// all sources for one sampling pass, in source registration order.
type Buffer []BufferEntry

type bufferBuilder struct {
	entries []BufferEntry
}

func (b *bufferBuilder) add(source string, records []metrics.Record) {
	b.entries = append(b.entries, BufferEntry{source: source, records: records})
}

func (b *bufferBuilder) build() Buffer {
	return Buffer(b.entries)
}
