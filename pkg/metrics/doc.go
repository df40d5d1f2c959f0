// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

// Package metrics holds the metrics data model: metric descriptors and
// tags (interned for cheap equality), immutable samples and records,
// mutable accumulators bound into registries, the collector/record
// builder staging layer, and the source/sink/filter contracts.
//
// Producers mutate the mutable metrics concurrently; the sampling loop
// in pkg/metricsystem periodically snapshots them into immutable
// records and fans the result out to sinks.
package metrics
