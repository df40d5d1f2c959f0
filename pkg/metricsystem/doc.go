// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

// Package metricsystem is the metrics system orchestrator: the
// registry of sources and sinks, the sampling timer, the per-sink
// asynchronous delivery pipeline with bounded-queue backpressure and
// retry/drop semantics, and the system's own self-metrics.
//
// The public API is serialized on a single monitor. Producer threads
// mutate metric values concurrently with the sampler; each sink runs
// its own consumer goroutine so a slow or failing sink can never block
// producers or other sinks.
package metricsystem
