// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

// Source contributes metric samples when asked. GetMetrics is invoked
// by the sampling loop with a fresh staging collector; implementations
// add one or more records and fill them through the returned builders.
//
// Implementations must not block on I/O and must not retain the
// collector or any builder after the call returns. They must tolerate
// running concurrently with producer mutations on the same metric
// objects. With all=false only metrics changed since the previous
// snapshot need to be emitted.
type Source interface {
	GetMetrics(c *Collector, all bool)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(c *Collector, all bool)

func (f SourceFunc) GetMetrics(c *Collector, all bool) { f(c, all) }

// DescribedSource optionally supplies the name, description and
// context of a source object handed to BuildSource, playing the role
// of a class-level declaration.
type DescribedSource interface {
	SourceInfo() (name, description, context string)
}
