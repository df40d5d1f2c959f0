// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

import (
	"github.com/spf13/viper"
)

// Sink receives and externalizes records. PutMetrics is invoked once
// per surviving record of a buffer, followed by exactly one Flush.
// Errors from either trigger the delivering adapter's retry state
// machine and never propagate further.
type Sink interface {
	PutMetrics(r Record) error
	Flush() error
}

// SinkConfigurer is implemented by sinks that take options from their
// config subtree. The adapter calls Configure once before first use.
type SinkConfigurer interface {
	Configure(conf *viper.Viper) error
}

// SinkCloser is implemented by sinks holding external resources. The
// adapter calls Close after the final delivery attempt on shutdown.
type SinkCloser interface {
	Close() error
}
