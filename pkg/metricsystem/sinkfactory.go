// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metricsystem

import (
	"fmt"
	"sync"

	"github.com/pulse-metrics/pulse/pkg/metrics"
)

// Sink plugins register a constructor for their class name so that
// configuration (`sink.<name>.class`) can instantiate them, the same
// way database/sql drivers announce themselves. Registration usually
// happens from the plugin package's init; the application imports the
// plugins it wants available.
var (
	sinkFactoryMu sync.RWMutex
	sinkFactories = make(map[string]func() metrics.Sink)
)

// RegisterSinkType makes class constructible from configuration.
// Registering the same class twice panics.
func RegisterSinkType(class string, factory func() metrics.Sink) {
	sinkFactoryMu.Lock()
	defer sinkFactoryMu.Unlock()
	if _, dup := sinkFactories[class]; dup {
		panic(fmt.Sprintf("sink class %q registered twice", class))
	}
	sinkFactories[class] = factory
}

func newSinkForClass(class string) (metrics.Sink, error) {
	sinkFactoryMu.RLock()
	factory, ok := sinkFactories[class]
	sinkFactoryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown sink class %q", class)
	}
	return factory(), nil
}
