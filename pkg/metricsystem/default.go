// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metricsystem

import (
	"fmt"
	"sync"
)

// The process-wide default system. Most applications run exactly one
// metrics system; libraries reach it through Instance so nested
// initialization in tests composes via the refcount.
var (
	defaultMu       sync.Mutex
	defaultInstance *MetricsSystem
)

// Instance returns the process-wide system, creating it unconfigured
// on first use.
func Instance() *MetricsSystem {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultInstance == nil {
		defaultInstance = New("default")
	}
	return defaultInstance
}

// Init initializes the process-wide system for the prefix.
func Init(prefix string) *MetricsSystem {
	return Instance().Init(prefix)
}

// Shutdown decrements the process-wide system's refcount, tearing it
// down when the last holder lets go.
func Shutdown() bool {
	return Instance().Shutdown()
}

// Source name uniqueness is process-wide so independent systems (and
// repeated test setups) never collide on introspection names.
var (
	sourceNamesMu sync.Mutex
	sourceNames   = make(map[string]bool)
)

// SourceName reserves a source name. With unique set, a taken name
// gets a monotonically increasing "-N" suffix; otherwise the name is
// returned as is and simply marked taken.
func SourceName(name string, unique bool) string {
	sourceNamesMu.Lock()
	defer sourceNamesMu.Unlock()
	if !unique || !sourceNames[name] {
		sourceNames[name] = true
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", name, i)
		if !sourceNames[candidate] {
			sourceNames[candidate] = true
			return candidate
		}
	}
}

// releaseSourceName frees a name reserved by SourceName so that
// unregister-then-register round-trips keep their original name.
func releaseSourceName(name string) {
	sourceNamesMu.Lock()
	defer sourceNamesMu.Unlock()
	delete(sourceNames, name)
}
