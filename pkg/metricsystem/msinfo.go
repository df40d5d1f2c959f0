// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metricsystem

import (
	"github.com/pulse-metrics/pulse/pkg/metrics"
)

// Well known descriptors for the tags the system injects and the
// self-source gauges.
var (
	hostnameInfo = metrics.NewInfo("Hostname", "Local hostname")

	numActiveSourcesInfo = metrics.NewInfo("NumActiveSources", "Number of active metrics sources")
	numAllSourcesInfo    = metrics.NewInfo("NumAllSources", "Number of all registered metrics sources")
	numActiveSinksInfo   = metrics.NewInfo("NumActiveSinks", "Number of active metrics sinks")
	numAllSinksInfo      = metrics.NewInfo("NumAllSinks", "Number of all registered metrics sinks")
)
