// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package defaults

const (
	// DefaultConfDir is where the agent looks for pulse.yaml.
	DefaultConfDir = "/etc/pulse/"

	// DefaultConfDropIn is the drop-in configuration directory merged
	// over the main file.
	DefaultConfDropIn = "/etc/pulse/pulse.conf.d/"

	// DefaultServerAddress serves the introspection and control
	// endpoints.
	DefaultServerAddress = "localhost:8062"

	// DefaultPromAddress serves the prometheus scrape endpoint when
	// the bridge sink is enabled.
	DefaultPromAddress = "localhost:2112"

	// DefaultMetricsPrefix is the configuration prefix of the agent's
	// metrics system.
	DefaultMetricsPrefix = "agent"
)
