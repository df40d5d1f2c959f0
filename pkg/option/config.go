// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package option

// Config contains all the configuration used by the pulse agent.
var Config = config{
	// Initialize global defaults below.

	// LogOpts contains logger parameters
	LogOpts: make(map[string]string),
}

type config struct {
	Debug bool

	ConfigDir     string
	MetricsPrefix string
	ServerAddress string
	PromAddress   string
	EnableProm    bool

	LogOpts map[string]string
}
