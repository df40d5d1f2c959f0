// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package option

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pulse-metrics/pulse/pkg/defaults"
	"github.com/pulse-metrics/pulse/pkg/logger"
)

const (
	KeyConfigDir = "config-dir"
	KeyDebug     = "debug"

	KeyLogLevel  = "log-level"
	KeyLogFormat = "log-format"

	KeyMetricsPrefix = "metrics-prefix"
	KeyServerAddress = "server-address"
	KeyPromAddress   = "prom-address"
	KeyEnableProm    = "enable-prom"
)

// ReadAndSetFlags moves the viper-resolved flag values into the global
// Config.
func ReadAndSetFlags() {
	Config.Debug = viper.GetBool(KeyDebug)
	Config.ConfigDir = viper.GetString(KeyConfigDir)
	Config.MetricsPrefix = viper.GetString(KeyMetricsPrefix)
	Config.ServerAddress = viper.GetString(KeyServerAddress)
	Config.PromAddress = viper.GetString(KeyPromAddress)
	Config.EnableProm = viper.GetBool(KeyEnableProm)

	logger.PopulateLogOpts(Config.LogOpts,
		viper.GetString(KeyLogLevel), viper.GetString(KeyLogFormat))
}

// AddFlags declares the agent's command line surface.
func AddFlags(flags *pflag.FlagSet) {
	flags.String(KeyConfigDir, "", "Configuration directory merged over the defaults")
	flags.Bool(KeyDebug, false, "Enable debug messages")

	flags.String(KeyLogLevel, "info", "Log level (trace/debug/info/warning/error/fatal/panic)")
	flags.String(KeyLogFormat, "text", "Log format (text/json)")

	flags.String(KeyMetricsPrefix, defaults.DefaultMetricsPrefix, "Metrics system configuration prefix")
	flags.String(KeyServerAddress, defaults.DefaultServerAddress, "Introspection server address")
	flags.String(KeyPromAddress, defaults.DefaultPromAddress, "Prometheus scrape address")
	flags.Bool(KeyEnableProm, false, "Expose the prometheus bridge sink")
}
