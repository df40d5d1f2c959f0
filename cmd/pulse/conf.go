// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/pulse-metrics/pulse/pkg/defaults"
	"github.com/pulse-metrics/pulse/pkg/option"
)

func readConfigFile(path string, file string) error {
	filePath := filepath.Join(path, file)
	st, err := os.Stat(filePath)
	if err != nil {
		return err
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("failed to read config file '%s' not a regular file", file)
	}

	viper.AddConfigPath(path)
	return viper.MergeInConfig()
}

func readConfigDir(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("'%s' is not a directory", path)
	}

	viper.AddConfigPath(path)
	return viper.MergeInConfig()
}

func readConfigSettings() {
	viper.SetEnvPrefix("pulse")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	viper.SetConfigName("pulse")
	viper.SetConfigType("yaml")

	// Look into cwd first, handy for quick development.
	readConfigFile(".", "pulse.yaml")

	// Then the packaged locations.
	readConfigFile(defaults.DefaultConfDir, "pulse.yaml")
	readConfigDir(defaults.DefaultConfDropIn)

	// Finally the explicit --config-dir.
	if viper.IsSet(option.KeyConfigDir) {
		configDir := viper.GetString(option.KeyConfigDir)
		if configDir != "" {
			if err := readConfigDir(configDir); err != nil {
				log.WithField(option.KeyConfigDir, configDir).WithError(err).
					Fatal("Failed to read config from directory")
			} else {
				log.WithField(option.KeyConfigDir, configDir).
					Info("Loaded config from directory")
			}
		}
	}
}
