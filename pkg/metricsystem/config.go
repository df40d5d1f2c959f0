// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metricsystem

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pulse-metrics/pulse/pkg/metrics"
)

// Defaults for the per-prefix configuration schema.
const (
	DefaultPeriod        = 10 * time.Second
	DefaultQueueCapacity = 1
	DefaultRetryDelay    = 10 * time.Second
	DefaultRetryBackoff  = 2.0
	DefaultRetryCount    = 1
)

// systemConfig is the parsed per-prefix configuration. The system
// consumes a pre-parsed hierarchical tree (viper); file handling is
// the caller's concern.
type systemConfig struct {
	// period is the base sampling period: the gcd of all configured
	// sink periods, falling back to the configured or default period.
	period time.Duration

	sourceFilter metrics.Filter
	recordFilter metrics.Filter
	metricFilter metrics.Filter

	sinks   map[string]*sinkConfig
	sources map[string]*sourceConfig
}

type sinkConfig struct {
	name    string
	class   string
	context string
	period  time.Duration

	queueCapacity int
	retryDelay    time.Duration
	retryBackoff  float64
	retryCount    int

	sourceFilter metrics.Filter
	recordFilter metrics.Filter
	metricFilter metrics.Filter

	// conf is the raw subtree handed to the sink's Configure hook.
	conf *viper.Viper
}

type sourceConfig struct {
	name         string
	recordFilter metrics.Filter
	metricFilter metrics.Filter
	conf         *viper.Viper
}

// loadConfig parses the configuration subtree for one system prefix.
// A nil tree yields pure defaults.
func loadConfig(v *viper.Viper) (*systemConfig, error) {
	if v == nil {
		v = viper.New()
	}
	c := &systemConfig{
		sinks:   make(map[string]*sinkConfig),
		sources: make(map[string]*sourceConfig),
	}

	var err error
	if c.sourceFilter, err = metrics.FilterFromConfig(v.Sub("source.filter")); err != nil {
		return nil, fmt.Errorf("source filter: %w", err)
	}
	if c.recordFilter, err = metrics.FilterFromConfig(v.Sub("record.filter")); err != nil {
		return nil, fmt.Errorf("record filter: %w", err)
	}
	if c.metricFilter, err = metrics.FilterFromConfig(v.Sub("metric.filter")); err != nil {
		return nil, fmt.Errorf("metric filter: %w", err)
	}

	for _, name := range subKeys(v, "sink") {
		sc, err := loadSinkConfig(name, v.Sub("sink."+name))
		if err != nil {
			return nil, fmt.Errorf("sink %s: %w", name, err)
		}
		c.sinks[name] = sc
	}
	for _, name := range subKeys(v, "source") {
		if name == "filter" {
			continue
		}
		sc, err := loadSourceConfig(name, v.Sub("source."+name))
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", name, err)
		}
		c.sources[name] = sc
	}

	// The base tick divides every sink period so each sink can publish
	// at its own cadence as an integer multiple of it.
	confPeriod := 0
	for _, sc := range c.sinks {
		sinkPeriod := int(sc.period / time.Second)
		if confPeriod == 0 {
			confPeriod = sinkPeriod
		} else {
			confPeriod = gcd(confPeriod, sinkPeriod)
		}
	}
	switch {
	case confPeriod > 0:
		c.period = time.Duration(confPeriod) * time.Second
	case v.IsSet("period"):
		c.period = secondsOrDuration(v, "period", DefaultPeriod)
	default:
		c.period = DefaultPeriod
	}
	if c.period <= 0 {
		return nil, fmt.Errorf("non-positive period %v", c.period)
	}
	return c, nil
}

func loadSinkConfig(name string, v *viper.Viper) (*sinkConfig, error) {
	if v == nil {
		v = viper.New()
	}
	sc := &sinkConfig{
		name:          name,
		class:         v.GetString("class"),
		context:       v.GetString("context"),
		period:        secondsOrDuration(v, "period", DefaultPeriod),
		queueCapacity: DefaultQueueCapacity,
		retryDelay:    DefaultRetryDelay,
		retryBackoff:  DefaultRetryBackoff,
		retryCount:    DefaultRetryCount,
		conf:          v,
	}
	if v.IsSet("queue.capacity") {
		sc.queueCapacity = v.GetInt("queue.capacity")
	}
	if v.IsSet("retry.delay") {
		sc.retryDelay = time.Duration(v.GetInt("retry.delay")) * time.Millisecond
	}
	if v.IsSet("retry.backoff") {
		sc.retryBackoff = v.GetFloat64("retry.backoff")
	}
	if v.IsSet("retry.count") {
		sc.retryCount = v.GetInt("retry.count")
	}
	if sc.retryBackoff < 1.0 {
		return nil, fmt.Errorf("retry backoff %v < 1.0", sc.retryBackoff)
	}
	if sc.retryCount < 1 {
		sc.retryCount = 1
	}

	var err error
	if sc.sourceFilter, err = metrics.FilterFromConfig(v.Sub("source.filter")); err != nil {
		return nil, err
	}
	if sc.recordFilter, err = metrics.FilterFromConfig(v.Sub("record.filter")); err != nil {
		return nil, err
	}
	if sc.metricFilter, err = metrics.FilterFromConfig(v.Sub("metric.filter")); err != nil {
		return nil, err
	}
	return sc, nil
}

func loadSourceConfig(name string, v *viper.Viper) (*sourceConfig, error) {
	if v == nil {
		v = viper.New()
	}
	sc := &sourceConfig{name: name, conf: v}
	var err error
	if sc.recordFilter, err = metrics.FilterFromConfig(v.Sub("record.filter")); err != nil {
		return nil, err
	}
	if sc.metricFilter, err = metrics.FilterFromConfig(v.Sub("metric.filter")); err != nil {
		return nil, err
	}
	return sc, nil
}

// subKeys lists the immediate child keys under prefix, in stable
// order.
func subKeys(v *viper.Viper, prefix string) []string {
	seen := make(map[string]bool)
	for _, key := range v.AllKeys() {
		if !strings.HasPrefix(key, prefix+".") {
			continue
		}
		rest := strings.TrimPrefix(key, prefix+".")
		if i := strings.IndexByte(rest, '.'); i > 0 {
			seen[rest[:i]] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// secondsOrDuration reads a duration key given either as integral
// seconds or as a duration string.
func secondsOrDuration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	if !v.IsSet(key) {
		return fallback
	}
	if secs := v.GetInt(key); secs > 0 {
		if fmt.Sprint(secs) == v.GetString(key) {
			return time.Duration(secs) * time.Second
		}
	}
	if d := v.GetDuration(key); d > 0 {
		return d
	}
	return fallback
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}
