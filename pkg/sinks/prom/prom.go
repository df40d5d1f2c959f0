// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

// Package prom bridges records into a prometheus collector: the sink
// retains the latest sample of every metric it sees and re-exposes
// them, tags becoming labels, for scraping via promhttp.
package prom

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/pulse-metrics/pulse/pkg/metrics"
	"github.com/pulse-metrics/pulse/pkg/metricsystem"
)

// ClassName selects this sink in configuration.
const ClassName = "prometheus"

func init() {
	metricsystem.RegisterSinkType(ClassName, func() metrics.Sink { return New() })
}

type sample struct {
	name        string
	help        string
	counter     bool
	value       float64
	labelNames  []string
	labelValues []string
}

// Sink implements both metrics.Sink and prometheus.Collector.
type Sink struct {
	mu        sync.Mutex
	namespace string
	samples   map[string]sample
}

func New() *Sink {
	return &Sink{samples: make(map[string]sample)}
}

func (s *Sink) Configure(conf *viper.Viper) error {
	if conf != nil {
		s.mu.Lock()
		s.namespace = conf.GetString("namespace")
		s.mu.Unlock()
	}
	return nil
}

func (s *Sink) PutMetrics(r metrics.Record) error {
	labelNames := make([]string, 0, len(r.Tags()))
	labelValues := make([]string, 0, len(r.Tags()))
	for _, tag := range r.Tags() {
		labelNames = append(labelNames, sanitize(tag.Name()))
		labelValues = append(labelValues, tag.Value())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range r.Metrics() {
		name := sanitize(m.Name())
		if s.namespace != "" {
			name = s.namespace + "_" + name
		}
		key := name + "|" + strings.Join(labelValues, "|")
		s.samples[key] = sample{
			name:        name,
			help:        m.Info().Description(),
			counter:     m.IsCounter(),
			value:       m.Float(),
			labelNames:  labelNames,
			labelValues: labelValues,
		}
	}
	return nil
}

// Flush is a no-op: samples are published at scrape time.
func (s *Sink) Flush() error { return nil }

// Describe intentionally sends nothing, making this an unchecked
// collector: the metric set is only known at delivery time.
func (s *Sink) Describe(chan<- *prometheus.Desc) {}

func (s *Sink) Collect(ch chan<- prometheus.Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, smp := range s.samples {
		valueType := prometheus.GaugeValue
		if smp.counter {
			valueType = prometheus.CounterValue
		}
		labels := prometheus.Labels{}
		for i, n := range smp.labelNames {
			labels[n] = smp.labelValues[i]
		}
		ch <- prometheus.MustNewConstMetric(
			prometheus.NewDesc(smp.name, smp.help, nil, labels),
			valueType, smp.value)
	}
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}
