// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metricsystem

import (
	"sync"
	"time"

	"github.com/pulse-metrics/pulse/pkg/logger"
	"github.com/pulse-metrics/pulse/pkg/metrics"
)

// sourceAdapter wraps one source for the sampling loop: it drives the
// source against the shared collector, contains its failures, applies
// the injected tags and keeps a TTL-bounded snapshot cache for the
// introspection surface.
type sourceAdapter struct {
	prefix      string
	name        string
	description string
	source      metrics.Source

	recordFilter metrics.Filter
	metricFilter metrics.Filter

	// injectedTags is shared with the owning system; appended to every
	// record this source emits.
	injectedTags *[]metrics.Tag

	// cacheTTL bounds how often external polling can force a fresh
	// snapshot. Defaults to the sampling period.
	cacheTTL time.Duration

	mu         sync.Mutex
	lastRecs   []metrics.Record
	lastSample time.Time
	started    bool
}

func newSourceAdapter(prefix, name, description string, source metrics.Source,
	injectedTags *[]metrics.Tag, period time.Duration, conf *sourceConfig) *sourceAdapter {
	sa := &sourceAdapter{
		prefix:       prefix,
		name:         name,
		description:  description,
		source:       source,
		injectedTags: injectedTags,
		cacheTTL:     period,
	}
	if conf != nil {
		sa.recordFilter = conf.recordFilter
		sa.metricFilter = conf.metricFilter
	}
	return sa
}

func (sa *sourceAdapter) start() {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	sa.started = true
	logger.GetLogger().Debugf("Started source %s", sa.beanName())
}

func (sa *sourceAdapter) stop() {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	sa.started = false
	sa.lastRecs = nil
	sa.lastSample = time.Time{}
}

// beanName is the stable introspection name of this source.
func (sa *sourceAdapter) beanName() string {
	return sa.prefix + ":name=" + sa.name
}

// getMetrics samples the source into the given collector and returns
// the finalized records. A faulty source yields zero records for this
// pass, never an aborted pass. Serialized with the snapshot cache so
// the source never sees two concurrent GetMetrics calls.
func (sa *sourceAdapter) getMetrics(c *metrics.Collector, all bool) []metrics.Record {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	return sa.getMetricsLocked(c, all)
}

func (sa *sourceAdapter) getMetricsLocked(c *metrics.Collector, all bool) []metrics.Record {
	c.Clear()
	c.SetRecordFilter(sa.recordFilter).SetMetricFilter(sa.metricFilter)

	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.GetLogger().WithField("source", sa.name).
					Warnf("Error getting metrics from source: %v", r)
				c.Clear()
			}
		}()
		sa.source.GetMetrics(c, all)
	}()

	if sa.injectedTags != nil {
		for _, rb := range c.Builders() {
			for _, t := range *sa.injectedTags {
				rb.Add(t)
			}
		}
	}
	recs := c.Records()
	c.Clear()
	c.SetRecordFilter(nil).SetMetricFilter(nil)
	return recs
}

// snapshot returns the current records for external inspection,
// re-sampling at most once per cache TTL so rapid polling stays cheap.
func (sa *sourceAdapter) snapshot() []metrics.Record {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	if !sa.started {
		return nil
	}
	if time.Since(sa.lastSample) > sa.cacheTTL || sa.lastRecs == nil {
		sa.lastRecs = sa.getMetricsLocked(metrics.NewCollector(), true)
		sa.lastSample = time.Now()
	}
	return sa.lastRecs
}
