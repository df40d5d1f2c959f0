// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metricsystem

import (
	"fmt"
	"time"

	"github.com/pulse-metrics/pulse/pkg/logger"
	"github.com/pulse-metrics/pulse/pkg/metrics"
)

// sinkAdapter wraps one sink behind a bounded queue and a dedicated
// consumer goroutine, so that a slow or failing sink backlogs and
// drops instead of blocking the publisher. At most one delivery is in
// flight per sink at any time.
type sinkAdapter struct {
	name        string
	description string
	sink        metrics.Sink
	conf        *sinkConfig

	queue *sinkQueue

	// periodMs is the sink period in logical milliseconds. The base
	// sampling period divides it, so the sink accepts buffers only on
	// its own multiples of the base tick.
	periodMs int64

	retryDelay   time.Duration
	retryBackoff float64
	retryCount   int

	// Internal stats, reported through the self-source.
	registry *metrics.Registry
	latency  *metrics.MutableStat
	dropped  *metrics.MutableCounterInt
	qsize    *metrics.MutableGaugeInt

	stopCh chan struct{}
	done   chan struct{}
}

func newSinkAdapter(name, description string, sink metrics.Sink,
	conf *sinkConfig) *sinkAdapter {

	periodMs := int64(conf.period / time.Millisecond)
	if periodMs < 1 {
		periodMs = 1
	}
	registry := metrics.NewRegistryNamed("sinkadapter")
	sa := &sinkAdapter{
		name:         name,
		description:  description,
		sink:         sink,
		conf:         conf,
		queue:        newSinkQueue(conf.queueCapacity),
		periodMs:     periodMs,
		retryDelay:   conf.retryDelay,
		retryBackoff: conf.retryBackoff,
		retryCount:   conf.retryCount,
		registry:     registry,
		latency:      registry.NewRollingStat("Sink_"+name, description, "Ops", "Time", false),
		dropped:      registry.NewCounterInt(metrics.NewInfo("Sink_"+name+"Dropped", "Dropped updates per sink"), 0),
		qsize:        registry.NewGaugeInt(metrics.NewInfo("Sink_"+name+"Qsize", "Queue size of per-sink buffers"), 0),
	}
	return sa
}

// configure hands the sink its config subtree. Called once before
// start; a failing sink is reported but left registered so a restart
// can retry.
func (sa *sinkAdapter) configure() error {
	if c, ok := sa.sink.(metrics.SinkConfigurer); ok {
		if err := c.Configure(sa.conf.conf); err != nil {
			return fmt.Errorf("configure sink %s: %w", sa.name, err)
		}
	}
	return nil
}

func (sa *sinkAdapter) start() {
	sa.stopCh = make(chan struct{})
	sa.done = make(chan struct{})
	go sa.consume()
	logger.GetLogger().WithField("sink", sa.name).Debug("Sink consumer started")
}

// putMetrics offers a buffer without blocking. Buffers falling between
// the sink's own ticks are skipped silently; a full queue discards its
// oldest buffer, which counts as a drop.
func (sa *sinkAdapter) putMetrics(b Buffer, logicalTimeMs int64) bool {
	if logicalTimeMs%sa.periodMs != 0 {
		return true
	}
	accepted := sa.queue.enqueue(b)
	if !accepted {
		sa.dropped.Inc()
	}
	sa.qsize.Set(int32(sa.queue.size()))
	return accepted
}

// putMetricsImmediate offers a buffer, waiting up to one sink period
// for queue space. Nothing is dropped on expiry; the miss is counted.
func (sa *sinkAdapter) putMetricsImmediate(b Buffer) bool {
	accepted := sa.queue.enqueueWait(b, sa.conf.period)
	if !accepted {
		sa.dropped.Inc()
	}
	sa.qsize.Set(int32(sa.queue.size()))
	return accepted
}

// consume is the worker loop: dequeue, deliver with retries, repeat.
// Delivery failures back off exponentially and retry the same buffer;
// after retryCount consecutive failures the buffer is dropped and the
// loop moves on.
func (sa *sinkAdapter) consume() {
	defer close(sa.done)
	for {
		buf, ok := sa.queue.dequeue()
		if !ok {
			return
		}
		sa.qsize.Set(int32(sa.queue.size()))
		sa.deliverWithRetry(buf)
	}
}

func (sa *sinkAdapter) deliverWithRetry(buf Buffer) {
	delay := sa.retryDelay
	for failures := 0; ; {
		start := time.Now()
		err := sa.deliver(buf)
		sa.latency.Observe(float64(time.Since(start).Milliseconds()))
		if err == nil {
			return
		}
		failures++
		if failures >= sa.retryCount {
			sa.dropped.Inc()
			logger.GetLogger().WithField("sink", sa.name).WithError(err).
				Warnf("Got sink exception and over retry limit, suppressing further error messages")
			return
		}
		logger.GetLogger().WithField("sink", sa.name).WithError(err).
			Warnf("Got sink exception, retry in %v", delay)
		select {
		case <-time.After(delay):
		case <-sa.stopCh:
			// Shutting down: one last polite attempt, no retry.
			if err := sa.deliver(buf); err != nil {
				logger.GetLogger().WithField("sink", sa.name).WithError(err).
					Warn("Final delivery attempt failed during shutdown")
			}
			return
		}
		delay = time.Duration(float64(delay) * sa.retryBackoff)
	}
}

// deliver pushes one buffer through the sink, applying the sink's
// source, record and metric filters, and flushes once at the end.
func (sa *sinkAdapter) deliver(buf Buffer) error {
	for _, entry := range buf {
		if sa.conf.sourceFilter != nil && !sa.conf.sourceFilter.Accepts(entry.Source()) {
			continue
		}
		for _, rec := range entry.Records() {
			if rf := sa.conf.recordFilter; rf != nil &&
				!(rf.Accepts(rec.Name()) && rf.AcceptsTags(rec.Tags())) {
				continue
			}
			if err := sa.sink.PutMetrics(rec.Filtered(sa.conf.metricFilter)); err != nil {
				return err
			}
		}
	}
	return sa.sink.Flush()
}

// stop signals the worker and joins it with a bounded wait; a stuck
// delivery is abandoned and logged.
func (sa *sinkAdapter) stop() {
	close(sa.stopCh)
	sa.queue.stop()
	select {
	case <-sa.done:
	case <-time.After(sa.conf.period):
		logger.GetLogger().WithField("sink", sa.name).
			Warn("Sink consumer did not stop in time, abandoning")
	}
	if c, ok := sa.sink.(metrics.SinkCloser); ok {
		if err := c.Close(); err != nil {
			logger.GetLogger().WithField("sink", sa.name).WithError(err).
				Warn("Error closing sink")
		}
	}
}

// snapshotStats appends the adapter's internal stats to a record.
func (sa *sinkAdapter) snapshotStats(rb *metrics.RecordBuilder, all bool) {
	sa.registry.Snapshot(rb, all)
}

// Dropped returns the number of buffers this sink has dropped, from
// queue overflow, expired immediate publishes and retry exhaustion.
func (sa *sinkAdapter) Dropped() int32 { return sa.dropped.Value() }
