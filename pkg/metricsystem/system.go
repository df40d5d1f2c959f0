// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metricsystem

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/pulse-metrics/pulse/pkg/logger"
	"github.com/pulse-metrics/pulse/pkg/metrics"
	"github.com/pulse-metrics/pulse/pkg/timer"
)

const (
	systemSourceName = "MetricsSystem"
	systemStatsName  = systemSourceName + ",sub=Stats"
	systemStatsDesc  = "Metrics system metrics"

	// InitModeEnv selects NORMAL or STANDBY initialization.
	InitModeEnv = "PULSE_INIT_MODE"
)

type initMode int

const (
	initModeNormal initMode = iota
	initModeStandby
)

// MetricsSystem orchestrates sources, sinks and the sampling timer for
// one prefix. Public methods are serialized on a single monitor;
// producer updates and sink deliveries proceed concurrently.
//
// Lifecycle: unconfigured -> configured -> monitoring <-> stopped.
// Init is refcounted so nested initialization (mini-cluster style
// tests) is tolerated; the matching Shutdown tears down on zero.
type MetricsSystem struct {
	mu sync.Mutex // the monitor

	// stateMu additionally guards the adapter maps for readers outside
	// the monitor (self-source, introspection). Lock order:
	// mu -> sourceAdapter.mu -> stateMu.
	stateMu sync.RWMutex

	prefix string
	conf   *viper.Viper

	sources     map[string]*sourceAdapter
	sourceOrder []string
	allSources  map[string]metrics.Source
	sinks       map[string]*sinkAdapter
	sinkOrder   []string
	allSinks    map[string]metrics.Sink

	callbacks      []Callback
	namedCallbacks map[string]Callback

	collector *metrics.Collector

	registry     *metrics.Registry
	snapshotStat *metrics.MutableStat
	publishStat  *metrics.MutableStat
	droppedPub   *metrics.MutableCounterLong

	injectedTags []metrics.Tag

	config       *systemConfig
	sourceFilter metrics.Filter
	monitoring   bool
	sampler      *timer.PeriodicTimer
	period       time.Duration
	logicalTime  int64 // milliseconds of timer invocations * period
	sysSource    *sourceAdapter
	refCount     int
}

// New constructs a metrics system for the prefix without initializing
// it. Most callers go through Init or the package-level default
// system.
func New(prefix string) *MetricsSystem {
	s := &MetricsSystem{
		prefix:         prefix,
		sources:        make(map[string]*sourceAdapter),
		allSources:     make(map[string]metrics.Source),
		sinks:          make(map[string]*sinkAdapter),
		allSinks:       make(map[string]metrics.Sink),
		namedCallbacks: make(map[string]Callback),
		collector:      metrics.NewCollector(),
		registry:       metrics.NewRegistryNamed(systemSourceName),
	}
	s.snapshotStat = s.registry.NewRollingStat("Snapshot", "Snapshot stats", "Ops", "Time", false)
	s.publishStat = s.registry.NewRollingStat("Publish", "Publishing stats", "Ops", "Time", false)
	s.droppedPub = s.registry.NewCounter("DroppedPubAll", "Dropped updates by all sinks", 0)
	s.sampler = timer.NewPeriodicTimer("Metrics sampler for "+prefix, s.onTimerEvent, false)
	return s
}

// SetConfig hands the system its pre-parsed configuration subtree.
// Takes effect on the next Start.
func (s *MetricsSystem) SetConfig(v *viper.Viper) *MetricsSystem {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conf = v
	return s
}

// Init starts the system for the prefix. Idempotent: repeated Init
// increments a refcount matched by Shutdown. Configuration errors are
// not fatal; the system stays configured and can be started later.
func (s *MetricsSystem) Init(prefix string) *MetricsSystem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prefix != "" {
		s.prefix = prefix
	}
	s.refCount++
	if s.monitoring {
		logger.GetLogger().Infof("%s metrics system started (again)", s.prefix)
		return s
	}
	switch readInitMode() {
	case initModeNormal:
		if err := s.startLocked(); err != nil {
			logger.GetLogger().WithError(err).
				Warnf("%s metrics system not started", s.prefix)
		}
	case initModeStandby:
		logger.GetLogger().Infof("%s metrics system started in standby mode", s.prefix)
	}
	return s
}

// Start loads the configuration, binds sources and sinks, and begins
// the sampling timer.
func (s *MetricsSystem) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.monitoring {
		logger.GetLogger().Warnf("%s metrics system already started", s.prefix)
		return nil
	}
	return s.startLocked()
}

func (s *MetricsSystem) startLocked() error {
	for _, cb := range s.callbacks {
		cb.PreStart()
	}
	for _, cb := range s.namedCallbacksOrdered() {
		cb.PreStart()
	}
	if err := s.configureLocked(); err != nil {
		// Degrade to configured; a later Start can retry.
		s.clearConfigsLocked()
		return err
	}
	s.logicalTime = 0
	s.sampler.Start(s.period)
	s.monitoring = true
	logger.GetLogger().Infof("%s metrics system started", s.prefix)
	for _, cb := range s.callbacks {
		cb.PostStart()
	}
	for _, cb := range s.namedCallbacksOrdered() {
		cb.PostStart()
	}
	return nil
}

// Stop reverses Start: cancels the timer, stops all adapters and
// clears the loaded configuration. Registrations survive for the next
// Start.
func (s *MetricsSystem) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *MetricsSystem) stopLocked() {
	if !s.monitoring {
		logger.GetLogger().Warnf("%s metrics system not yet started", s.prefix)
		return
	}
	for _, cb := range s.callbacks {
		cb.PreStop()
	}
	for _, cb := range s.namedCallbacksOrdered() {
		cb.PreStop()
	}
	logger.GetLogger().Infof("Stopping %s metrics system...", s.prefix)
	s.sampler.Stop()
	s.stopSourcesLocked()
	s.stopSinksLocked()
	s.clearConfigsLocked()
	s.monitoring = false
	logger.GetLogger().Infof("%s metrics system stopped.", s.prefix)
	for _, cb := range s.callbacks {
		cb.PostStop()
	}
	for _, cb := range s.namedCallbacksOrdered() {
		cb.PostStop()
	}
}

// Shutdown decrements the refcount and fully tears down on zero.
// Returns true once the system is actually shut down.
func (s *MetricsSystem) Shutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refCount <= 0 {
		logger.GetLogger().Debug("Redundant shutdown")
		return true
	}
	s.refCount--
	if s.refCount > 0 {
		return false
	}
	if s.monitoring {
		s.stopLocked()
	}
	s.stateMu.Lock()
	s.allSources = make(map[string]metrics.Source)
	s.allSinks = make(map[string]metrics.Sink)
	s.stateMu.Unlock()
	s.callbacks = nil
	s.namedCallbacks = make(map[string]Callback)
	logger.GetLogger().Infof("%s metrics system shutdown complete.", s.prefix)
	return true
}

// RegisterSource builds obj into a source (directly or through its
// tagged fields) and registers it under name. The source starts
// contributing on the next pass if the system is monitoring, otherwise
// on the next Start.
func (s *MetricsSystem) RegisterSource(name, description string, obj any) (metrics.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	source, info, err := metrics.BuildSource(obj)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = info.Name()
	}
	if description == "" {
		description = info.Description()
	}
	finalName := SourceName(name, !s.monitoring)
	finalDesc := description
	s.stateMu.Lock()
	s.allSources[finalName] = source
	s.stateMu.Unlock()
	logger.GetLogger().Debugf("Registered source %s, %s", finalName, finalDesc)
	if s.monitoring {
		s.registerSourceAdapterLocked(finalName, finalDesc, source)
	}
	// Re-register on restart so the source picks up new config.
	s.namedCallbacks[finalName] = proxyCallback(&postStartCallback{fn: func() {
		s.registerSourceAdapterLocked(finalName, finalDesc, source)
	}})
	return source, nil
}

func (s *MetricsSystem) registerSourceAdapterLocked(name, description string, source metrics.Source) {
	sa := newSourceAdapter(s.prefix, name, description, source,
		&s.injectedTags, s.period, s.sourceConfFor(name))
	s.stateMu.Lock()
	if _, exists := s.sources[name]; !exists {
		s.sourceOrder = append(s.sourceOrder, name)
	}
	s.sources[name] = sa
	s.stateMu.Unlock()
	sa.start()
}

// UnregisterSource stops and removes the named source and its restart
// callback. Passes after this call no longer include the source.
func (s *MetricsSystem) UnregisterSource(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateMu.Lock()
	sa, ok := s.sources[name]
	if ok {
		delete(s.sources, name)
		s.sourceOrder = removeString(s.sourceOrder, name)
	}
	delete(s.allSources, name)
	s.stateMu.Unlock()
	if ok {
		sa.stop()
	}
	delete(s.namedCallbacks, name)
	releaseSourceName(name)
}

// RegisterSink registers a sink under name. If the system is
// configured the sink becomes active immediately; either way it is
// re-bound with fresh config on every restart.
func (s *MetricsSystem) RegisterSink(name, description string, sink metrics.Sink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.allSinks[name]; ok {
		logger.GetLogger().Warnf("Sink %s already exists!", name)
		return nil
	}
	s.stateMu.Lock()
	s.allSinks[name] = sink
	s.stateMu.Unlock()
	if s.config != nil {
		s.registerSinkAdapterLocked(name, description, sink)
	}
	s.namedCallbacks[name] = proxyCallback(&postStartCallback{fn: func() {
		s.registerSinkAdapterLocked(name, description, sink)
	}})
	return nil
}

func (s *MetricsSystem) registerSinkAdapterLocked(name, description string, sink metrics.Sink) {
	conf := s.config.sinks[name]
	if conf == nil {
		// Unconfigured sinks follow the base sampling cadence.
		conf = &sinkConfig{
			name:          name,
			period:        s.period,
			queueCapacity: DefaultQueueCapacity,
			retryDelay:    DefaultRetryDelay,
			retryBackoff:  DefaultRetryBackoff,
			retryCount:    DefaultRetryCount,
			conf:          viper.New(),
		}
	}
	sa := newSinkAdapter(name, description, sink, conf)
	if err := sa.configure(); err != nil {
		logger.GetLogger().WithError(err).Warnf("Error creating sink '%s'", name)
		return
	}
	s.stateMu.Lock()
	if _, exists := s.sinks[name]; !exists {
		s.sinkOrder = append(s.sinkOrder, name)
	}
	s.sinks[name] = sa
	s.stateMu.Unlock()
	sa.start()
	logger.GetLogger().Infof("Registered sink %s", name)
}

// Register adds a lifecycle callback. Exceptions inside callbacks are
// suppressed and logged.
func (s *MetricsSystem) Register(cb Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, proxyCallback(cb))
}

// PublishMetricsNow samples immediately and publishes with a bounded
// wait per sink instead of the drop-head fast path.
func (s *MetricsSystem) PublishMetricsNow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sinks) > 0 {
		s.publishMetricsLocked(s.sampleMetricsLocked(), true)
	}
}

// onTimerEvent is one tick of the sampling loop. A tick that cannot
// acquire the monitor is skipped: the holder is either stopping the
// system (joining this very goroutine) or mid-registration, and the
// next tick samples.
func (s *MetricsSystem) onTimerEvent() {
	if !s.mu.TryLock() {
		return
	}
	defer s.mu.Unlock()
	if !s.monitoring {
		return
	}
	s.logicalTime += int64(s.period / time.Millisecond)
	if len(s.sinks) > 0 {
		s.publishMetricsLocked(s.sampleMetricsLocked(), false)
	}
}

// sampleMetrics samples all sources for a snapshot of metrics and
// tags.
func (s *MetricsSystem) sampleMetrics() Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleMetricsLocked()
}

func (s *MetricsSystem) sampleMetricsLocked() Buffer {
	s.collector.Clear()
	bb := &bufferBuilder{}
	for _, name := range s.sourceOrder {
		if s.sourceFilter == nil || s.sourceFilter.Accepts(name) {
			s.snapshotMetricsLocked(s.sources[name], bb)
		}
	}
	if s.sysSource != nil {
		s.snapshotMetricsLocked(s.sysSource, bb)
	}
	return bb.build()
}

func (s *MetricsSystem) snapshotMetricsLocked(sa *sourceAdapter, bb *bufferBuilder) {
	start := time.Now()
	bb.add(sa.name, sa.getMetrics(s.collector, true))
	s.collector.Clear()
	s.snapshotStat.Observe(float64(time.Since(start).Milliseconds()))
	logger.GetLogger().Debugf("Snapshotted source %s", sa.name)
}

// publishMetrics fans one buffer out to every sink adapter, counting
// rejected offers into the dropped totals.
func (s *MetricsSystem) publishMetricsLocked(buffer Buffer, immediate bool) {
	dropped := int64(0)
	for _, name := range s.sinkOrder {
		sa := s.sinks[name]
		start := time.Now()
		var accepted bool
		if immediate {
			accepted = sa.putMetricsImmediate(buffer)
		} else {
			accepted = sa.putMetrics(buffer, s.logicalTime)
		}
		if !accepted {
			dropped++
		}
		s.publishStat.Observe(float64(time.Since(start).Milliseconds()))
	}
	s.droppedPub.Add(dropped)
}

func (s *MetricsSystem) configureLocked() error {
	config, err := loadConfig(s.confForPrefix())
	if err != nil {
		return fmt.Errorf("config for prefix %q: %w", s.prefix, err)
	}
	s.config = config
	s.period = config.period
	s.sourceFilter = config.sourceFilter
	s.collector.SetRecordFilter(nil).SetMetricFilter(nil)

	// Sinks declared in configuration with a class are instantiated
	// here; programmatically registered sinks re-bind via their named
	// callbacks.
	for _, name := range sortedKeys(config.sinks) {
		sc := config.sinks[name]
		if sc.class == "" {
			continue // sink can be registered later on
		}
		sink, err := newSinkForClass(sc.class)
		if err != nil {
			logger.GetLogger().WithError(err).Warnf("Error creating sink '%s'", name)
			continue
		}
		s.stateMu.Lock()
		s.allSinks[name] = sink
		s.stateMu.Unlock()
		s.registerSinkAdapterLocked(name, sc.conf.GetString("description"), sink)
	}

	s.injectedTags = append(s.injectedTags[:0],
		metrics.NewTag(hostnameInfo, hostname()))
	s.registerSystemSourceLocked()
	return nil
}

func (s *MetricsSystem) registerSystemSourceLocked() {
	s.sysSource = newSourceAdapter(s.prefix, systemStatsName, systemStatsDesc,
		metrics.SourceFunc(s.getSystemMetrics), &s.injectedTags, s.period,
		s.sourceConfFor(systemSourceName))
	s.sysSource.start()
}

// sourceConfFor resolves the effective per-source config: the named
// subtree when present, with the system-wide record and metric filters
// as fallback.
func (s *MetricsSystem) sourceConfFor(name string) *sourceConfig {
	if s.config == nil {
		return nil
	}
	conf := s.config.sources[name]
	if conf == nil {
		return &sourceConfig{
			name:         name,
			recordFilter: s.config.recordFilter,
			metricFilter: s.config.metricFilter,
		}
	}
	effective := *conf
	if effective.recordFilter == nil {
		effective.recordFilter = s.config.recordFilter
	}
	if effective.metricFilter == nil {
		effective.metricFilter = s.config.metricFilter
	}
	return &effective
}

// getSystemMetrics is the self-source: the system's own operational
// counters plus each sink adapter's internal stats.
func (s *MetricsSystem) getSystemMetrics(c *metrics.Collector, all bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	rb := c.AddRecordNamed(systemSourceName).
		AddGaugeInt(numActiveSourcesInfo, int32(len(s.sources))).
		AddGaugeInt(numAllSourcesInfo, int32(len(s.allSources))).
		AddGaugeInt(numActiveSinksInfo, int32(len(s.sinks))).
		AddGaugeInt(numAllSinksInfo, int32(len(s.allSinks)))
	for _, name := range s.sinkOrder {
		s.sinks[name].snapshotStats(rb, all)
	}
	s.registry.Snapshot(rb, all)
}

func (s *MetricsSystem) stopSourcesLocked() {
	s.stateMu.Lock()
	sources := s.sources
	sys := s.sysSource
	s.sources = make(map[string]*sourceAdapter)
	s.sourceOrder = nil
	s.sysSource = nil
	s.stateMu.Unlock()
	for name, sa := range sources {
		logger.GetLogger().Debugf("Stopping metrics source %s", name)
		sa.stop()
	}
	if sys != nil {
		sys.stop()
	}
}

func (s *MetricsSystem) stopSinksLocked() {
	s.stateMu.Lock()
	sinks := s.sinks
	order := s.sinkOrder
	s.sinks = make(map[string]*sinkAdapter)
	s.sinkOrder = nil
	s.stateMu.Unlock()
	for _, name := range order {
		logger.GetLogger().Debugf("Stopping metrics sink %s", name)
		sinks[name].stop()
	}
}

func (s *MetricsSystem) clearConfigsLocked() {
	s.config = nil
	s.sourceFilter = nil
	s.injectedTags = s.injectedTags[:0]
}

// confForPrefix resolves the configuration subtree for this system:
// an explicitly set tree wins, otherwise the global viper under
// "metrics.<prefix>".
func (s *MetricsSystem) confForPrefix() *viper.Viper {
	if s.conf != nil {
		return s.conf
	}
	return viper.Sub("metrics." + strings.ToLower(s.prefix))
}

// Monitoring reports whether the sampling loop is running.
func (s *MetricsSystem) Monitoring() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monitoring
}

// Period returns the base sampling period.
func (s *MetricsSystem) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// SourceNames lists the active sources, self-source included, for the
// introspection surface.
func (s *MetricsSystem) SourceNames() []string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	names := make([]string, 0, len(s.sourceOrder)+1)
	names = append(names, s.sourceOrder...)
	if s.sysSource != nil {
		names = append(names, s.sysSource.name)
	}
	return names
}

// SnapshotSource returns the cached snapshot of one active source,
// re-sampling when older than the cache TTL.
func (s *MetricsSystem) SnapshotSource(name string) ([]metrics.Record, error) {
	s.stateMu.RLock()
	sa := s.sources[name]
	if sa == nil && s.sysSource != nil && s.sysSource.name == name {
		sa = s.sysSource
	}
	s.stateMu.RUnlock()
	if sa == nil {
		return nil, fmt.Errorf("no such source %q", name)
	}
	return sa.snapshot(), nil
}

// GetSource returns the registered source object, or nil.
func (s *MetricsSystem) GetSource(name string) metrics.Source {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.allSources[name]
}

func (s *MetricsSystem) namedCallbacksOrdered() []Callback {
	names := make([]string, 0, len(s.namedCallbacks))
	for name := range s.namedCallbacks {
		names = append(names, name)
	}
	sort.Strings(names)
	cbs := make([]Callback, len(names))
	for i, name := range names {
		cbs[i] = s.namedCallbacks[name]
	}
	return cbs
}

func readInitMode() initMode {
	if strings.EqualFold(os.Getenv(InitModeEnv), "standby") {
		return initModeStandby
	}
	return initModeNormal
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Error getting localhost name. Using 'localhost'...")
		return "localhost"
	}
	return name
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func removeString(s []string, v string) []string {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
