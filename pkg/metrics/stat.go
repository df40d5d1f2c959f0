// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

import (
	"math"
	"sync"
)

// SampleStat aggregates samples into count, sum, min, max and
// sum-of-squares, enough to derive mean and standard deviation.
type SampleStat struct {
	count int64
	sum   float64
	sumSq float64
	min   float64
	max   float64
}

func (s *SampleStat) Add(value float64) {
	if s.count == 0 {
		s.min, s.max = value, value
	} else {
		s.min = math.Min(s.min, value)
		s.max = math.Max(s.max, value)
	}
	s.count++
	s.sum += value
	s.sumSq += value * value
}

func (s *SampleStat) Count() int64 { return s.count }

func (s *SampleStat) Sum() float64 { return s.sum }

func (s *SampleStat) Min() float64 { return s.min }

func (s *SampleStat) Max() float64 { return s.max }

func (s *SampleStat) Mean() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

// Stddev returns the sample standard deviation.
func (s *SampleStat) Stddev() float64 {
	if s.count < 2 {
		return 0
	}
	n := float64(s.count)
	variance := (s.sumSq - s.sum*s.sum/n) / (n - 1)
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

func (s *SampleStat) Reset() { *s = SampleStat{} }

// MutableStat accumulates samples and on snapshot emits sub-metrics
// derived from the aggregate:
//
//	<name>Num  total number of samples (counter)
//	<name>Avg  mean over the window (gauge)
//	<name>Min  minimum over the window (gauge)
//	<name>Max  maximum over the window (gauge)
//
// Extended stats additionally emit <name>Stdev. A rolling stat resets
// its window after every snapshot; otherwise the aggregate is
// cumulative over the metric's lifetime.
type MutableStat struct {
	mu       sync.Mutex
	name     string
	numInfo  *Info
	avgInfo  *Info
	minInfo  *Info
	maxInfo  *Info
	stdInfo  *Info
	extended bool
	rolling  bool
	stat     SampleStat
	total    int64
	changed  bool
}

// NewMutableStat creates a stat metric. sampleName and valueName are
// used in the generated descriptions ("Number of <sampleName> for
// <description>", "Average <valueName> for <description>").
func NewMutableStat(name, description, sampleName, valueName string, extended, rolling bool) *MutableStat {
	if sampleName == "" {
		sampleName = "Ops"
	}
	if valueName == "" {
		valueName = "Time"
	}
	return &MutableStat{
		name:     name,
		numInfo:  NewInfo(name+"Num", "Number of "+sampleName+" for "+description),
		avgInfo:  NewInfo(name+"Avg", "Average "+valueName+" for "+description),
		minInfo:  NewInfo(name+"Min", "Min "+valueName+" for "+description),
		maxInfo:  NewInfo(name+"Max", "Max "+valueName+" for "+description),
		stdInfo:  NewInfo(name+"Stdev", "Standard deviation of "+valueName+" for "+description),
		extended: extended,
		rolling:  rolling,
	}
}

// Observe adds one sample.
func (s *MutableStat) Observe(value float64) {
	s.mu.Lock()
	s.stat.Add(value)
	s.total++
	s.changed = true
	s.mu.Unlock()
}

func (s *MutableStat) Changed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// LastCount returns the total number of samples observed.
func (s *MutableStat) LastCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Mean returns the mean of the current window.
func (s *MutableStat) Mean() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stat.Mean()
}

func (s *MutableStat) Snapshot(rb *RecordBuilder, all bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.changed && !all {
		return
	}
	rb.AddCounterLong(s.numInfo, s.total).
		AddGaugeDouble(s.avgInfo, s.stat.Mean()).
		AddGaugeDouble(s.minInfo, s.stat.Min()).
		AddGaugeDouble(s.maxInfo, s.stat.Max())
	if s.extended {
		rb.AddGaugeDouble(s.stdInfo, s.stat.Stddev())
	}
	if s.rolling {
		s.stat.Reset()
	}
	s.changed = false
}
