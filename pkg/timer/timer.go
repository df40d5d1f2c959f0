// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

// Package timer provides the periodic worker driving the sampling
// loop: a restartable ticker with a dedicated goroutine.
package timer

import (
	"sync"
	"time"

	"github.com/pulse-metrics/pulse/pkg/logger"
)

type PeriodicTimer struct {
	mu       sync.Mutex
	running  bool
	stop     chan bool
	wg       sync.WaitGroup
	name     string
	dowork   func()
	verbose  bool
	interval time.Duration
}

// NewPeriodicTimer creates a stopped timer invoking timerWorker every
// interval once started. The worker runs on a dedicated goroutine; a
// slow worker delays subsequent ticks instead of overlapping them.
func NewPeriodicTimer(name string, timerWorker func(), verbose bool) *PeriodicTimer {
	return &PeriodicTimer{
		running: false,
		name:    name,
		dowork:  timerWorker,
		verbose: verbose,
	}
}

// Start begins ticking at the given interval. Starting a running timer
// with a new interval restarts it; with the same interval it is a
// no-op.
func (t *PeriodicTimer) Start(newInterval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if newInterval <= 0 {
		logger.GetLogger().Warn(t.name + ": invalid interval specified (<= 0)")
		return
	}

	if t.running {
		if newInterval == t.interval {
			if t.verbose {
				logger.GetLogger().Warn(t.name + " start: already running")
			}
			return
		}
		t.stop <- true
		t.wg.Wait()
	}

	t.interval = newInterval
	t.running = true
	t.wg.Add(1)
	t.stop = make(chan bool)
	go t.worker(t.interval)
}

func (t *PeriodicTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		if t.verbose {
			logger.GetLogger().Warn(t.name + " stop: not started")
		}
		return
	}

	t.stop <- true
	t.wg.Wait()
	t.running = false

	if t.verbose {
		logger.GetLogger().Info(t.name + " stopped")
	}
}

func (t *PeriodicTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *PeriodicTimer) worker(interval time.Duration) {
	defer t.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if t.verbose {
		logger.GetLogger().Info(t.name + " started")
	}

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.dowork()
		}
	}
}
