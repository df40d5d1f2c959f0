// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

// Package procstats contributes the Go process's runtime statistics
// as a metrics source, the agent's built-in demo source.
package procstats

import (
	"runtime"
	"time"
)

// ProcStats declares its metrics as tagged func gauges sampled at
// snapshot time.
type ProcStats struct {
	start time.Time

	Goroutines func() int64 `metric:"NumGoroutines,desc=Number of goroutines"`
	HeapAlloc  func() int64 `metric:"HeapAllocBytes,desc=Heap bytes allocated and in use"`
	HeapSys    func() int64 `metric:"HeapSysBytes,desc=Heap bytes obtained from the OS"`
	NumGC      func() int64 `metric:"GcCount,desc=Completed GC cycles"`
	PauseTotal func() int64 `metric:"GcPauseTotalMs,desc=Total GC pause milliseconds"`
	UptimeSecs func() int64 `metric:"UptimeSecs,desc=Process uptime in seconds"`
}

func (p *ProcStats) SourceInfo() (string, string, string) {
	return "ProcessStats", "Go process statistics", "process"
}

func New() *ProcStats {
	p := &ProcStats{start: time.Now()}
	p.Goroutines = func() int64 { return int64(runtime.NumGoroutine()) }
	p.HeapAlloc = func() int64 { return int64(readMemStats().HeapAlloc) }
	p.HeapSys = func() int64 { return int64(readMemStats().HeapSys) }
	p.NumGC = func() int64 { return int64(readMemStats().NumGC) }
	p.PauseTotal = func() int64 {
		return int64(time.Duration(readMemStats().PauseTotalNs) / time.Millisecond)
	}
	p.UptimeSecs = func() int64 { return int64(time.Since(p.start).Seconds()) }
	return p
}

func readMemStats() *runtime.MemStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return &ms
}
