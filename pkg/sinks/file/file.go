// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

// Package file provides a sink appending records as text lines to a
// rotated file.
package file

import (
	"fmt"
	"sync"

	"github.com/cilium/lumberjack/v2"
	"github.com/spf13/viper"

	"github.com/pulse-metrics/pulse/pkg/metrics"
	"github.com/pulse-metrics/pulse/pkg/metricsystem"
	"github.com/pulse-metrics/pulse/pkg/sinks"
)

// ClassName selects this sink in configuration.
const ClassName = "file"

func init() {
	metricsystem.RegisterSinkType(ClassName, func() metrics.Sink { return &Sink{} })
}

// Sink writes one line per record. Rotation keeps the output bounded:
//
//	sink.<name>.filename     output path (required)
//	sink.<name>.max-size-mb  rotate after this many megabytes (default 10)
//	sink.<name>.max-backups  rotated files to keep (default 3)
type Sink struct {
	mu  sync.Mutex
	out *lumberjack.Logger
}

func New(filename string) *Sink {
	return &Sink{out: &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    10,
		MaxBackups: 3,
	}}
}

func (s *Sink) Configure(conf *viper.Viper) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	filename := conf.GetString("filename")
	if filename == "" && s.out == nil {
		return fmt.Errorf("file sink requires a filename")
	}
	if filename != "" {
		s.out = &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    10,
			MaxBackups: 3,
		}
	}
	if v := conf.GetInt("max-size-mb"); v > 0 {
		s.out.MaxSize = v
	}
	if v := conf.GetInt("max-backups"); v > 0 {
		s.out.MaxBackups = v
	}
	return nil
}

func (s *Sink) PutMetrics(r metrics.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil {
		return fmt.Errorf("file sink not configured")
	}
	return sinks.WriteRecord(s.out, r)
}

// Flush is a no-op: lumberjack writes through on every record.
func (s *Sink) Flush() error { return nil }

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil {
		return nil
	}
	return s.out.Close()
}
