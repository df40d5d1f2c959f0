// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

// Package console provides a sink writing records as text lines to
// standard output, mainly for development and demos. Lines are
// highlighted when stdout is a terminal.
package console

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"

	"github.com/pulse-metrics/pulse/pkg/metrics"
	"github.com/pulse-metrics/pulse/pkg/metricsystem"
	"github.com/pulse-metrics/pulse/pkg/sinks"
)

// ClassName selects this sink in configuration.
const ClassName = "console"

func init() {
	metricsystem.RegisterSinkType(ClassName, func() metrics.Sink { return New(os.Stdout) })
}

type Sink struct {
	mu        sync.Mutex
	w         *bufio.Writer
	highlight *color.Color
}

func New(w io.Writer) *Sink {
	s := &Sink{w: bufio.NewWriter(w)}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		s.highlight = color.New(color.FgCyan)
	}
	return s
}

func (s *Sink) Configure(conf *viper.Viper) error {
	if conf != nil && conf.GetBool("plain") {
		s.mu.Lock()
		s.highlight = nil
		s.mu.Unlock()
	}
	return nil
}

func (s *Sink) PutMetrics(r metrics.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var line bytes.Buffer
	if err := sinks.WriteRecord(&line, r); err != nil {
		return err
	}
	if s.highlight != nil {
		_, err := s.highlight.Fprint(s.w, line.String())
		return err
	}
	_, err := s.w.Write(line.Bytes())
	return err
}

func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}
