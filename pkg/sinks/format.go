// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

// Package sinks holds helpers shared by the bundled sink plugins.
// Each plugin lives in its own subpackage and registers its class name
// with the metric system from init, so applications pick plugins by
// importing them.
package sinks

import (
	"fmt"
	"io"
	"strings"

	"github.com/pulse-metrics/pulse/pkg/metrics"
)

// WriteRecord renders one record as a line:
//
//	<timestamp> <context>.<record>: tag=value[, ...]: metric=value[, ...]
//
// the line-oriented format of the console and file sinks.
func WriteRecord(w io.Writer, r metrics.Record) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d ", r.Timestamp())
	if ctx, ok := r.Context(); ok {
		sb.WriteString(ctx)
		sb.WriteString(".")
	}
	sb.WriteString(r.Name())
	sep := ": "
	for _, tag := range r.Tags() {
		if tag.Info() == metrics.ContextInfo {
			continue
		}
		sb.WriteString(sep)
		sb.WriteString(tag.Name())
		sb.WriteString("=")
		sb.WriteString(tag.Value())
		sep = ", "
	}
	sep = ": "
	for _, m := range r.Metrics() {
		sb.WriteString(sep)
		sb.WriteString(m.String())
		sep = ", "
	}
	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
