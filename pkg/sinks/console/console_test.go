// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulse-metrics/pulse/pkg/metrics"
)

func TestConsoleSink(t *testing.T) {
	var out bytes.Buffer
	s := New(&out)

	c := metrics.NewCollector()
	c.AddRecordNamed("web").
		SetContext("dev").
		AddCounterLong(metrics.NewInfo("Hits", "hits"), 7)
	require.NoError(t, s.PutMetrics(c.Records()[0]))

	assert.Zero(t, out.Len(), "buffered until flush")
	require.NoError(t, s.Flush())
	assert.Contains(t, out.String(), "dev.web: Hits=7\n")
}
