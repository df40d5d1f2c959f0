// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package redis

import (
	"encoding/json"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulse-metrics/pulse/pkg/metrics"
)

func TestRedisSinkConfigureDefaults(t *testing.T) {
	s := &Sink{}
	require.NoError(t, s.Configure(viper.New()))
	assert.Equal(t, "pulse:records", s.key)
	assert.Equal(t, int64(10000), s.maxLength)
	require.NoError(t, s.Close())
}

func TestRedisSinkDocumentEncoding(t *testing.T) {
	s := &Sink{}
	c := metrics.NewCollector()
	c.AddRecordNamed("mem").
		SetContext("node").
		AddGaugeLong(metrics.NewInfo("Used", "used bytes"), 512)
	require.NoError(t, s.PutMetrics(c.Records()[0]))

	require.Len(t, s.pending, 1)
	var decoded struct {
		Name    string             `json:"name"`
		Tags    map[string]string  `json:"tags"`
		Metrics map[string]float64 `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(s.pending[0].([]byte), &decoded))
	assert.Equal(t, "mem", decoded.Name)
	assert.Equal(t, "node", decoded.Tags["Context"])
	assert.Equal(t, float64(512), decoded.Metrics["Used"])
}
