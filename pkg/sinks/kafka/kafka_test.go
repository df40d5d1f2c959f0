// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package kafka

import (
	"encoding/json"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulse-metrics/pulse/pkg/metrics"
)

func TestKafkaSinkConfigureValidation(t *testing.T) {
	s := &Sink{}
	assert.Error(t, s.Configure(viper.New()), "brokers and topic are required")

	v := viper.New()
	v.Set("brokers", "localhost:9092")
	v.Set("topic", "pulse-metrics")
	require.NoError(t, s.Configure(v))
	require.NoError(t, s.Close())
}

func TestKafkaSinkMessageEncoding(t *testing.T) {
	s := &Sink{}
	c := metrics.NewCollector()
	c.AddRecordNamed("web").
		SetContext("prod").
		AddCounterLong(metrics.NewInfo("Hits", "hits"), 9)
	require.NoError(t, s.PutMetrics(c.Records()[0]))

	require.Len(t, s.pending, 1)
	assert.Equal(t, "web", string(s.pending[0].Key))

	var decoded struct {
		Name    string             `json:"name"`
		Tags    map[string]string  `json:"tags"`
		Metrics map[string]float64 `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(s.pending[0].Value, &decoded))
	assert.Equal(t, "web", decoded.Name)
	assert.Equal(t, "prod", decoded.Tags["Context"])
	assert.Equal(t, float64(9), decoded.Metrics["Hits"])
}
