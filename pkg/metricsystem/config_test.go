// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metricsystem

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	c, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPeriod, c.period)
	assert.Nil(t, c.sourceFilter)
	assert.Empty(t, c.sinks)
}

func TestLoadConfigPeriodGcd(t *testing.T) {
	v := viper.New()
	v.Set("period", 7)
	v.Set("sink.file.period", 10)
	v.Set("sink.kafka.period", 15)
	c, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.period,
		"base period is the gcd of the sink periods")

	require.Contains(t, c.sinks, "file")
	assert.Equal(t, 10*time.Second, c.sinks["file"].period)
}

func TestLoadConfigPeriodFallback(t *testing.T) {
	v := viper.New()
	v.Set("period", 7)
	c, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, c.period)

	v2 := viper.New()
	v2.Set("period", "250ms")
	c2, err := loadConfig(v2)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, c2.period)
}

func TestLoadSinkConfig(t *testing.T) {
	v := viper.New()
	v.Set("sink.gr.class", "graphite")
	v.Set("sink.gr.context", "prod")
	v.Set("sink.gr.queue.capacity", 8)
	v.Set("sink.gr.retry.delay", 50)
	v.Set("sink.gr.retry.backoff", 1.5)
	v.Set("sink.gr.retry.count", 4)
	v.Set("sink.gr.source.filter.include", "good*")
	c, err := loadConfig(v)
	require.NoError(t, err)

	sc := c.sinks["gr"]
	require.NotNil(t, sc)
	assert.Equal(t, "graphite", sc.class)
	assert.Equal(t, "prod", sc.context)
	assert.Equal(t, 8, sc.queueCapacity)
	assert.Equal(t, 50*time.Millisecond, sc.retryDelay)
	assert.Equal(t, 1.5, sc.retryBackoff)
	assert.Equal(t, 4, sc.retryCount)
	require.NotNil(t, sc.sourceFilter)
	assert.True(t, sc.sourceFilter.Accepts("good1"))
	assert.False(t, sc.sourceFilter.Accepts("bad1"))
}

func TestLoadSinkConfigBadBackoff(t *testing.T) {
	v := viper.New()
	v.Set("sink.s.retry.backoff", 0.5)
	_, err := loadConfig(v)
	assert.Error(t, err)
}

func TestLoadConfigSourceSubtree(t *testing.T) {
	v := viper.New()
	v.Set("source.filter.include", "good*")
	v.Set("source.web.record.filter.exclude", "noisy*")
	c, err := loadConfig(v)
	require.NoError(t, err)

	require.NotNil(t, c.sourceFilter)
	assert.True(t, c.sourceFilter.Accepts("good1"))
	require.Contains(t, c.sources, "web")
	require.NotNil(t, c.sources["web"].recordFilter)
	assert.False(t, c.sources["web"].recordFilter.Accepts("noisy1"))
	assert.NotContains(t, c.sources, "filter",
		"the system-wide filter subtree is not a source")
}

func TestGcd(t *testing.T) {
	assert.Equal(t, 5, gcd(10, 15))
	assert.Equal(t, 10, gcd(10, 0))
	assert.Equal(t, 1, gcd(0, 0))
	assert.Equal(t, 7, gcd(7, 7))
}
