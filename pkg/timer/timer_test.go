// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go.uber.org/atomic"
)

func TestPeriodicTimer(t *testing.T) {
	assert := assert.New(t)
	var count atomic.Int32
	timer1 := NewPeriodicTimer("Test sampler", func() { count.Inc() }, true)
	timer1.Start(100 * time.Millisecond)
	time.Sleep(550 * time.Millisecond)
	timer1.Stop()
	assert.Equal(int32(5), count.Load(), "simple timer (100ms interval)")
	assert.False(timer1.Running())

	timer1.Start(1000 * time.Millisecond)
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(int32(6), count.Load(), "simple timer (1000ms interval)")

	timer1.Start(200 * time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	timer1.Stop()
	assert.Equal(int32(7), count.Load(), "restart of timer")
}

func TestPeriodicTimerInvalidInterval(t *testing.T) {
	timer1 := NewPeriodicTimer("Test invalid", func() {}, false)
	timer1.Start(0)
	assert.False(t, timer1.Running())
}
