// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metricsystem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferNamed(name string) Buffer {
	bb := &bufferBuilder{}
	bb.add(name, nil)
	return bb.build()
}

func TestSinkQueueDropHead(t *testing.T) {
	q := newSinkQueue(2)
	assert.True(t, q.enqueue(bufferNamed("a")))
	assert.True(t, q.enqueue(bufferNamed("b")))
	assert.False(t, q.enqueue(bufferNamed("c")), "overflow reports the drop")
	assert.Equal(t, 2, q.size())

	// The oldest buffer was discarded; freshness is preserved.
	got, ok := q.dequeue()
	require.True(t, ok)
	assert.Equal(t, "b", got[0].Source())
	got, ok = q.dequeue()
	require.True(t, ok)
	assert.Equal(t, "c", got[0].Source())
}

func TestSinkQueueCapacityClamped(t *testing.T) {
	q := newSinkQueue(0)
	assert.True(t, q.enqueue(bufferNamed("a")), "capacity 0 behaves as 1")
	assert.False(t, q.enqueue(bufferNamed("b")))
}

func TestSinkQueueEnqueueWait(t *testing.T) {
	q := newSinkQueue(1)
	require.True(t, q.enqueue(bufferNamed("a")))

	start := time.Now()
	assert.False(t, q.enqueueWait(bufferNamed("b"), 50*time.Millisecond),
		"wait expires on a full queue")
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, 1, q.size(), "nothing dropped on expiry")

	// A consumer freeing space lets the waiter in.
	done := make(chan bool)
	go func() {
		done <- q.enqueueWait(bufferNamed("c"), time.Second)
	}()
	time.Sleep(20 * time.Millisecond)
	_, ok := q.dequeue()
	require.True(t, ok)
	assert.True(t, <-done)
}

func TestSinkQueueStop(t *testing.T) {
	q := newSinkQueue(1)
	q.enqueue(bufferNamed("a"))
	q.stop()

	_, ok := q.dequeue()
	assert.False(t, ok, "stopped queue abandons its backlog")
	assert.False(t, q.enqueue(bufferNamed("b")))
	assert.False(t, q.enqueueWait(bufferNamed("c"), 10*time.Millisecond))
}

func TestSinkQueueDequeueBlocks(t *testing.T) {
	q := newSinkQueue(1)
	got := make(chan Buffer)
	go func() {
		b, ok := q.dequeue()
		require.True(t, ok)
		got <- b
	}()
	time.Sleep(20 * time.Millisecond)
	q.enqueue(bufferNamed("late"))
	select {
	case b := <-got:
		assert.Equal(t, "late", b[0].Source())
	case <-time.After(time.Second):
		t.Fatal("dequeue did not wake up")
	}
}
