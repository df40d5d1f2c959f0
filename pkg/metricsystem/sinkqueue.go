// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metricsystem

import (
	"sync"
	"time"

	"github.com/eapache/queue"
)

// sinkQueue is the bounded FIFO between the publisher and one sink
// consumer. The publisher is single (the orchestrator monitor); the
// consumer is the sink adapter's worker goroutine.
//
// When the queue is full the oldest buffer is discarded so the sink
// always sees the freshest data (drop-head).
type sinkQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	buf      *queue.Queue
	capacity int
	stopped  bool
}

func newSinkQueue(capacity int) *sinkQueue {
	if capacity < 1 {
		capacity = 1
	}
	q := &sinkQueue{buf: queue.New(), capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// enqueue offers a buffer without blocking. On overflow the head is
// discarded and false is returned to signal the drop; the new buffer
// is always retained.
func (q *sinkQueue) enqueue(b Buffer) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return false
	}
	accepted := true
	for q.buf.Length() >= q.capacity {
		q.buf.Remove()
		accepted = false
	}
	q.buf.Add(b)
	q.notEmpty.Signal()
	return accepted
}

// enqueueWait offers a buffer, waiting up to timeout for free space.
// Returns false when the wait expires or the queue is stopped; nothing
// is dropped on failure.
func (q *sinkQueue) enqueueWait(b Buffer, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.buf.Length() >= q.capacity && !q.stopped {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		q.waitWithTimeout(q.notFull, remaining)
	}
	if q.stopped {
		return false
	}
	q.buf.Add(b)
	q.notEmpty.Signal()
	return true
}

// dequeue blocks until a buffer is available or the queue is stopped.
// Once stopped, any backlog is abandoned: only the delivery already in
// flight gets finished by the worker.
func (q *sinkQueue) dequeue() (Buffer, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.buf.Length() == 0 && !q.stopped {
		q.notEmpty.Wait()
	}
	if q.stopped || q.buf.Length() == 0 {
		return nil, false
	}
	b := q.buf.Remove().(Buffer)
	q.notFull.Signal()
	return b, true
}

func (q *sinkQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Length()
}

// stop wakes all waiters; pending buffers are abandoned.
func (q *sinkQueue) stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// waitWithTimeout waits on c at most d. The caller holds q.mu and must
// re-check its predicate: wakeups may be spurious.
func (q *sinkQueue) waitWithTimeout(c *sync.Cond, d time.Duration) {
	t := time.AfterFunc(d, func() {
		q.mu.Lock()
		c.Broadcast()
		q.mu.Unlock()
	})
	defer t.Stop()
	c.Wait()
}
