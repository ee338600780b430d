// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import (
	"runtime"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// PinnedConsumer is a handle to a consumer goroutine started by Consume.
type PinnedConsumer struct {
	stop atomix.Bool
	done chan struct{}
}

// Consume starts a goroutine that drains q on a dedicated OS thread and
// calls fn for every element, in order.
//
// The goroutine locks its OS thread and, when cpu >= 0, pins the thread
// to that logical CPU (Linux only, best effort). This keeps a
// latency-sensitive consumer from migrating between cores and dragging
// the ring's cache lines along.
//
// The goroutine takes over the consumer role of q: no other goroutine
// may call Dequeue, Peek or Clear until Stop returns.
func Consume[T any](q *SPSC[T], cpu int, fn func(T)) *PinnedConsumer {
	c := &PinnedConsumer{done: make(chan struct{})}

	go func() {
		runtime.LockOSThread()
		if cpu >= 0 {
			setAffinity(cpu)
		}
		defer func() {
			runtime.UnlockOSThread()
			close(c.done)
		}()

		backoff := iox.Backoff{}
		for {
			if elem, err := q.Dequeue(); err == nil {
				fn(elem)
				backoff.Reset()
				continue
			}
			if c.stop.Load() {
				// Final drain catches elements enqueued between the
				// miss above and the stop flag read.
				for {
					elem, err := q.Dequeue()
					if err != nil {
						return
					}
					fn(elem)
				}
			}
			backoff.Wait()
		}
	}()

	return c
}

// Stop asks the consumer to exit and waits until it has. The producer
// must have stopped enqueueing before Stop is called for the final
// drain to observe every element. Stop may be called more than once.
func (c *PinnedConsumer) Stop() {
	c.stop.Store(true)
	<-c.done
}
