// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import (
	"sync/atomic"

	"code.hybscloud.com/spin"
)

// Queue is an unbounded lock-free FIFO queue (Michael-Scott).
//
// Push and Pop are safe for any number of goroutines. Push always
// succeeds; Pop returns ErrWouldBlock when the queue is empty.
//
// The queue always holds one dummy node: head points at it, and the
// front element, if any, is the node after it. An operation that finds
// the tail pointer lagging helps it forward before retrying, so no
// goroutine ever waits on another's unfinished insert.
//
// Dequeued nodes are retired through an epoch-based collector and
// reused, so a busy queue settles into a stable working set of nodes.
//
// Memory: one node per element plus the dummy and retired nodes
type Queue[T any] struct {
	_    pad
	head atomic.Pointer[node[T]] // Points at the dummy
	_    padPtr
	tail atomic.Pointer[node[T]] // Last node, or one link behind it
	_    padPtr
	mem  reclaimer[T]
}

// NewQueue creates a new empty queue.
func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.mem.init()
	dummy := &node[T]{}
	q.head.Store(dummy)
	q.tail.Store(dummy)
	return q
}

// Push adds an element to the back of the queue. Push always succeeds;
// it may allocate when the node pool is empty.
func (q *Queue[T]) Push(elem *T) {
	n := q.mem.get()
	n.value = *elem
	n.next.Store(nil)

	p := q.mem.pin()
	sw := spin.Wait{}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if tail != q.tail.Load() {
			sw.Once()
			continue
		}
		if next != nil {
			// Tail lags behind a completed insert, help it forward
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		if tail.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(tail, n)
			q.mem.unpin(p)
			return
		}
		sw.Once()
	}
}

// Pop removes and returns the element at the front of the queue.
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *Queue[T]) Pop() (T, error) {
	p := q.mem.pin()
	sw := spin.Wait{}
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()
		if head != q.head.Load() {
			sw.Once()
			continue
		}
		if head == tail {
			if next == nil {
				q.mem.unpin(p)
				var zero T
				return zero, ErrWouldBlock
			}
			// Tail lags behind a completed insert, help it forward
			q.tail.CompareAndSwap(tail, next)
			continue
		}

		// head != tail, so next is a real node: head never passes tail,
		// and the dummy's successor is already linked.
		if q.head.CompareAndSwap(head, next) {
			elem := next.value
			var zero T
			next.value = zero
			q.mem.retire(head)
			q.mem.unpin(p)
			return elem, nil
		}
		sw.Once()
	}
}
