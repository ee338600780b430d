// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import (
	"code.hybscloud.com/atomix"
)

// SPSC is a single-producer single-consumer bounded queue.
//
// Based on Lamport's ring buffer with cached index optimization.
// The producer caches the consumer's dequeue index, and vice versa,
// reducing cross-core cache line traffic.
//
// Exactly one goroutine may call the producer methods (Enqueue) and
// exactly one goroutine may call the consumer methods (Dequeue, Peek,
// Clear) at a time. The two roles may be held by different goroutines.
//
// Memory: O(capacity) with minimal per-slot overhead
type SPSC[T any] struct {
	_          pad
	head       atomix.Uint64 // Consumer reads from here
	_          pad
	cachedTail uint64 // Consumer's cached view of tail
	_          pad
	tail       atomix.Uint64 // Producer writes here
	_          pad
	cachedHead uint64 // Producer's cached view of head
	_          pad
	buffer     []T
	mask       uint64
}

// NewSPSC creates a new SPSC queue.
// Capacity rounds up to the next power of 2; values below one are
// treated as one.
func NewSPSC[T any](capacity int) *SPSC[T] {
	n := uint64(roundToPow2(capacity))
	return &SPSC[T]{
		buffer: make([]T, n),
		mask:   n - 1,
	}
}

// Enqueue adds an element to the queue (producer only).
// Returns ErrWouldBlock if the queue is full.
func (q *SPSC[T]) Enqueue(elem *T) error {
	tail := q.tail.LoadRelaxed()
	if tail-q.cachedHead > q.mask {
		q.cachedHead = q.head.LoadAcquire()
		if tail-q.cachedHead > q.mask {
			return ErrWouldBlock
		}
	}

	q.buffer[tail&q.mask] = *elem
	q.tail.StoreRelease(tail + 1)
	return nil
}

// Dequeue removes and returns an element (consumer only).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *SPSC[T]) Dequeue() (T, error) {
	head := q.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head >= q.cachedTail {
			var zero T
			return zero, ErrWouldBlock
		}
	}

	elem := q.buffer[head&q.mask]
	var zero T
	q.buffer[head&q.mask] = zero
	q.head.StoreRelease(head + 1)
	return elem, nil
}

// Peek returns the front element without removing it (consumer only).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
//
// The returned value is a copy; the slot itself stays live until the
// matching Dequeue.
func (q *SPSC[T]) Peek() (T, error) {
	head := q.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head >= q.cachedTail {
			var zero T
			return zero, ErrWouldBlock
		}
	}

	return q.buffer[head&q.mask], nil
}

// Cap returns the queue capacity.
func (q *SPSC[T]) Cap() int {
	return int(q.mask + 1)
}

// Len returns the number of elements in the queue at some recent moment.
//
// Called from the consumer the result is a lower bound (the producer may
// have enqueued more); called from the producer it is an upper bound.
func (q *SPSC[T]) Len() int {
	head := q.head.LoadAcquire()
	tail := q.tail.LoadAcquire()
	if d := tail - head; d <= q.mask {
		return int(d)
	}
	return int(q.mask + 1)
}

// Available returns the number of free slots at some recent moment.
func (q *SPSC[T]) Available() int {
	return q.Cap() - q.Len()
}

// Empty reports whether the queue appeared empty at some recent moment.
func (q *SPSC[T]) Empty() bool {
	return q.Len() == 0
}

// Full reports whether the queue appeared full at some recent moment.
func (q *SPSC[T]) Full() bool {
	return q.Len() == q.Cap()
}

// Clear drains the queue, discarding elements (consumer only).
//
// Drained slots are zeroed so referenced objects become collectable.
// The producer may refill the queue while Clear runs; Clear stops at
// the first observed empty.
func (q *SPSC[T]) Clear() {
	for {
		if _, err := q.Dequeue(); err != nil {
			return
		}
	}
}
