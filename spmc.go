// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// SPMC is a CAS-based single-producer multi-consumer bounded queue.
//
// The sole producer owns the tail cursor outright, so the enqueue side
// runs without CAS or retry. Consumers contend via CAS on the head
// cursor exactly as in MPMC.
//
// Memory: n slots (16+ bytes per slot)
type SPMC[T any] struct {
	_        pad
	tail     atomix.Uint64 // Producer writes here
	_        pad
	head     atomix.Uint64 // Consumers CAS here
	_        pad
	buffer   []slot[T]
	mask     uint64
	slots    uint64 // Physical slot count; at least 2
	capacity uint64 // Usable capacity reported by Cap
}

// NewSPMC creates a new CAS-based SPMC queue.
// Capacity rounds up to the next power of 2; values below one are
// treated as one.
func NewSPMC[T any](capacity int) *SPMC[T] {
	c := uint64(roundToPow2(capacity))

	// One slot cannot tell full from free by sequence alone; see NewMPMC.
	n := c
	if n < 2 {
		n = 2
	}

	q := &SPMC[T]{
		buffer:   make([]slot[T], n),
		mask:     n - 1,
		slots:    n,
		capacity: c,
	}

	for i := uint64(0); i < n; i++ {
		q.buffer[i].seq.StoreRelaxed(i)
	}

	return q
}

// Enqueue adds an element to the queue (single producer only).
// Returns ErrWouldBlock if the queue is full.
func (q *SPMC[T]) Enqueue(elem *T) error {
	tail := q.tail.LoadRelaxed()
	head := q.head.LoadAcquire()

	if tail >= head+q.capacity {
		return ErrWouldBlock
	}

	slot := &q.buffer[tail&q.mask]
	seq := slot.seq.LoadAcquire()

	if slotDiff(seq, tail) != 0 {
		return ErrWouldBlock
	}

	slot.data = *elem
	slot.seq.StoreRelease(tail + 1)
	q.tail.StoreRelease(tail + 1)

	return nil
}

// Dequeue removes and returns an element (multiple consumers safe).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *SPMC[T]) Dequeue() (T, error) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		tail := q.tail.LoadAcquire()

		if head >= tail {
			var zero T
			return zero, ErrWouldBlock
		}

		slot := &q.buffer[head&q.mask]
		seq := slot.seq.LoadAcquire()
		diff := slotDiff(seq, head+1)

		if diff == 0 {
			if q.head.CompareAndSwapAcqRel(head, head+1) {
				elem := slot.data
				var zero T
				slot.data = zero
				slot.seq.StoreRelease(head + q.slots)
				return elem, nil
			}
		} else if diff < 0 {
			var zero T
			return zero, ErrWouldBlock
		}
		sw.Once()
	}
}

// Cap returns the queue capacity.
func (q *SPMC[T]) Cap() int {
	return int(q.capacity)
}

// Len returns the number of elements in the queue at some recent moment.
//
// The count is a snapshot: concurrent dequeues may have changed it before
// the caller acts on it. Loading head before tail keeps the result
// non-negative; the clamp covers elements enqueued between the two loads.
func (q *SPMC[T]) Len() int {
	head := q.head.LoadAcquire()
	tail := q.tail.LoadAcquire()
	if d := tail - head; d < q.capacity {
		return int(d)
	}
	return int(q.capacity)
}

// Empty reports whether the queue appeared empty at some recent moment.
// A false result does not guarantee the next Dequeue will succeed.
func (q *SPMC[T]) Empty() bool {
	return q.Len() == 0
}

// Full reports whether the queue appeared full at some recent moment.
// A false result does not guarantee the next Enqueue will succeed.
func (q *SPMC[T]) Full() bool {
	return q.Len() == int(q.capacity)
}

// Clear drains the queue, discarding elements.
//
// Clear acts as one more consumer: it dequeues until the queue reports
// empty, so drained slots are zeroed and referenced objects become
// collectable. The producer may refill the queue while Clear runs;
// Clear stops at the first observed empty.
func (q *SPMC[T]) Clear() {
	for {
		if _, err := q.Dequeue(); err != nil {
			return
		}
	}
}
