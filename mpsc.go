// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPSC is a CAS-based multi-producer single-consumer bounded queue.
//
// Producers contend via CAS on the tail cursor exactly as in MPMC. The
// sole consumer owns the head cursor outright, so the dequeue side runs
// without CAS or retry.
//
// Memory: n slots (16+ bytes per slot)
type MPSC[T any] struct {
	_        pad
	tail     atomix.Uint64 // Producers CAS here
	_        pad
	head     atomix.Uint64 // Consumer reads from here
	_        pad
	buffer   []slot[T]
	mask     uint64
	slots    uint64 // Physical slot count; at least 2
	capacity uint64 // Usable capacity reported by Cap
}

// NewMPSC creates a new CAS-based MPSC queue.
// Capacity rounds up to the next power of 2; values below one are
// treated as one.
func NewMPSC[T any](capacity int) *MPSC[T] {
	c := uint64(roundToPow2(capacity))

	// One slot cannot tell full from free by sequence alone; see NewMPMC.
	n := c
	if n < 2 {
		n = 2
	}

	q := &MPSC[T]{
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

// Enqueue adds an element to the queue (multiple producers safe).
// Returns ErrWouldBlock if the queue is full.
func (q *MPSC[T]) Enqueue(elem *T) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadAcquire()

		if tail >= head+q.capacity {
			return ErrWouldBlock
		}

		slot := &q.buffer[tail&q.mask]
		seq := slot.seq.LoadAcquire()
		diff := slotDiff(seq, tail)

		if diff == 0 {
			if q.tail.CompareAndSwapAcqRel(tail, tail+1) {
				slot.data = *elem
				slot.seq.StoreRelease(tail + 1)
				return nil
			}
		} else if diff < 0 {
			return ErrWouldBlock
		}
		sw.Once()
	}
}

// Dequeue removes and returns an element (single consumer only).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *MPSC[T]) Dequeue() (T, error) {
	head := q.head.LoadRelaxed()
	slot := &q.buffer[head&q.mask]
	seq := slot.seq.LoadAcquire()

	if slotDiff(seq, head+1) != 0 {
		var zero T
		return zero, ErrWouldBlock
	}

	elem := slot.data
	var zero T
	slot.data = zero
	slot.seq.StoreRelease(head + q.slots)
	q.head.StoreRelease(head + 1)

	return elem, nil
}

// Cap returns the queue capacity.
func (q *MPSC[T]) Cap() int {
	return int(q.capacity)
}

// Len returns the number of elements in the queue at some recent moment.
//
// The count is a snapshot: concurrent enqueues may have changed it before
// the caller acts on it. Loading head before tail keeps the result
// non-negative; the clamp covers elements enqueued between the two loads.
func (q *MPSC[T]) Len() int {
	head := q.head.LoadAcquire()
	tail := q.tail.LoadAcquire()
	if d := tail - head; d < q.capacity {
		return int(d)
	}
	return int(q.capacity)
}

// Empty reports whether the queue appeared empty at some recent moment.
// A false result does not guarantee the next Dequeue will succeed.
func (q *MPSC[T]) Empty() bool {
	return q.Len() == 0
}

// Full reports whether the queue appeared full at some recent moment.
// A false result does not guarantee the next Enqueue will succeed.
func (q *MPSC[T]) Full() bool {
	return q.Len() == int(q.capacity)
}

// Clear drains the queue, discarding elements.
//
// Clear dequeues until the queue reports empty, so drained slots are
// zeroed and referenced objects become collectable. Like Dequeue it may
// only be called from the consumer goroutine.
func (q *MPSC[T]) Clear() {
	for {
		if _, err := q.Dequeue(); err != nil {
			return
		}
	}
}
