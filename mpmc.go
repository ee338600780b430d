// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPMC is a CAS-based multi-producer multi-consumer bounded queue.
//
// Uses per-slot sequence numbers which provide:
//   - Full ABA safety via sequence-based validation
//   - Works with both distinct and non-distinct values
//   - Good performance under moderate contention
//
// Memory: n slots (16+ bytes per slot)
type MPMC[T any] struct {
	_        pad
	tail     atomix.Uint64 // Producer index
	_        pad
	head     atomix.Uint64 // Consumer index
	_        pad
	buffer   []slot[T]
	mask     uint64
	slots    uint64 // Physical slot count; at least 2
	capacity uint64 // Usable capacity reported by Cap
}

// NewMPMC creates a new CAS-based MPMC queue.
// Capacity rounds up to the next power of 2; values below one are
// treated as one.
func NewMPMC[T any](capacity int) *MPMC[T] {
	c := uint64(roundToPow2(capacity))

	// One slot cannot tell full from free by sequence alone: the readable
	// mark pos+1 and the recycled mark pos+slots coincide. A capacity-1
	// queue runs on two slots, with occupancy capped by the cursor guard
	// in Enqueue.
	n := c
	if n < 2 {
		n = 2
	}

	q := &MPMC[T]{
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

// Enqueue adds an element to the queue.
// Returns ErrWouldBlock if the queue is full.
func (q *MPMC[T]) Enqueue(elem *T) error {
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

// Dequeue removes and returns an element from the queue.
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *MPMC[T]) Dequeue() (T, error) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
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
func (q *MPMC[T]) Cap() int {
	return int(q.capacity)
}

// Len returns the number of elements in the queue at some recent moment.
//
// The count is a snapshot: concurrent enqueues and dequeues may have
// changed it before the caller acts on it. Loading head before tail keeps
// the result non-negative; the clamp covers elements enqueued between the
// two loads.
func (q *MPMC[T]) Len() int {
	head := q.head.LoadAcquire()
	tail := q.tail.LoadAcquire()
	if d := tail - head; d < q.capacity {
		return int(d)
	}
	return int(q.capacity)
}

// Empty reports whether the queue appeared empty at some recent moment.
// A false result does not guarantee the next Dequeue will succeed.
func (q *MPMC[T]) Empty() bool {
	return q.Len() == 0
}

// Full reports whether the queue appeared full at some recent moment.
// A false result does not guarantee the next Enqueue will succeed.
func (q *MPMC[T]) Full() bool {
	return q.Len() == int(q.capacity)
}

// Clear drains the queue, discarding elements.
//
// Clear acts as one more consumer: it dequeues until the queue reports
// empty, so drained slots are zeroed and referenced objects become
// collectable. Concurrent producers may refill the queue while Clear
// runs; Clear stops at the first observed empty.
func (q *MPMC[T]) Clear() {
	for {
		if _, err := q.Dequeue(); err != nil {
			return
		}
	}
}
