// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPMCIndirect is a CAS-based MPMC queue for uintptr values.
//
// Uses 128-bit atomic operations to pack sequence and value into a single
// atomic entry, reducing atomics per operation from 2-3 to 1.
//
// Entry format: [lo=sequence | hi=value]
//
// Memory: n slots, 16 bytes per slot
type MPMCIndirect struct {
	_        pad
	tail     atomix.Uint64 // Producer index
	_        pad
	head     atomix.Uint64 // Consumer index
	_        pad
	buffer   []packedSlot
	mask     uint64
	slots    uint64 // Physical slot count; at least 2
	capacity uint64 // Usable capacity reported by Cap
}

type packedSlot struct {
	entry atomix.Uint128 // lo=seq, hi=value
	_     [64 - 16]byte  // Pad to cache line
}

// NewMPMCIndirect creates a new CAS-based MPMC queue for uintptr values.
// Capacity rounds up to the next power of 2; values below one are
// treated as one.
func NewMPMCIndirect(capacity int) *MPMCIndirect {
	c := uint64(roundToPow2(capacity))

	// One slot cannot tell full from free by sequence alone; see NewMPMC.
	n := c
	if n < 2 {
		n = 2
	}

	q := &MPMCIndirect{
		buffer:   make([]packedSlot, n),
		mask:     n - 1,
		slots:    n,
		capacity: c,
	}

	// Initialize: seq[i] = i (ready for write at round 0), val = 0
	for i := uint64(0); i < n; i++ {
		q.buffer[i].entry.StoreRelaxed(i, 0)
	}

	return q
}

// Enqueue adds an element to the queue.
// Returns ErrWouldBlock if the queue is full.
func (q *MPMCIndirect) Enqueue(elem uintptr) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadAcquire()

		if tail >= head+q.capacity {
			return ErrWouldBlock
		}

		slot := &q.buffer[tail&q.mask]
		seqLo, valHi := slot.entry.LoadAcquire()
		diff := slotDiff(seqLo, tail)

		if diff == 0 {
			// Slot ready for writing (seq == tail)
			// Single: atomically update seq AND store value
			if slot.entry.CompareAndSwapAcqRel(seqLo, valHi, tail+1, uint64(elem)) {
				// Help advance tail for other producers
				q.tail.CompareAndSwapRelaxed(tail, tail+1)
				return nil
			}
		} else if diff < 0 {
			// Queue is full (slot from old round not yet consumed)
			return ErrWouldBlock
		}
		// diff > 0: another producer succeeded, retry with fresh tail
		sw.Once()
	}
}

// Dequeue removes and returns an element from the queue.
// Returns (0, ErrWouldBlock) if the queue is empty.
func (q *MPMCIndirect) Dequeue() (uintptr, error) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		slot := &q.buffer[head&q.mask]
		seqLo, valHi := slot.entry.LoadAcquire()
		diff := slotDiff(seqLo, head+1)

		if diff == 0 {
			if slot.entry.CompareAndSwapAcqRel(seqLo, valHi, head+q.slots, 0) {
				q.head.CompareAndSwapRelaxed(head, head+1)
				return uintptr(valHi), nil
			}
		} else if diff < 0 {
			return 0, ErrWouldBlock
		}
		sw.Once()
	}
}

// Cap returns the queue capacity.
func (q *MPMCIndirect) Cap() int {
	return int(q.capacity)
}

// Len returns the number of elements in the queue at some recent moment.
// See MPMC.Len for the snapshot caveats.
//
// Cursors here are advanced by helping, so head can transiently pass
// tail; negative differences clamp to zero.
func (q *MPMCIndirect) Len() int {
	head := q.head.LoadAcquire()
	tail := q.tail.LoadAcquire()
	d := int64(tail - head)
	if d < 0 {
		return 0
	}
	if d > int64(q.capacity) {
		return int(q.capacity)
	}
	return int(d)
}

// Empty reports whether the queue appeared empty at some recent moment.
func (q *MPMCIndirect) Empty() bool {
	return q.Len() == 0
}

// Full reports whether the queue appeared full at some recent moment.
func (q *MPMCIndirect) Full() bool {
	return q.Len() == int(q.capacity)
}

// Clear drains the queue, discarding values.
// Concurrent producers may refill the queue while Clear runs; Clear
// stops at the first observed empty.
func (q *MPMCIndirect) Clear() {
	for {
		if _, err := q.Dequeue(); err != nil {
			return
		}
	}
}
