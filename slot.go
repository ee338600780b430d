// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import "code.hybscloud.com/atomix"

// Slot sequence protocol shared by the bounded MPMC queues.
//
// Each slot carries a sequence number encoding which logical position
// currently owns it:
//
//	seq == pos           writable at position pos
//	seq == pos + 1       readable at position pos
//	seq == pos + slots   writable again on the next lap
//
// A producer at position pos may claim the slot only while seq == pos;
// after writing it publishes seq = pos+1. A consumer at position pos may
// claim only while seq == pos+1; after extracting it republishes
// seq = pos+slots, handing the slot to the next lap's producer. The lap
// stride is the physical slot count, which the queues keep at two or
// more: with a single slot the readable mark and the recycled mark would
// be the same number, and a producer could claim a slot that still holds
// an unconsumed element. The enqueue-side cursor guard bounds occupancy
// at the usable capacity; whenever that capacity is below the slot
// count, the guard is the only check that can answer full.
//
// The signed difference between the observed sequence and the expected
// value classifies the slot without a separate full/empty flag:
//
//	 0   claim now
//	<0   structure full (producer view) or empty (consumer view)
//	>0   another goroutine advanced past this position; reload the cursor
//
// Positions and sequences advance together, with their distance bounded by
// the slot count, so the classification survives uint64 wraparound.

// slotDiff returns the signed distance between an observed slot sequence
// and the value the claiming side expects.
func slotDiff(seq, expected uint64) int64 {
	return int64(seq - expected)
}

// slot is one element cell of MPMC. The sequence word and the data it
// guards share a padded cache line so neighboring slots never false-share.
type slot[T any] struct {
	seq  atomix.Uint64
	data T
	_    padShort
}
