// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import (
	"sync"
	"sync/atomic"
)

// node is the link record shared by Stack and Queue. Links are GC-traced
// std atomics; a node is owned by the structure while linked, by the
// unlinking winner afterwards, and by the reclaimer once retired.
type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

const (
	// epochBags is the number of retire bags. Three suffice: while any
	// pin is active the epoch can move at most one step, so the bag a
	// retirer targets is never the bag an advance is freeing.
	epochBags = 3

	// advanceInterval is how many retires pass between epoch advance
	// attempts.
	advanceInterval = 64
)

// reclaimer is an epoch-based collector for the unbounded structures.
//
// Each Stack or Queue embeds one. Goroutines pin before dereferencing
// any node and unpin when done; unlinked nodes are handed to retire
// while the unlinker is still pinned. A node retired at epoch e is
// recycled only after the epoch reaches e+2, by which point every pin
// that could have observed it has ended.
//
// Operations never block on each other. Pin, unpin and retire are
// CAS-and-store sequences; the pools synchronize internally. Everything
// here is sequentially consistent std sync/atomic: the unbounded
// structures run under the race detector, and the collector must not be
// the part that trips it.
type reclaimer[T any] struct {
	_       pad
	epoch   atomic.Uint64 // Global epoch, starts at 1
	_       pad
	retired atomic.Uint64 // Retire count, paces advance attempts
	_       pad
	parts   atomic.Pointer[participant]
	bags    [epochBags]atomic.Pointer[node[T]]
	free    sync.Pool // Recycled nodes
	records sync.Pool // Participant records between pins
}

// A participant is one goroutine's pin record. Records are pushed onto
// the registry once and stay reachable for the structure's lifetime;
// the records pool recycles the right to use one across goroutines.
type participant struct {
	epoch atomic.Uint64 // 0 = unpinned, otherwise the pinned epoch
	_     padShort
	next  *participant
}

// init must run before first use. Epoch 0 is the unpinned sentinel on
// participant records, so the global epoch starts at 1.
func (r *reclaimer[T]) init() {
	r.epoch.Store(1)
}

// pin reserves the current epoch for the calling goroutine. Until the
// matching unpin, no node the caller can reach through the structure
// will be recycled.
func (r *reclaimer[T]) pin() *participant {
	p, _ := r.records.Get().(*participant)
	if p == nil {
		p = &participant{}
		for {
			head := r.parts.Load()
			p.next = head
			if r.parts.CompareAndSwap(head, p) {
				break
			}
		}
	}

	// Publish the reservation, then confirm the epoch did not move past
	// it. Store is a full barrier, so once the re-read returns the value
	// already reserved, every advance that ignored this record finished
	// before any node access that follows. Runs once in the common case.
	cur := uint64(0)
	for {
		e := r.epoch.Load()
		if e == cur {
			return p
		}
		p.epoch.Store(e)
		cur = e
	}
}

// unpin drops the reservation. The caller must not touch any node
// obtained under this pin afterwards.
func (r *reclaimer[T]) unpin(p *participant) {
	p.epoch.Store(0)
	r.records.Put(p)
}

// get returns a recycled node or allocates a fresh one.
func (r *reclaimer[T]) get() *node[T] {
	if n, ok := r.free.Get().(*node[T]); ok {
		return n
	}
	return &node[T]{}
}

// retire hands an unlinked node to the collector.
//
// The caller must still hold the pin under which it unlinked the node.
// The active reservation is what keeps the target bag from being freed
// while the push is in flight.
func (r *reclaimer[T]) retire(n *node[T]) {
	bag := &r.bags[r.epoch.Load()%epochBags]
	for {
		head := bag.Load()
		n.next.Store(head)
		if bag.CompareAndSwap(head, n) {
			break
		}
	}

	if r.retired.Add(1)%advanceInterval == 0 {
		r.tryAdvance()
	}
}

// tryAdvance attempts one epoch step. The step is allowed only when
// every pinned participant has caught up to the current epoch; the
// winner then owns the bag two epochs behind and recycles its nodes.
func (r *reclaimer[T]) tryAdvance() {
	e := r.epoch.Load()
	for p := r.parts.Load(); p != nil; p = p.next {
		pe := p.epoch.Load()
		if pe != 0 && pe != e {
			return
		}
	}
	if !r.epoch.CompareAndSwap(e, e+1) {
		return
	}

	// Nodes retired at epoch e-1. No reservation can still reach them:
	// the scan saw every pin at e, and a pin at e began after the nodes
	// were unlinked.
	old := r.bags[(e+2)%epochBags].Swap(nil)
	for old != nil {
		next := old.next.Load()
		var zero T
		old.value = zero
		old.next.Store(nil)
		r.free.Put(old)
		old = next
	}
}
