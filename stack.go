// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import (
	"sync/atomic"

	"code.hybscloud.com/spin"
)

// Stack is an unbounded lock-free LIFO stack (Treiber).
//
// Push and Pop are safe for any number of goroutines. Push always
// succeeds; Pop returns ErrWouldBlock when the stack is empty.
//
// Popped nodes are retired through an epoch-based collector and reused,
// so a busy stack settles into a stable working set of nodes instead of
// allocating on every Push.
//
// Memory: one node per element plus retired nodes awaiting reclamation
type Stack[T any] struct {
	_    pad
	head atomic.Pointer[node[T]]
	_    padPtr
	mem  reclaimer[T]
}

// NewStack creates a new empty stack.
func NewStack[T any]() *Stack[T] {
	s := &Stack[T]{}
	s.mem.init()
	return s
}

// Push adds an element to the top of the stack. Push always succeeds;
// it may allocate when the node pool is empty.
//
// Push never dereferences the observed head, only links to it, so it
// runs without an epoch reservation.
func (s *Stack[T]) Push(elem *T) {
	n := s.mem.get()
	n.value = *elem

	sw := spin.Wait{}
	for {
		head := s.head.Load()
		n.next.Store(head)
		if s.head.CompareAndSwap(head, n) {
			return
		}
		sw.Once()
	}
}

// Pop removes and returns the element at the top of the stack.
// Returns (zero-value, ErrWouldBlock) if the stack is empty.
func (s *Stack[T]) Pop() (T, error) {
	p := s.mem.pin()
	sw := spin.Wait{}
	for {
		head := s.head.Load()
		if head == nil {
			s.mem.unpin(p)
			var zero T
			return zero, ErrWouldBlock
		}
		next := head.next.Load()
		if s.head.CompareAndSwap(head, next) {
			elem := head.value
			var zero T
			head.value = zero
			s.mem.retire(head)
			s.mem.unpin(p)
			return elem, nil
		}
		sw.Once()
	}
}
