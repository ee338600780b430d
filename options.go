// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import "unsafe"

// Options configures bounded structure creation and algorithm selection.
type Options struct {
	// Producer/Consumer constraints (determines algorithm)
	singleProducer bool
	singleConsumer bool

	// Capacity (rounds up to next power of 2)
	capacity int
}

// Builder creates bounded structures with fluent configuration.
//
// The builder selects the algorithm from the declared producer/consumer
// constraints: each side declared single drops the CAS loop on that
// side's cursor, down to the CAS-free SPSC ring buffer when both sides
// are single.
//
// Example:
//
//	// SPSC ring (optimal for single producer/consumer)
//	q := lockfree.BuildSPSC[Event](lockfree.New(1024).SingleProducer().SingleConsumer())
//
//	// MPMC queue (default, general purpose)
//	q := lockfree.BuildMPMC[Request](lockfree.New(4096))
//
//	// Handle-passing queue for index-based pools
//	free := lockfree.New(8192).BuildIndirect()
type Builder struct {
	opts Options
}

// New creates a builder with the given capacity.
//
// Capacity rounds up to the next power of 2; values below one are treated
// as one. For example, capacity=4 results in actual capacity=4,
// capacity=1000 results in actual capacity=1024, capacity=0 in capacity=1.
//
// Example:
//
//	b := lockfree.New(1024)
//	q := lockfree.BuildSPSC[int](b.SingleProducer().SingleConsumer())
//
//	// Or chain directly
//	q := lockfree.BuildMPMC[int](lockfree.New(1024))
func New(capacity int) *Builder {
	return &Builder{opts: Options{capacity: capacity}}
}

// SingleProducer declares that only one goroutine will enqueue.
// Enables optimized algorithms for SPSC or SPMC patterns.
func (b *Builder) SingleProducer() *Builder {
	b.opts.singleProducer = true
	return b
}

// SingleConsumer declares that only one goroutine will dequeue.
// Enables optimized algorithms for SPSC or MPSC patterns.
func (b *Builder) SingleConsumer() *Builder {
	b.opts.singleConsumer = true
	return b
}

// Build creates a Bounded[T] with automatic algorithm selection.
//
// Algorithm selection:
//
//	SingleProducer + SingleConsumer → SPSC (cached-cursor ring buffer)
//	SingleProducer only             → SPMC (plain tail, consumers CAS)
//	SingleConsumer only             → MPSC (producers CAS, plain head)
//	Neither                         → MPMC (both cursors CAS)
//
// The constraints are contracts, not detected at runtime: declaring a
// side single and then calling it from two goroutines corrupts the
// queue.
//
// For type-safe returns with concrete types, use:
//   - BuildSPSC[T](b) → *SPSC[T]
//   - BuildMPSC[T](b) → *MPSC[T]
//   - BuildSPMC[T](b) → *SPMC[T]
//   - BuildMPMC[T](b) → *MPMC[T]
func Build[T any](b *Builder) Bounded[T] {
	switch {
	case b.opts.singleProducer && b.opts.singleConsumer:
		return NewSPSC[T](b.opts.capacity)
	case b.opts.singleProducer:
		return NewSPMC[T](b.opts.capacity)
	case b.opts.singleConsumer:
		return NewMPSC[T](b.opts.capacity)
	default:
		return NewMPMC[T](b.opts.capacity)
	}
}

// BuildSPSC creates an SPSC ring buffer with compile-time type safety.
// Panics if builder is not configured with SingleProducer().SingleConsumer().
func BuildSPSC[T any](b *Builder) *SPSC[T] {
	if !b.opts.singleProducer || !b.opts.singleConsumer {
		panic("lockfree: BuildSPSC requires SingleProducer().SingleConsumer()")
	}
	return NewSPSC[T](b.opts.capacity)
}

// BuildMPSC creates an MPSC queue with compile-time type safety.
// Panics if builder is not configured with SingleConsumer() only.
func BuildMPSC[T any](b *Builder) *MPSC[T] {
	if b.opts.singleProducer || !b.opts.singleConsumer {
		panic("lockfree: BuildMPSC requires SingleConsumer() without SingleProducer()")
	}
	return NewMPSC[T](b.opts.capacity)
}

// BuildSPMC creates an SPMC queue with compile-time type safety.
// Panics if builder is not configured with SingleProducer() only.
func BuildSPMC[T any](b *Builder) *SPMC[T] {
	if !b.opts.singleProducer || b.opts.singleConsumer {
		panic("lockfree: BuildSPMC requires SingleProducer() without SingleConsumer()")
	}
	return NewSPMC[T](b.opts.capacity)
}

// BuildMPMC creates an MPMC queue with compile-time type safety.
// Panics if builder declares both sides single (use BuildSPSC instead).
func BuildMPMC[T any](b *Builder) *MPMC[T] {
	if b.opts.singleProducer && b.opts.singleConsumer {
		panic("lockfree: BuildMPMC conflicts with SingleProducer().SingleConsumer()")
	}
	return NewMPMC[T](b.opts.capacity)
}

// BuildIndirect creates a bounded queue for uintptr values (indices or
// handles). The packed-slot MPMC algorithm serves every constraint
// combination.
func (b *Builder) BuildIndirect() *MPMCIndirect {
	return NewMPMCIndirect(b.opts.capacity)
}

// roundToPow2 rounds n up to the next power of 2.
// Values below 2 round to 1.
func roundToPow2(n int) int {
	if n < 2 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// ptrSize is the size of a pointer in bytes.
const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padShort is padding to fill cache line after 8-byte field.
type padShort [64 - 8]byte

// padPtr is padding to fill cache line after pointer-sized field.
type padPtr [64 - ptrSize]byte
