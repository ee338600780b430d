// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lockfree provides lock-free concurrent data structures.
//
// The package offers bounded and unbounded structures for different
// producer/consumer patterns:
//
//   - MPMC: bounded Multi-Producer Multi-Consumer FIFO queue
//   - MPMCIndirect: bounded MPMC queue for uintptr handles and indices
//   - MPSC: bounded Multi-Producer Single-Consumer FIFO queue
//   - SPMC: bounded Single-Producer Multi-Consumer FIFO queue
//   - SPSC: bounded Single-Producer Single-Consumer ring buffer
//   - Stack: unbounded LIFO stack (Treiber)
//   - Queue: unbounded FIFO queue (Michael-Scott)
//
// # Quick Start
//
// Direct constructors (recommended for most cases):
//
//	q := lockfree.NewSPSC[Event](1024)
//	q := lockfree.NewMPMC[*Request](4096)
//	s := lockfree.NewStack[Conn]()
//	u := lockfree.NewQueue[Job]()
//
// Builder API auto-selects the bounded algorithm based on constraints:
//
//	q := lockfree.Build[Event](lockfree.New(1024).SingleProducer().SingleConsumer())  // → SPSC
//	q := lockfree.Build[Event](lockfree.New(1024).SingleConsumer())                   // → MPSC
//	q := lockfree.Build[Event](lockfree.New(1024).SingleProducer())                   // → SPMC
//	q := lockfree.Build[Event](lockfree.New(1024))                                    // → MPMC
//
// # Basic Usage
//
// The bounded structures share the same interface for enqueueing and
// dequeueing:
//
//	// Create a queue
//	q := lockfree.NewMPMC[int](1024)
//
//	// Enqueue (non-blocking)
//	value := 42
//	err := q.Enqueue(&value)
//	if lockfree.IsWouldBlock(err) {
//	    // Queue is full - handle backpressure
//	}
//
//	// Dequeue (non-blocking)
//	elem, err := q.Dequeue()
//	if lockfree.IsWouldBlock(err) {
//	    // Queue is empty - try again later
//	}
//
// The unbounded structures never reject an insert; only the empty case
// reports ErrWouldBlock:
//
//	s := lockfree.NewStack[int]()
//	v := 42
//	s.Push(&v)
//	elem, err := s.Pop()  // err == nil
//	_, err = s.Pop()      // lockfree.IsWouldBlock(err)
//
// # Common Patterns
//
// Pipeline Stage (SPSC):
//
//	// Stage 1 → Queue → Stage 2
//	q := lockfree.NewSPSC[Data](1024)
//
//	go func() { // Producer (Stage 1)
//	    backoff := iox.Backoff{}
//	    for data := range input {
//	        for q.Enqueue(&data) != nil {
//	            backoff.Wait()
//	        }
//	        backoff.Reset()
//	    }
//	}()
//
//	go func() { // Consumer (Stage 2)
//	    backoff := iox.Backoff{}
//	    for {
//	        data, err := q.Dequeue()
//	        if err != nil {
//	            backoff.Wait()
//	            continue
//	        }
//	        backoff.Reset()
//	        process(data)
//	    }
//	}()
//
// Latency-sensitive consumers can run the drain loop on a dedicated,
// optionally CPU-pinned OS thread instead:
//
//	q := lockfree.NewSPSC[Data](1024)
//	c := lockfree.Consume(q, 3, process) // pinned to CPU 3
//	// ... produce ...
//	c.Stop()
//
// Work Distribution (MPMC):
//
//	// Multiple submitters → Multiple workers
//	q := lockfree.NewMPMC[Job](4096)
//
//	// Workers
//	for range numWorkers {
//	    go func() {
//	        for {
//	            job, err := q.Dequeue()
//	            if err == nil {
//	                job.Run()
//	            }
//	        }
//	    }()
//	}
//
//	// Submit jobs from anywhere
//	func Submit(j Job) error {
//	    return q.Enqueue(&j)
//	}
//
// Free List (Indirect):
//
//	// Buffer pool with index-based access
//	pool := make([][]byte, 1024)
//	freeList := lockfree.New(1024).BuildIndirect()
//
//	// Initialize free list with buffer indices
//	for i := range pool {
//	    pool[i] = make([]byte, 4096)
//	    freeList.Enqueue(uintptr(i))
//	}
//
//	// Allocate: get index from free list
//	idx, err := freeList.Dequeue()
//	buf := pool[idx]
//
//	// Free: return index to free list
//	freeList.Enqueue(idx)
//
// Connection Stack (unbounded):
//
//	// Most-recently-used connection reuse
//	idle := lockfree.NewStack[*Conn]()
//
//	func release(c *Conn) { idle.Push(&c) }
//
//	func acquire() (*Conn, error) {
//	    if c, err := idle.Pop(); err == nil {
//	        return c, nil
//	    }
//	    return dial()
//	}
//
// # Memory Reclamation
//
// Stack and Queue unlink nodes concurrently with readers that may still
// hold them. Each structure embeds an epoch-based collector: operations
// reserve the current epoch before touching nodes, dequeued nodes go
// into per-epoch retire bags, and a bag is recycled only after every
// reservation that could reach its nodes has been dropped. Recycled
// nodes return to a pool, so steady-state operation allocates nothing.
//
// This is internal machinery with two visible consequences: Pop may do
// a small constant amount of collection work on some calls, and node
// memory of a busy structure is reused rather than returned to the
// garbage collector immediately.
//
// The bounded structures need none of this: their slots live in a fixed
// array and sequence numbers prevent reuse races.
//
// # Error Handling
//
// Operations return [ErrWouldBlock] when they cannot proceed. This error
// is sourced from [code.hybscloud.com/iox] for ecosystem consistency.
//
//	// Retry loop with backoff
//	backoff := iox.Backoff{}
//	for {
//	    err := q.Enqueue(&item)
//	    if err == nil {
//	        backoff.Reset()
//	        break
//	    }
//	    if !lockfree.IsWouldBlock(err) {
//	        return err // Unexpected error
//	    }
//	    backoff.Wait()
//	}
//
// ErrWouldBlock is the only error the package produces; errors.Is and
// [IsWouldBlock] are equivalent ways to test for it.
//
// # Capacity and Length
//
// Bounded capacity rounds up to the next power of 2:
//
//	q := lockfree.NewMPMC[int](5)     // Actual capacity: 8
//	q := lockfree.NewMPMC[int](8)     // Actual capacity: 8
//	q := lockfree.NewMPMC[int](1000)  // Actual capacity: 1024
//	q := lockfree.NewMPMC[int](0)     // Actual capacity: 1
//
// Capacities below one are treated as one; construction never fails. A
// capacity-1 queue holds at most one element and alternates strictly
// between full and empty, which makes it a handoff cell rather than a
// buffer.
//
// Len, Empty, Full and Available are snapshots: the value was true at
// some moment during the call, and concurrent operations may have
// changed it since. Use them for monitoring and heuristics, never as a
// guarantee that the next Enqueue or Dequeue will succeed.
//
// # Thread Safety
//
// All operations are thread-safe within their access pattern constraints:
//
//   - SPSC: one producer goroutine, one consumer goroutine
//   - MPSC: any number of producers, one consumer goroutine
//   - SPMC: one producer goroutine, any number of consumers
//   - MPMC, MPMCIndirect: any number of producers and consumers
//   - Stack, Queue: any number of goroutines
//
// Violating a single-side constraint (e.g., two producers on one SPSC
// ring) causes undefined behavior including data corruption and races.
//
// # Race Detection
//
// Go's race detector tracks synchronization through std sync/atomic but
// cannot observe happens-before relationships established through the
// explicitly ordered atomics in [code.hybscloud.com/atomix]. The bounded
// structures are built on atomix, so their cross-goroutine data handoff
// looks like a race to the detector even though it is not; their
// concurrent tests skip themselves when [RaceEnabled] is set. Stack and
// Queue use std atomics throughout, reclamation included, and run
// cleanly under the detector.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, [code.hybscloud.com/spin] for CPU pause instructions,
// and [golang.org/x/sys] for thread affinity on Linux.
package lockfree
