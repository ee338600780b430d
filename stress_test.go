// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Contention tests for the bounded queues are excluded from race detection.
//
// Go's race detector tracks explicit synchronization primitives (mutex,
// channels, WaitGroup) but cannot observe happens-before relationships
// established through atomic memory orderings (acquire-release semantics).
//
// The bounded queues protect non-atomic slot data with sequence numbers and
// acquire-release ordering on separate variables. The algorithms are correct,
// but the detector reports false positives for them, so those tests skip
// under -race. The Stack and Queue tests have no such exclusion.

package lockfree_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"github.com/valyala/fastrand"

	lockfree "github.com/jerryli99/lockfree-datastructures-lib"
)

// =============================================================================
// Medium Contention Tests
// =============================================================================

// TestMediumContention tests moderate concurrency levels (4-8 workers).
// This fills the gap between single-threaded tests and extreme stress tests.
func TestMediumContention(t *testing.T) {
	if lockfree.RaceEnabled {
		t.Skip("skip: lock-free algorithm uses cross-variable memory ordering")
	}
	tests := []struct {
		name      string
		producers int
		consumers int
		capacity  int
		items     int
	}{
		{"MPMC_4x4", 4, 4, 512, 1000},
		{"MPMC_8x8", 8, 8, 512, 1000},
		{"MPMC_8x1", 8, 1, 512, 1000},
		{"MPMC_1x8", 1, 8, 512, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := lockfree.NewMPMC[int](tt.capacity)
			testMediumContention(t, q, tt.producers, tt.consumers, tt.items)
		})
	}
}

// TestMediumContentionIndirect tests the packed-slot queue at medium contention.
func TestMediumContentionIndirect(t *testing.T) {
	if lockfree.RaceEnabled {
		t.Skip("skip: lock-free algorithm uses cross-variable memory ordering")
	}
	tests := []struct {
		name      string
		producers int
		consumers int
		capacity  int
		items     int
	}{
		{"MPMCIndirect_4x4", 4, 4, 512, 1000},
		{"MPMCIndirect_8x1", 8, 1, 512, 1000},
		{"MPMCIndirect_1x8", 1, 8, 512, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := lockfree.NewMPMCIndirect(tt.capacity)
			testMediumContentionIndirect(t, q, tt.producers, tt.consumers, tt.items)
		})
	}
}

func testMediumContention(t *testing.T, q *lockfree.MPMC[int], numP, numC, totalItems int) {
	t.Helper()

	// Pre-allocate ALL values before test (stable addresses)
	values := make([]int, totalItems)
	for i := range totalItems {
		values[i] = i
	}

	itemsPerProd := totalItems / numP
	var prodWg, consWg sync.WaitGroup
	var produced, consumed atomix.Int64
	seenValues := make([]atomix.Int32, totalItems)
	done := make(chan struct{})
	drainSignal := make(chan struct{})
	var closeOnce sync.Once

	// Start producers
	for p := range numP {
		prodWg.Add(1)
		go func(id int) {
			defer prodWg.Done()
			backoff := iox.Backoff{}
			start := id * itemsPerProd
			end := start + itemsPerProd
			for idx := start; idx < end; idx++ {
				select {
				case <-done:
					return
				default:
				}
				for {
					select {
					case <-done:
						return
					default:
					}
					if q.Enqueue(&values[idx]) == nil {
						produced.Add(1)
						backoff.Reset()
						break
					}
					backoff.Wait()
				}
			}
		}(p)
	}

	// Start consumers
	for range numC {
		consWg.Add(1)
		go func() {
			defer consWg.Done()
			backoff := iox.Backoff{}
			draining := false
			emptyCount := 0
			for {
				select {
				case <-done:
					return
				case <-drainSignal:
					draining = true
				default:
				}
				if consumed.Load() >= int64(totalItems) {
					return
				}
				v, err := q.Dequeue()
				if err == nil {
					if v >= 0 && v < totalItems {
						seenValues[v].Add(1)
					}
					consumed.Add(1)
					emptyCount = 0
					backoff.Reset()
				} else if draining {
					emptyCount++
					if emptyCount > 1000 {
						return
					}
				} else {
					backoff.Wait()
				}
			}
		}()
	}

	// Once producers finish, let consumers exit on sustained empty
	go func() {
		prodWg.Wait()
		close(drainSignal)
	}()

	// Timeout watchdog
	go func() {
		timeout := time.After(5 * time.Second)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-timeout:
				closeOnce.Do(func() { close(done) })
				return
			case <-ticker.C:
				if consumed.Load() >= int64(totalItems) {
					closeOnce.Do(func() { close(done) })
					return
				}
			}
		}
	}()

	consWg.Wait()
	closeOnce.Do(func() { close(done) })

	if consumed.Load() < int64(totalItems) {
		t.Fatalf("timeout: produced=%d consumed=%d target=%d",
			produced.Load(), consumed.Load(), totalItems)
	}

	// The cursor handshake hands off every claimed slot, so a completed
	// run tolerates neither duplicates nor losses.
	var missing, duplicates int
	for i := range totalItems {
		count := seenValues[i].Load()
		if count == 0 {
			missing++
		} else if count > 1 {
			duplicates++
		}
	}
	if duplicates > 0 {
		t.Errorf("duplicated %d items (data corruption)", duplicates)
	}
	if missing > 0 {
		t.Errorf("missing %d items (queue loss)", missing)
	}
}

func testMediumContentionIndirect(t *testing.T, q *lockfree.MPMCIndirect, numP, numC, totalItems int) {
	t.Helper()

	itemsPerProd := totalItems / numP
	var prodWg, consWg sync.WaitGroup
	var produced, consumed atomix.Int64
	seenValues := make([]atomix.Int32, totalItems)
	done := make(chan struct{})
	drainSignal := make(chan struct{})
	var closeOnce sync.Once

	for p := range numP {
		prodWg.Add(1)
		go func(id int) {
			defer prodWg.Done()
			backoff := iox.Backoff{}
			start := id * itemsPerProd
			end := start + itemsPerProd
			for idx := start; idx < end; idx++ {
				select {
				case <-done:
					return
				default:
				}
				for {
					select {
					case <-done:
						return
					default:
					}
					if q.Enqueue(uintptr(idx)) == nil {
						produced.Add(1)
						backoff.Reset()
						break
					}
					backoff.Wait()
				}
			}
		}(p)
	}

	for range numC {
		consWg.Add(1)
		go func() {
			defer consWg.Done()
			backoff := iox.Backoff{}
			draining := false
			emptyCount := 0
			for {
				select {
				case <-done:
					return
				case <-drainSignal:
					draining = true
				default:
				}
				if consumed.Load() >= int64(totalItems) {
					return
				}
				v, err := q.Dequeue()
				if err == nil {
					if int(v) < totalItems {
						seenValues[v].Add(1)
					}
					consumed.Add(1)
					emptyCount = 0
					backoff.Reset()
				} else if draining {
					emptyCount++
					if emptyCount > 1000 {
						return
					}
				} else {
					backoff.Wait()
				}
			}
		}()
	}

	go func() {
		prodWg.Wait()
		close(drainSignal)
	}()

	go func() {
		timeout := time.After(5 * time.Second)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-timeout:
				closeOnce.Do(func() { close(done) })
				return
			case <-ticker.C:
				if consumed.Load() >= int64(totalItems) {
					closeOnce.Do(func() { close(done) })
					return
				}
			}
		}
	}()

	consWg.Wait()
	closeOnce.Do(func() { close(done) })

	if consumed.Load() < int64(totalItems) {
		t.Fatalf("timeout: produced=%d consumed=%d target=%d",
			produced.Load(), consumed.Load(), totalItems)
	}

	var missing, duplicates int
	for i := range totalItems {
		count := seenValues[i].Load()
		if count == 0 {
			missing++
		} else if count > 1 {
			duplicates++
		}
	}
	if duplicates > 0 {
		t.Errorf("duplicated %d items (data corruption)", duplicates)
	}
	if missing > 0 {
		t.Errorf("missing %d items (queue loss)", missing)
	}
}

// =============================================================================
// High-Contention Stress Tests (Weak Memory Model Verification)
// =============================================================================

func startStressWatchdog(
	done chan struct{},
	closeOnce *sync.Once,
	timedOut *atomix.Bool,
	produced *atomix.Int64,
	consumed *atomix.Int64,
	totalItems int64,
) {
	const (
		stressTick      = 20 * time.Millisecond
		progressTimeout = 10 * time.Second
	)

	go func() {
		ticker := time.NewTicker(stressTick)
		defer ticker.Stop()

		lastProduced := produced.Load()
		lastConsumed := consumed.Load()
		lastProgress := time.Now()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				currentProduced := produced.Load()
				currentConsumed := consumed.Load()
				if currentProduced != lastProduced || currentConsumed != lastConsumed {
					lastProduced = currentProduced
					lastConsumed = currentConsumed
					lastProgress = time.Now()
					continue
				}

				if currentConsumed < totalItems && time.Since(lastProgress) >= progressTimeout {
					timedOut.Store(true)
					closeOnce.Do(func() { close(done) })
					return
				}
			}
		}
	}()
}

// TestHighContentionStress verifies queue correctness under extreme
// contention with many producers and consumers.
//
// Key correctness properties:
//   - Pre-allocated values array ensures stable addresses (no stack pointer reuse)
//   - Uses iox.Backoff for external wait semantics (producer/consumer coordination)
//   - Zero tolerance for missing or duplicate items
func TestHighContentionStress(t *testing.T) {
	if testing.Short() {
		t.Skip("skip: stress test")
	}
	if lockfree.RaceEnabled {
		t.Skip("skip: lock-free algorithm uses cross-variable memory ordering")
	}

	const (
		numProducers = 16
		numConsumers = 16
		itemsPerProd = 500
		totalItems   = numProducers * itemsPerProd
		queueCap     = 256
	)

	// Pre-allocate ALL values before test (stable addresses)
	values := make([]int, totalItems)
	for i := range totalItems {
		values[i] = i
	}

	q := lockfree.NewMPMC[int](queueCap)
	seen := make([]atomix.Int32, totalItems)
	var produced, consumed atomix.Int64
	var outOfRange atomix.Int64
	var closeOnce sync.Once
	var timedOut atomix.Bool
	done := make(chan struct{})
	drainSignal := make(chan struct{})

	startStressWatchdog(done, &closeOnce, &timedOut, &produced, &consumed, int64(totalItems))

	var prodWg sync.WaitGroup
	for p := range numProducers {
		prodWg.Add(1)
		go func(id int) {
			defer prodWg.Done()
			start := id * itemsPerProd
			end := start + itemsPerProd
			backoff := iox.Backoff{}
			for idx := start; idx < end; idx++ {
				select {
				case <-done:
					return
				default:
				}
				for q.Enqueue(&values[idx]) != nil {
					select {
					case <-done:
						return
					default:
					}
					backoff.Wait() // External wait for consumer
				}
				produced.Add(1)
				backoff.Reset()
			}
		}(p)
	}

	var consWg sync.WaitGroup
	for range numConsumers {
		consWg.Add(1)
		go func() {
			defer consWg.Done()
			backoff := iox.Backoff{}
			draining := false
			emptyCount := 0
			for {
				select {
				case <-done:
					return
				case <-drainSignal:
					draining = true
				default:
				}
				if consumed.Load() >= int64(totalItems) {
					return
				}
				v, err := q.Dequeue()
				if err == nil {
					if v < 0 || v >= totalItems {
						outOfRange.Add(1)
						consumed.Add(1)
						continue
					}
					seen[v].Add(1)
					consumed.Add(1)
					emptyCount = 0
					backoff.Reset()
				} else if draining {
					emptyCount++
					if emptyCount > 1000 {
						return
					}
				} else {
					backoff.Wait() // External wait for producer
				}
			}
		}()
	}

	prodWg.Wait()
	close(drainSignal)
	consWg.Wait()
	closeOnce.Do(func() { close(done) })

	if timedOut.Load() {
		t.Fatalf("MPMC stress timeout (produced=%d consumed=%d)",
			produced.Load(), consumed.Load())
	}
	if outOfRange.Load() > 0 {
		t.Fatalf("out of range: %d values", outOfRange.Load())
	}

	var missing, duplicates int
	for i := range totalItems {
		count := seen[i].Load()
		if count == 0 {
			missing++
		} else if count > 1 {
			duplicates++
		}
	}
	if duplicates > 0 {
		t.Fatalf("data corruption: %d duplicates", duplicates)
	}
	if missing > 0 {
		t.Fatalf("queue loss: %d missing items", missing)
	}
}

// TestHighContentionStressIndirect runs the same shape through the
// packed-slot queue, where claim and publish are a single 128-bit CAS.
func TestHighContentionStressIndirect(t *testing.T) {
	if testing.Short() {
		t.Skip("skip: stress test")
	}
	if lockfree.RaceEnabled {
		t.Skip("skip: lock-free algorithm uses cross-variable memory ordering")
	}

	const (
		numProducers = 16
		numConsumers = 16
		itemsPerProd = 500
		totalItems   = numProducers * itemsPerProd
		queueCap     = 256
	)

	q := lockfree.NewMPMCIndirect(queueCap)
	seen := make([]atomix.Int32, totalItems)
	var produced, consumed atomix.Int64
	var outOfRange atomix.Int64
	var closeOnce sync.Once
	var timedOut atomix.Bool
	done := make(chan struct{})
	drainSignal := make(chan struct{})

	startStressWatchdog(done, &closeOnce, &timedOut, &produced, &consumed, int64(totalItems))

	var prodWg sync.WaitGroup
	for p := range numProducers {
		prodWg.Add(1)
		go func(id int) {
			defer prodWg.Done()
			start := id * itemsPerProd
			end := start + itemsPerProd
			backoff := iox.Backoff{}
			for idx := start; idx < end; idx++ {
				select {
				case <-done:
					return
				default:
				}
				for q.Enqueue(uintptr(idx)) != nil {
					select {
					case <-done:
						return
					default:
					}
					backoff.Wait()
				}
				produced.Add(1)
				backoff.Reset()
			}
		}(p)
	}

	var consWg sync.WaitGroup
	for range numConsumers {
		consWg.Add(1)
		go func() {
			defer consWg.Done()
			backoff := iox.Backoff{}
			draining := false
			emptyCount := 0
			for {
				select {
				case <-done:
					return
				case <-drainSignal:
					draining = true
				default:
				}
				if consumed.Load() >= int64(totalItems) {
					return
				}
				v, err := q.Dequeue()
				if err == nil {
					if int(v) >= totalItems {
						outOfRange.Add(1)
						consumed.Add(1)
						continue
					}
					seen[v].Add(1)
					consumed.Add(1)
					emptyCount = 0
					backoff.Reset()
				} else if draining {
					emptyCount++
					if emptyCount > 1000 {
						return
					}
				} else {
					backoff.Wait()
				}
			}
		}()
	}

	prodWg.Wait()
	close(drainSignal)
	consWg.Wait()
	closeOnce.Do(func() { close(done) })

	if timedOut.Load() {
		t.Fatalf("Indirect stress timeout (produced=%d consumed=%d)",
			produced.Load(), consumed.Load())
	}
	if outOfRange.Load() > 0 {
		t.Fatalf("out of range: %d values", outOfRange.Load())
	}

	var missing, duplicates int
	for i := range totalItems {
		count := seen[i].Load()
		if count == 0 {
			missing++
		} else if count > 1 {
			duplicates++
		}
	}
	if duplicates > 0 {
		t.Fatalf("data corruption: %d duplicates", duplicates)
	}
	if missing > 0 {
		t.Fatalf("queue loss: %d missing items", missing)
	}
}

// TestSPSCStress pushes a large item count through one producer/consumer
// pair and verifies strict FIFO delivery end to end.
func TestSPSCStress(t *testing.T) {
	if testing.Short() {
		t.Skip("skip: stress test")
	}
	if lockfree.RaceEnabled {
		t.Skip("skip: lock-free algorithm uses cross-variable memory ordering")
	}

	const totalItems = 200000
	q := lockfree.NewSPSC[int](1024)

	var produced, consumed atomix.Int64
	var closeOnce sync.Once
	var timedOut atomix.Bool
	done := make(chan struct{})

	startStressWatchdog(done, &closeOnce, &timedOut, &produced, &consumed, totalItems)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		backoff := iox.Backoff{}
		for i := range totalItems {
			select {
			case <-done:
				return
			default:
			}
			v := i
			for q.Enqueue(&v) != nil {
				select {
				case <-done:
					return
				default:
				}
				backoff.Wait()
			}
			produced.Add(1)
			backoff.Reset()
		}
	}()

	backoff := iox.Backoff{}
	expect := 0
	for expect < totalItems {
		select {
		case <-done:
			t.Fatalf("SPSC stress timeout (produced=%d consumed=%d)",
				produced.Load(), consumed.Load())
		default:
		}
		v, err := q.Dequeue()
		if err != nil {
			backoff.Wait()
			continue
		}
		if v != expect {
			t.Fatalf("FIFO violation at %d: got %d", expect, v)
		}
		expect++
		consumed.Add(1)
		backoff.Reset()
	}

	wg.Wait()
	closeOnce.Do(func() { close(done) })
}

// =============================================================================
// Mixed-Operation Stress (Stack and Queue)
// =============================================================================

// runMixedStress hammers an unbounded structure with randomized push/pop
// from every worker, then drains and checks conservation: every pushed
// value surfaces exactly once, nothing else surfaces at all.
func runMixedStress(t *testing.T, push func(int), pop func() (int, bool)) {
	t.Helper()

	const (
		numWorkers = 8
		opsPerG    = 20000
	)

	seen := make([]atomic.Int32, numWorkers*opsPerG)
	pushCounts := make([]int64, numWorkers)
	var popped, outOfRange atomic.Int64

	record := func(v int) {
		if v < 0 || v >= len(seen) {
			outOfRange.Add(1)
			return
		}
		seen[v].Add(1)
		popped.Add(1)
	}

	var wg sync.WaitGroup
	for w := range numWorkers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			rng := fastrand.RNG{}
			rng.Seed(uint32(id + 1))
			pushSeq := 0
			for range opsPerG {
				if rng.Uint32n(2) == 0 {
					push(id*opsPerG + pushSeq)
					pushSeq++
				} else if v, ok := pop(); ok {
					record(v)
				}
			}
			pushCounts[id] = int64(pushSeq)
		}(w)
	}
	wg.Wait()

	// Drain whatever is left
	for {
		v, ok := pop()
		if !ok {
			break
		}
		record(v)
	}

	if n := outOfRange.Load(); n > 0 {
		t.Fatalf("out of range: %d values", n)
	}

	var totalPushed int64
	for _, n := range pushCounts {
		totalPushed += n
	}
	if got := popped.Load(); got != totalPushed {
		t.Fatalf("conservation violated: pushed %d, popped %d", totalPushed, got)
	}

	var duplicates, phantom int
	for id := range numWorkers {
		limit := int(pushCounts[id])
		for s := range opsPerG {
			count := seen[id*opsPerG+s].Load()
			switch {
			case s < limit && count != 1:
				if count > 1 {
					duplicates++
				} else {
					phantom++ // pushed but never surfaced; conservation already failed
				}
			case s >= limit && count != 0:
				phantom++
			}
		}
	}
	if duplicates > 0 {
		t.Errorf("%d values surfaced more than once", duplicates)
	}
	if phantom > 0 {
		t.Errorf("%d slots disagree with push history", phantom)
	}
}

// TestStackMixedStress runs randomized concurrent push/pop on the stack.
// Runs under the race detector.
func TestStackMixedStress(t *testing.T) {
	if testing.Short() {
		t.Skip("skip: stress test")
	}
	s := lockfree.NewStack[int]()
	runMixedStress(t,
		func(v int) { s.Push(&v) },
		func() (int, bool) { v, err := s.Pop(); return v, err == nil },
	)
}

// TestQueueMixedStress runs randomized concurrent push/pop on the queue.
// Runs under the race detector.
func TestQueueMixedStress(t *testing.T) {
	if testing.Short() {
		t.Skip("skip: stress test")
	}
	q := lockfree.NewQueue[int]()
	runMixedStress(t,
		func(v int) { q.Push(&v) },
		func() (int, bool) { v, err := q.Pop(); return v, err == nil },
	)
}
