// ©2026 Jerry Li. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import (
	"slices"
	"testing"
)

// TestSlotDiff verifies the signed cursor comparison, including wrap.
func TestSlotDiff(t *testing.T) {
	tests := []struct {
		name     string
		seq      uint64
		expected uint64
		want     int64
	}{
		{"Equal", 5, 5, 0},
		{"Ready", 6, 5, 1},
		{"Lagging", 4, 5, -1},
		{"ZeroBoth", 0, 0, 0},
		{"MaxBoth", ^uint64(0), ^uint64(0), 0},
		{"WrapReady", 2, ^uint64(0), 3},
		{"WrapLagging", ^uint64(0), 2, -3},
	}

	for tt := range slices.Values(tests) {
		t.Run(tt.name, func(t *testing.T) {
			if got := slotDiff(tt.seq, tt.expected); got != tt.want {
				t.Errorf("slotDiff(%d, %d) = %d, want %d", tt.seq, tt.expected, got, tt.want)
			}
		})
	}
}

// TestRoundToPow2Internal pins the helper's edge cases directly; the
// constructors cover the rest black-box.
func TestRoundToPow2Internal(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-100, 1},
		{-1, 1},
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{1<<20 - 1, 1 << 20},
		{1 << 20, 1 << 20},
	}

	for tt := range slices.Values(tests) {
		if got := roundToPow2(tt.in); got != tt.want {
			t.Errorf("roundToPow2(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// TestSlotFloor verifies the physical slot floor behind degenerate
// capacities: Cap stays at one while the ring runs on two slots, so the
// sequence protocol keeps the readable and recycled marks apart.
func TestSlotFloor(t *testing.T) {
	q := NewMPMC[int](1)
	if q.Cap() != 1 {
		t.Fatalf("Cap: got %d, want 1", q.Cap())
	}
	if len(q.buffer) != 2 || q.slots != 2 || q.mask != 1 {
		t.Fatalf("buffer/slots/mask: got %d/%d/%d, want 2/2/1", len(q.buffer), q.slots, q.mask)
	}

	if q := NewMPSC[int](0); q.Cap() != 1 || len(q.buffer) != 2 {
		t.Fatalf("MPSC: Cap %d buffer %d, want 1 and 2", q.Cap(), len(q.buffer))
	}
	if q := NewSPMC[int](1); q.Cap() != 1 || len(q.buffer) != 2 {
		t.Fatalf("SPMC: Cap %d buffer %d, want 1 and 2", q.Cap(), len(q.buffer))
	}
	if q := NewMPMCIndirect(1); q.Cap() != 1 || len(q.buffer) != 2 {
		t.Fatalf("Indirect: Cap %d buffer %d, want 1 and 2", q.Cap(), len(q.buffer))
	}

	// Above the floor, capacity and slot count agree
	if q := NewMPMC[int](8); q.Cap() != 8 || len(q.buffer) != 8 {
		t.Fatalf("MPMC(8): Cap %d buffer %d, want 8 and 8", q.Cap(), len(q.buffer))
	}
}
