// Package rollback implements the bounded history ring and the
// rollback/resimulate engine that reconciles late-arriving remote
// inputs with already-advanced local predictions.
package rollback

import (
	"pongrelay/sim"
	"pongrelay/wire"
)

// FrameRecord pairs the two inputs applied on a tick with the
// WorldState that resulted from applying them.
type FrameRecord struct {
	Inputs     [2]wire.InputFrame
	StateAfter sim.WorldState
}

// History is a fixed-capacity, newest-first ring of FrameRecord.
// Index 0 is always the most recently produced record; History is
// never empty once constructed. Implemented as a ring buffer rather
// than a growable, prepend-at-zero sequence so that Prepend is O(1)
// regardless of capacity.
type History struct {
	records  []FrameRecord
	capacity int
	newest   int // physical slot holding logical index 0
	size     int
}

// NewHistory builds a History of the given capacity, seeded with a
// single record (typically zero inputs and the initial WorldState).
func NewHistory(capacity int, initial FrameRecord) *History {
	if capacity < 1 {
		capacity = 1
	}
	h := &History{
		records:  make([]FrameRecord, capacity),
		capacity: capacity,
	}
	h.records[0] = initial
	h.size = 1
	return h
}

// Len returns the number of records currently retained, in
// [1, capacity].
func (h *History) Len() int { return h.size }

// Capacity returns MAX_ROLLBACK_FRAMES for this history.
func (h *History) Capacity() int { return h.capacity }

func (h *History) physical(i int) int {
	p := (h.newest - i) % h.capacity
	if p < 0 {
		p += h.capacity
	}
	return p
}

// At returns a pointer to the logical i-th newest record (0 = newest).
// Callers must ensure 0 <= i < Len(); this is an internal invariant of
// the engine, not something driven by untrusted input, so At panics
// on an out-of-range index rather than returning an error.
func (h *History) At(i int) *FrameRecord {
	if i < 0 || i >= h.size {
		panic("rollback: history index out of range")
	}
	return &h.records[h.physical(i)]
}

// Prepend inserts r as the new newest record, evicting the oldest
// record once the ring is at capacity.
func (h *History) Prepend(r FrameRecord) {
	h.newest = (h.newest + 1) % h.capacity
	h.records[h.newest] = r
	if h.size < h.capacity {
		h.size++
	}
}

// FutureInputBuffer holds remote InputFrame records whose frame number
// is ahead of the engine's current_frame, in arrival (and therefore
// frame) order.
type FutureInputBuffer struct {
	items []wire.InputFrame
}

// Push appends a future input to the buffer.
func (f *FutureInputBuffer) Push(in wire.InputFrame) {
	f.items = append(f.items, in)
}

// Len reports the number of buffered future inputs.
func (f *FutureInputBuffer) Len() int { return len(f.items) }

// PeekFrame returns the frame number of the oldest buffered input,
// and false if the buffer is empty.
func (f *FutureInputBuffer) PeekFrame() (uint32, bool) {
	if len(f.items) == 0 {
		return 0, false
	}
	return f.items[0].Frame, true
}

// Pop removes and returns the oldest buffered input. Callers must
// check Len() (or PeekFrame) first.
func (f *FutureInputBuffer) Pop() wire.InputFrame {
	v := f.items[0]
	f.items = f.items[1:]
	return v
}
