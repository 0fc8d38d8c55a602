// internal/puzzle/buffer.go
//
// Buffer is the in-progress attempt a player assembles between
// submissions. A slot value of 0 means unfilled. Locked slots are set
// once, when the buffer is seeded from a scored attempt, and cannot be
// filled over or removed until the buffer is reseeded or cleared.

package puzzle

// Buffer tracks the slots and locks of the attempt being assembled.
type Buffer struct {
	slots  []int
	locked []bool
}

// NewBuffer returns an empty buffer with n unfilled, unlocked slots.
func NewBuffer(n int) *Buffer {
	return &Buffer{slots: make([]int, n), locked: make([]bool, n)}
}

// Add places v in the first unfilled slot, left to right.
// No-op when v is out of range, already present in the buffer, or no
// unlocked slot is free. Locked slots are always filled, so the scan
// never lands on one.
func (b *Buffer) Add(v int) {
	if v < 1 || v > len(b.slots) {
		return
	}
	for _, cur := range b.slots {
		if cur == v {
			return
		}
	}
	for i, cur := range b.slots {
		if cur == 0 && !b.locked[i] {
			b.slots[i] = v
			return
		}
	}
}

// RemoveLast empties the highest-index filled slot that is not locked.
// Locked slots are skipped over, never removed.
func (b *Buffer) RemoveLast() {
	for i := len(b.slots) - 1; i >= 0; i-- {
		if b.slots[i] != 0 && !b.locked[i] {
			b.slots[i] = 0
			return
		}
	}
}

// Clear empties every slot and drops all locks.
func (b *Buffer) Clear() {
	for i := range b.slots {
		b.slots[i] = 0
		b.locked[i] = false
	}
}

// Seed pre-fills the buffer from the previous scored attempt: positions
// tagged exact carry their value forward and are locked; every other
// slot starts unfilled. The locked set is computed here, once, and not
// re-derived afterwards.
func (b *Buffer) Seed(prev []int, feedback []Tag) {
	b.Clear()
	for i, t := range feedback {
		if t == TagExact {
			b.slots[i] = prev[i]
			b.locked[i] = true
		}
	}
}

// IsComplete reports whether every slot is filled. Values are distinct
// by construction (Add refuses duplicates).
func (b *Buffer) IsComplete() bool {
	for _, v := range b.slots {
		if v == 0 {
			return false
		}
	}
	return true
}

// Values returns a copy of the slot contents (0 = unfilled).
func (b *Buffer) Values() []int {
	out := make([]int, len(b.slots))
	copy(out, b.slots)
	return out
}

// Locked returns a copy of the per-slot lock flags.
func (b *Buffer) Locked() []bool {
	out := make([]bool, len(b.locked))
	copy(out, b.locked)
	return out
}
