package puzzle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kkolster/unshuffle-server/internal/puzzle"
)

func TestBuffer_AddFillsLeftToRight(t *testing.T) {
	b := puzzle.NewBuffer(4)
	b.Add(3)
	b.Add(1)
	assert.Equal(t, []int{3, 1, 0, 0}, b.Values())
	assert.False(t, b.IsComplete())

	b.Add(4)
	b.Add(2)
	assert.Equal(t, []int{3, 1, 4, 2}, b.Values())
	assert.True(t, b.IsComplete())
}

func TestBuffer_AddIgnoresDuplicatesAndOutOfRange(t *testing.T) {
	b := puzzle.NewBuffer(4)
	b.Add(2)
	b.Add(2)
	b.Add(0)
	b.Add(5)
	b.Add(-1)
	assert.Equal(t, []int{2, 0, 0, 0}, b.Values())
}

func TestBuffer_AddNoOpWhenFull(t *testing.T) {
	b := puzzle.NewBuffer(3)
	b.Add(1)
	b.Add(2)
	b.Add(3)
	b.Add(3) // duplicate, and no free slot either way
	assert.Equal(t, []int{1, 2, 3}, b.Values())
}

func TestBuffer_RemoveLastSkipsLocked(t *testing.T) {
	b := puzzle.NewBuffer(4)
	// Previous attempt scored exact at positions 1 and 3.
	b.Seed([]int{4, 2, 1, 3}, []puzzle.Tag{
		puzzle.TagPresent, puzzle.TagExact, puzzle.TagPresent, puzzle.TagExact,
	})
	assert.Equal(t, []int{0, 2, 0, 3}, b.Values())
	assert.Equal(t, []bool{false, true, false, true}, b.Locked())

	b.Add(4)
	b.Add(1)
	assert.Equal(t, []int{4, 2, 1, 3}, b.Values())

	// Highest unlocked filled slot is 2; slot 3 is locked and skipped.
	b.RemoveLast()
	assert.Equal(t, []int{4, 2, 0, 3}, b.Values())

	b.RemoveLast()
	assert.Equal(t, []int{0, 2, 0, 3}, b.Values())

	// Only locked slots remain; removal is a no-op.
	b.RemoveLast()
	assert.Equal(t, []int{0, 2, 0, 3}, b.Values())
}

func TestBuffer_AddCannotOverwriteLocked(t *testing.T) {
	b := puzzle.NewBuffer(3)
	b.Seed([]int{1, 3, 2}, []puzzle.Tag{
		puzzle.TagExact, puzzle.TagPresent, puzzle.TagPresent,
	})
	// Value 1 is held by the locked slot; re-adding it is a no-op.
	b.Add(1)
	assert.Equal(t, []int{1, 0, 0}, b.Values())

	b.Add(2)
	b.Add(3)
	assert.Equal(t, []int{1, 2, 3}, b.Values())
}

func TestBuffer_SeedWithNoExactLeavesEmpty(t *testing.T) {
	b := puzzle.NewBuffer(3)
	b.Add(1)
	b.Add(2)
	b.Seed([]int{2, 3, 1}, []puzzle.Tag{
		puzzle.TagPresent, puzzle.TagPresent, puzzle.TagPresent,
	})
	assert.Equal(t, []int{0, 0, 0}, b.Values())
	assert.Equal(t, []bool{false, false, false}, b.Locked())
}

func TestBuffer_ClearDropsLocks(t *testing.T) {
	b := puzzle.NewBuffer(2)
	b.Seed([]int{1, 2}, []puzzle.Tag{puzzle.TagExact, puzzle.TagPresent})
	b.Clear()
	assert.Equal(t, []int{0, 0}, b.Values())
	assert.Equal(t, []bool{false, false}, b.Locked())
}
