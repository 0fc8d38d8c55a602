// internal/puzzle/puzzle.go
//
// Permutation generator and attempt evaluator for the unshuffle game.
// Responsibilities:
//   - Generate a uniformly random scramble of 1..n and its inverse
//     (the answer key the player must reconstruct).
//   - Score a complete attempt against the answer key, one tag per slot.
//
// Notes:
//   - Randomness comes from crypto/rand, so every player of a fresh
//     puzzle instance gets an independent, unbiased shuffle.
//   - The evaluator relies on attempts and keys being duplicate-free;
//     it rejects anything else with ErrIncompleteAttempt.

package puzzle

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	// DefaultSegments is the number of audio segments in the daily track.
	DefaultSegments = 8
	// DefaultMaxAttempts is the number of guesses a player gets.
	DefaultMaxAttempts = 6
)

// ErrIncompleteAttempt rejects submissions with unfilled or duplicate
// slots. The caller keeps collecting input; nothing is recorded.
var ErrIncompleteAttempt = errors.New("incomplete attempt")

// Generate produces a random scramble of segments 1..n and its inverse.
//
// scrambled[s] is the segment presented in slot s (0-indexed slots).
// answerKey[k] is the 1-indexed presented slot the player must select to
// put segment k+1 back in its correct position, so answerKey is exactly
// the inverse permutation of scrambled.
func Generate(n int) (scrambled, answerKey []int) {
	scrambled = make([]int, n)
	for i := range scrambled {
		scrambled[i] = i + 1
	}
	// Fisher-Yates, swapping each element with a uniform pick below it.
	for i := n - 1; i > 0; i-- {
		j := randIntn(i + 1)
		scrambled[i], scrambled[j] = scrambled[j], scrambled[i]
	}

	answerKey = make([]int, n)
	for slot, segment := range scrambled {
		answerKey[segment-1] = slot + 1
	}
	return scrambled, answerKey
}

// randIntn returns a cryptographically random value in [0, n).
// Should the entropy read ever fail, index 0 keeps the swap valid.
func randIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// Evaluate scores a complete attempt against the answer key.
// Per slot: exact when the value matches the key at that position,
// present when the key holds the value elsewhere, absent otherwise.
// The second return is true iff every slot scored exact.
//
// Returns ErrIncompleteAttempt when the attempt is the wrong length,
// has unfilled slots (zero values), or contains duplicates.
func Evaluate(attempt, answerKey []int) ([]Tag, bool, error) {
	n := len(answerKey)
	if len(attempt) != n {
		return nil, false, ErrIncompleteAttempt
	}
	seen := make(map[int]bool, n)
	for _, v := range attempt {
		if v == 0 || seen[v] {
			return nil, false, ErrIncompleteAttempt
		}
		seen[v] = true
	}

	inKey := make(map[int]bool, n)
	for _, v := range answerKey {
		inKey[v] = true
	}

	feedback := make([]Tag, n)
	won := true
	for i, v := range attempt {
		switch {
		case v == answerKey[i]:
			feedback[i] = TagExact
		case inKey[v]:
			feedback[i] = TagPresent
			won = false
		default:
			feedback[i] = TagAbsent
			won = false
		}
	}
	return feedback, won, nil
}
