// internal/puzzle/types.go
//
// Core type definitions for the unshuffle puzzle engine.
// Defines:
//   - Tag: per-slot result of a scored attempt (exact/present/absent).
//   - State: lifecycle state of a session.
//   - Attempt: one completed guess with its feedback.

package puzzle

// Tag represents the evaluation result for a single slot of an attempt.
// Possible values:
//   - "exact":   segment is in the correct position.
//   - "present": segment exists in the answer key but in a different position.
//   - "absent":  segment does not exist in the answer key at all.
//
// Because attempts and answer keys are both permutations of the same
// value set, "present" always means "wrong position"; "absent" can only
// occur for values outside the key's universe.
type Tag string

const (
	TagExact   Tag = "exact"
	TagPresent Tag = "present"
	TagAbsent  Tag = "absent"
)

// State is a coarse description of where a session is in its lifecycle.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateWon        State = "won"
	StateLost       State = "lost"
)

// Attempt is one completed, scored guess.
type Attempt struct {
	Values   []int `json:"values"`
	Feedback []Tag `json:"feedback"`
}
