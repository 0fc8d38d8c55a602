// internal/puzzle/session.go
//
// Session state machine for a single daily game.
// Responsibilities:
//   - Hold the puzzle (scramble + answer key), the attempt history, and
//     the in-progress buffer.
//   - Validate and score submissions, counting attempts.
//   - Track state transitions: not_started → in_progress → won/lost.
//
// Notes:
//   - Timing is injected (the caller passes time.Time) so the lifecycle
//     is testable against a fixed clock.
//   - randomID() is a compact hex identifier for correlating server state.

package puzzle

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// ErrSessionComplete rejects any submission after the session reached a
// terminal state. No state changes.
var ErrSessionComplete = errors.New("session already complete")

// Session holds the state of one player's game against one puzzle.
type Session struct {
	ID           string
	Segments     int
	MaxAttempts  int
	Scrambled    []int // presented order, slot -> segment
	AnswerKey    []int // inverse of Scrambled; never sent to clients
	Buffer       *Buffer
	History      []Attempt
	AttemptsUsed int
	State        State
	StartedAt    time.Time
	CompletedAt  time.Time
}

// NewSession constructs an idle session; call Start to generate the
// puzzle and begin play.
func NewSession(segments, maxAttempts int) *Session {
	if segments <= 0 {
		segments = DefaultSegments
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Session{
		ID:          randomID(),
		Segments:    segments,
		MaxAttempts: maxAttempts,
		Buffer:      NewBuffer(segments),
		State:       StateNotStarted,
	}
}

// Start scrambles a fresh puzzle and moves the session to in_progress.
// Restarting an existing session scraps the previous puzzle, history,
// and any in-progress attempt.
func (s *Session) Start(now time.Time) {
	scrambled, key := Generate(s.Segments)
	s.StartWith(scrambled, key, now)
}

// StartWith installs a fixed scramble and answer key (testing, or
// replaying a known puzzle) and resets all play state.
func (s *Session) StartWith(scrambled, answerKey []int, now time.Time) {
	s.Scrambled = scrambled
	s.AnswerKey = answerKey
	s.Buffer = NewBuffer(s.Segments)
	s.History = nil
	s.AttemptsUsed = 0
	s.State = StateInProgress
	s.StartedAt = now
	s.CompletedAt = time.Time{}
}

// Add forwards to the buffer while the session is in progress.
func (s *Session) Add(v int) {
	if s.State != StateInProgress {
		return
	}
	s.Buffer.Add(v)
}

// RemoveLast forwards to the buffer while the session is in progress.
func (s *Session) RemoveLast() {
	if s.State != StateInProgress {
		return
	}
	s.Buffer.RemoveLast()
}

// Submit scores the current buffer as a completed attempt.
// Returns: the per-slot feedback, the new state, or an error.
//
// Validation rules:
//   - Session must be in progress (ErrSessionComplete after won/lost).
//   - Buffer must be complete (ErrIncompleteAttempt otherwise); the
//     rejected submission records nothing and consumes no attempt.
//
// State transitions:
//   - All slots exact → won, CompletedAt recorded.
//   - Attempt cap reached without a win → lost, CompletedAt recorded.
//   - Otherwise the buffer is reseeded with the exact positions carried
//     forward and locked.
func (s *Session) Submit(now time.Time) ([]Tag, State, error) {
	switch s.State {
	case StateWon, StateLost:
		return nil, s.State, ErrSessionComplete
	case StateInProgress:
	default:
		return nil, s.State, ErrIncompleteAttempt
	}
	if !s.Buffer.IsComplete() {
		return nil, s.State, ErrIncompleteAttempt
	}

	values := s.Buffer.Values()
	feedback, won, err := Evaluate(values, s.AnswerKey)
	if err != nil {
		return nil, s.State, err
	}
	s.History = append(s.History, Attempt{Values: values, Feedback: feedback})
	s.AttemptsUsed++

	switch {
	case won:
		s.State = StateWon
		s.CompletedAt = now
		s.Buffer.Clear()
	case s.AttemptsUsed >= s.MaxAttempts:
		s.State = StateLost
		s.CompletedAt = now
		s.Buffer.Clear()
	default:
		s.Buffer.Seed(values, feedback)
	}
	return feedback, s.State, nil
}

// TimeTaken reports the elapsed play time for a finished session.
func (s *Session) TimeTaken() time.Duration {
	if s.CompletedAt.IsZero() {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

// FeedbackRows returns the feedback of each completed attempt in order.
func (s *Session) FeedbackRows() [][]Tag {
	rows := make([][]Tag, len(s.History))
	for i, a := range s.History {
		rows[i] = a.Feedback
	}
	return rows
}

// GuessRows returns the values of each completed attempt in order.
func (s *Session) GuessRows() [][]int {
	rows := make([][]int, len(s.History))
	for i, a := range s.History {
		rows[i] = a.Values
	}
	return rows
}

// randomID returns a compact 16-hex-char identifier.
// Collisions are extremely unlikely given crypto/rand entropy.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
