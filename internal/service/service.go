// internal/service/service.go
//
// Game orchestration for the unshuffle server.
// Responsibilities:
//   - One active session per (player, day), held in memory while the
//     game is in progress.
//   - Terminal persistence: exactly one finished record per player per
//     day, enforced with SetNX on the record key.
//   - Stats folding and leaderboard maintenance after each finished
//     game, completed before the result is reported.
//
// Storage layout (values JSON in the kv store):
//   - user_stats:{id}            PlayerStats
//   - game_session:{id}:{date}   Record of the finished game
//   - leaderboard:global         stats.Leaderboard

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kkolster/unshuffle-server/internal/kv"
	"github.com/kkolster/unshuffle-server/internal/puzzle"
	"github.com/kkolster/unshuffle-server/internal/share"
	"github.com/kkolster/unshuffle-server/internal/stats"
)

var (
	// ErrAlreadyPlayed rejects starting or finishing a game for a day
	// the player already has a persisted record for.
	ErrAlreadyPlayed = errors.New("already played today")
	// ErrNoSession means the player has no active session to act on.
	ErrNoSession = errors.New("no active session")
)

// Clock abstracts time so daily rollover is testable.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewClock returns the wall clock.
func NewClock() Clock { return realClock{} }

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Profiles resolves player IDs to display names. Satisfied by
// identity.Provider.
type Profiles interface {
	Username(ctx context.Context, id string) (string, error)
}

// Record is the persisted outcome of a finished daily game.
type Record struct {
	PlayerID    string    `json:"userId"`
	Date        string    `json:"date"`
	Won         bool      `json:"won"`
	Attempts    int       `json:"attempts"`
	TimeTaken   int       `json:"timeTaken"` // seconds
	Guesses     [][]int   `json:"guesses"`
	CompletedAt time.Time `json:"completedAt"`
}

// View is a read-only snapshot of a player's session, safe to hand to
// handlers after the service lock is released.
type View struct {
	Date         string           `json:"date"`
	Scrambled    []int            `json:"scrambled"`
	Buffer       []int            `json:"buffer"`
	Locked       []bool           `json:"locked"`
	History      []puzzle.Attempt `json:"history"`
	AttemptsUsed int              `json:"attemptsUsed"`
	MaxAttempts  int              `json:"maxAttempts"`
	State        puzzle.State     `json:"state"`
}

// SubmitResult reports one scored attempt, plus the terminal extras
// when the game just finished.
type SubmitResult struct {
	Feedback  []puzzle.Tag       `json:"feedback"`
	State     puzzle.State       `json:"state"`
	Attempts  int                `json:"attempts"`
	View      View               `json:"session"`
	ShareText string             `json:"shareText,omitempty"`
	Stats     *stats.PlayerStats `json:"stats,omitempty"`
}

// Service owns all game state transitions.
type Service struct {
	store       kv.Store
	profiles    Profiles
	clock       Clock
	segments    int
	maxAttempts int

	mu       sync.Mutex // guards sessions
	sessions map[string]*puzzle.Session

	// lbMu serializes the leaderboard read-modify-write; kv has no
	// compare-and-swap, so the section must be exclusive.
	lbMu sync.Mutex
}

// New constructs a Service. Zero segments/maxAttempts fall back to the
// puzzle defaults.
func New(store kv.Store, profiles Profiles, clock Clock, segments, maxAttempts int) *Service {
	if clock == nil {
		clock = NewClock()
	}
	if segments <= 0 {
		segments = puzzle.DefaultSegments
	}
	if maxAttempts <= 0 {
		maxAttempts = puzzle.DefaultMaxAttempts
	}
	return &Service{
		store:       store,
		profiles:    profiles,
		clock:       clock,
		segments:    segments,
		maxAttempts: maxAttempts,
		sessions:    make(map[string]*puzzle.Session),
	}
}

func sessionKey(playerID, date string) string {
	return playerID + "|" + date
}

func recordKey(playerID, date string) string {
	return "game_session:" + playerID + ":" + date
}

func statsKey(playerID string) string {
	return "user_stats:" + playerID
}

const leaderboardKey = "leaderboard:global"

// StartSession begins (or resumes) today's game for the player.
// Returns ErrAlreadyPlayed when a finished record for today exists.
func (s *Service) StartSession(ctx context.Context, playerID string) (View, error) {
	now := s.clock.Now()
	date := DateKey(now)

	if _, err := s.store.Get(ctx, recordKey(playerID, date)); err == nil {
		return View{}, ErrAlreadyPlayed
	} else if !errors.Is(err, kv.ErrNotFound) {
		return View{}, fmt.Errorf("check played: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey(playerID, date)
	sess, ok := s.sessions[key]
	if !ok {
		sess = puzzle.NewSession(s.segments, s.maxAttempts)
		sess.Start(now)
		s.sessions[key] = sess
		log.Info().Str("player", playerID).Str("date", date).Str("session", sess.ID).Msg("session started")
	}
	return snapshot(date, sess), nil
}

// AddValue appends a value to the player's in-progress attempt.
func (s *Service) AddValue(ctx context.Context, playerID string, value int) (View, error) {
	date := DateKey(s.clock.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionKey(playerID, date)]
	if !ok {
		return View{}, ErrNoSession
	}
	sess.Add(value)
	return snapshot(date, sess), nil
}

// RemoveLast removes the newest unlocked value from the attempt.
func (s *Service) RemoveLast(ctx context.Context, playerID string) (View, error) {
	date := DateKey(s.clock.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionKey(playerID, date)]
	if !ok {
		return View{}, ErrNoSession
	}
	sess.RemoveLast()
	return snapshot(date, sess), nil
}

// TodaySession reports the player's current session for today.
// Returns ErrAlreadyPlayed when today's game is already finished and
// persisted, ErrNoSession when nothing has been started.
func (s *Service) TodaySession(ctx context.Context, playerID string) (View, error) {
	date := DateKey(s.clock.Now())

	s.mu.Lock()
	sess, ok := s.sessions[sessionKey(playerID, date)]
	if ok {
		v := snapshot(date, sess)
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	if _, err := s.store.Get(ctx, recordKey(playerID, date)); err == nil {
		return View{}, ErrAlreadyPlayed
	} else if !errors.Is(err, kv.ErrNotFound) {
		return View{}, fmt.Errorf("check played: %w", err)
	}
	return View{}, ErrNoSession
}

// SubmitAttempt scores the current attempt. On a terminal result the
// record, stats, and leaderboard writes all complete before the result
// is returned; only then is the session dropped from memory. If a write
// fails the session stays in the map, so a retried submit repeats the
// persistence with the stored outcome instead of losing the game.
func (s *Service) SubmitAttempt(ctx context.Context, playerID string) (*SubmitResult, error) {
	now := s.clock.Now()
	date := DateKey(now)
	key := sessionKey(playerID, date)

	s.mu.Lock()
	sess, ok := s.sessions[key]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoSession
	}

	var (
		feedback []puzzle.Tag
		state    puzzle.State
	)
	if sess.State == puzzle.StateWon || sess.State == puzzle.StateLost {
		// A previous submit finished the game but persisting failed;
		// replay the stored outcome instead of scoring again.
		state = sess.State
		if n := len(sess.History); n > 0 {
			feedback = sess.History[n-1].Feedback
		}
	} else {
		var err error
		feedback, state, err = sess.Submit(now)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}

	res := &SubmitResult{
		Feedback: feedback,
		State:    state,
		Attempts: sess.AttemptsUsed,
		View:     snapshot(date, sess),
	}
	if state != puzzle.StateWon && state != puzzle.StateLost {
		s.mu.Unlock()
		return res, nil
	}

	won := state == puzzle.StateWon
	rec := Record{
		PlayerID:    playerID,
		Date:        date,
		Won:         won,
		Attempts:    sess.AttemptsUsed,
		TimeTaken:   int(sess.TimeTaken() / time.Second),
		Guesses:     sess.GuessRows(),
		CompletedAt: sess.CompletedAt,
	}
	rows := sess.FeedbackRows()
	s.mu.Unlock()

	if err := s.persistResult(ctx, playerID, rec); err != nil {
		if errors.Is(err, ErrAlreadyPlayed) {
			// Lost the record claim; the game is settled elsewhere.
			s.dropSession(key)
		}
		return nil, err
	}
	s.dropSession(key)

	st, err := s.Stats(ctx, playerID)
	if err != nil {
		return nil, err
	}
	res.Stats = &st
	res.ShareText = share.Text(rec.CompletedAt, won, rec.Attempts, s.maxAttempts, rows)

	log.Info().
		Str("player", playerID).
		Str("date", date).
		Bool("won", won).
		Int("attempts", rec.Attempts).
		Msg("game finished")
	return res, nil
}

func (s *Service) dropSession(key string) {
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
}

// persistResult writes the once-per-day record and, having won the
// claim, folds the result into stats and the leaderboard.
func (s *Service) persistResult(ctx context.Context, playerID string, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ok, err := s.store.SetNX(ctx, recordKey(playerID, rec.Date), raw)
	if err != nil {
		return fmt.Errorf("persist record: %w", err)
	}
	if !ok {
		return ErrAlreadyPlayed
	}

	st, err := s.Stats(ctx, playerID)
	if err != nil {
		return err
	}
	st.ApplyResult(rec.Won, rec.Attempts)

	stRaw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, statsKey(playerID), stRaw); err != nil {
		return fmt.Errorf("persist stats: %w", err)
	}

	return s.updateLeaderboard(ctx, playerID, st)
}

// updateLeaderboard upserts the player's entry under lbMu.
func (s *Service) updateLeaderboard(ctx context.Context, playerID string, st stats.PlayerStats) error {
	s.lbMu.Lock()
	defer s.lbMu.Unlock()

	board, err := s.loadLeaderboard(ctx)
	if err != nil {
		return err
	}
	board = board.Upsert(stats.Entry{
		PlayerID:        playerID,
		Wins:            st.Wins,
		BestStreak:      st.BestStreak,
		AverageAttempts: st.AverageAttempts,
	})

	raw, err := json.Marshal(board)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, leaderboardKey, raw); err != nil {
		return fmt.Errorf("persist leaderboard: %w", err)
	}
	return nil
}

func (s *Service) loadLeaderboard(ctx context.Context) (stats.Leaderboard, error) {
	raw, err := s.store.Get(ctx, leaderboardKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	var board stats.Leaderboard
	if err := json.Unmarshal(raw, &board); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}
	return board, nil
}

// Leaderboard returns the top entries with usernames resolved.
// Players whose profile cannot be found show as "Anonymous".
func (s *Service) Leaderboard(ctx context.Context) (stats.Leaderboard, error) {
	board, err := s.loadLeaderboard(ctx)
	if err != nil {
		return nil, err
	}
	top := board.Top(stats.LeaderboardSize)
	for i := range top {
		name, err := s.profiles.Username(ctx, top[i].PlayerID)
		if err != nil {
			name = "Anonymous"
		}
		top[i].Username = name
	}
	return top, nil
}

// Stats returns the player's aggregate record; the zero value when the
// player has never finished a game.
func (s *Service) Stats(ctx context.Context, playerID string) (stats.PlayerStats, error) {
	raw, err := s.store.Get(ctx, statsKey(playerID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return stats.PlayerStats{}, nil
		}
		return stats.PlayerStats{}, fmt.Errorf("load stats: %w", err)
	}
	var st stats.PlayerStats
	if err := json.Unmarshal(raw, &st); err != nil {
		return stats.PlayerStats{}, fmt.Errorf("decode stats: %w", err)
	}
	return st, nil
}

// EnsureStats initializes a zero stats record for a new player so
// first reads never 404. Existing records are left alone.
func (s *Service) EnsureStats(ctx context.Context, playerID string) error {
	raw, err := json.Marshal(stats.PlayerStats{})
	if err != nil {
		return err
	}
	if _, err := s.store.SetNX(ctx, statsKey(playerID), raw); err != nil {
		return fmt.Errorf("init stats: %w", err)
	}
	return nil
}

func snapshot(date string, sess *puzzle.Session) View {
	history := make([]puzzle.Attempt, len(sess.History))
	copy(history, sess.History)
	return View{
		Date:         date,
		Scrambled:    append([]int(nil), sess.Scrambled...),
		Buffer:       sess.Buffer.Values(),
		Locked:       sess.Buffer.Locked(),
		History:      history,
		AttemptsUsed: sess.AttemptsUsed,
		MaxAttempts:  sess.MaxAttempts,
		State:        sess.State,
	}
}
