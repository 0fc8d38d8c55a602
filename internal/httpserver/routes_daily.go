// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily game.
//   - POST /daily/start   → start (or resume) today's session
//   - POST /daily/add     → place the next value in the attempt
//   - POST /daily/remove  → remove the newest unlocked value
//   - POST /daily/submit  → score the attempt; share text on finish
//   - GET  /daily/session → today's state (already-played probe)
//   - GET  /leaderboard   → public top 100
//   - GET  /stats/me      → the caller's aggregate stats
//   - GET  /profile       → account + stats in one response
//
// Each player gets one game per day; the session lives in memory while
// in progress and is persisted exactly once when it finishes.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/kkolster/unshuffle-server/internal/puzzle"
	"github.com/kkolster/unshuffle-server/internal/service"
	"github.com/kkolster/unshuffle-server/internal/stats"
)

// mountGameRoutes registers the game surface. Everything except the
// leaderboard requires auth.
func (s *Server) mountGameRoutes() {
	s.r.Route("/daily", func(r chi.Router) {
		r.Use(s.requireAuth())
		r.Post("/start", s.handleStart)
		r.Post("/add", s.handleAdd)
		r.Post("/remove", s.handleRemove)
		r.Post("/submit", s.handleSubmit)
		r.Get("/session", s.handleTodaySession)
	})

	s.r.Get("/leaderboard", s.handleLeaderboard)
	s.r.With(s.requireAuth()).Get("/stats/me", s.handleMyStats)
	s.r.With(s.requireAuth()).Get("/profile", s.handleProfile)
}

// writeServiceErr maps service/puzzle errors onto status codes.
// Anything unrecognized is treated as a store failure and reported 503
// so clients know a retry may succeed.
func writeServiceErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, puzzle.ErrIncompleteAttempt):
		http.Error(w, `{"error":"incomplete_attempt"}`, http.StatusUnprocessableEntity)
	case errors.Is(err, puzzle.ErrSessionComplete):
		http.Error(w, `{"error":"session_complete"}`, http.StatusConflict)
	case errors.Is(err, service.ErrAlreadyPlayed):
		http.Error(w, `{"error":"already_played"}`, http.StatusConflict)
	case errors.Is(err, service.ErrNoSession):
		http.Error(w, `{"error":"no_session"}`, http.StatusConflict)
	default:
		log.Error().Err(err).Msg("store failure")
		http.Error(w, `{"error":"store_unavailable"}`, http.StatusServiceUnavailable)
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	view, err := s.svc.StartSession(r.Context(), me.ID)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, view)
}

type addReq struct {
	Value int `json:"value"`
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var body addReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	me := currentUser(r)
	view, err := s.svc.AddValue(r.Context(), me.ID, body.Value)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	view, err := s.svc.RemoveLast(r.Context(), me.ID)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	res, err := s.svc.SubmitAttempt(r.Context(), me.ID)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, res)
}

// handleTodaySession answers the "have I played today" probe.
// 200 with the session when one is active, 409 already_played after a
// finished game, 409 no_session before the first start.
func (s *Server) handleTodaySession(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	view, err := s.svc.TodaySession(r.Context(), me.ID)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := s.svc.Leaderboard(r.Context())
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	// Empty board still serializes as [].
	if board == nil {
		board = stats.Leaderboard{}
	}
	writeJSON(w, board)
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	st, err := s.svc.Stats(r.Context(), me.ID)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, st)
}

// handleProfile returns the account and its stats in one payload.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	st, err := s.svc.Stats(r.Context(), me.ID)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"user":  me,
		"stats": st,
	})
}
