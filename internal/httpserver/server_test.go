package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkolster/unshuffle-server/internal/config"
	"github.com/kkolster/unshuffle-server/internal/httpserver"
	"github.com/kkolster/unshuffle-server/internal/identity"
	"github.com/kkolster/unshuffle-server/internal/kv"
	"github.com/kkolster/unshuffle-server/internal/service"
)

func testConfig() config.Config {
	return config.Config{
		Addr:           ":0",
		LogLevel:       "error",
		ClientOrigin:   "http://localhost:5173",
		JWTSecret:      "test-secret",
		JWTExpiresDays: 14,
		CookieName:     "unshuffle_token",
		SegmentCount:   8,
		MaxAttempts:    6,
	}
}

// client keeps cookies across requests against an httptest server.
type client struct {
	t       *testing.T
	ts      *httptest.Server
	cookies []*http.Cookie
}

func newClient(t *testing.T) *client {
	t.Helper()
	store := kv.NewMemoryStore()
	cfg := testConfig()
	ident := identity.NewProvider(store, cfg.JWTSecret, cfg.JWTExpiresDays)
	svc := service.New(store, ident, nil, cfg.SegmentCount, cfg.MaxAttempts)
	srv := httpserver.New(cfg, svc, ident)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &client{t: t, ts: ts}
}

func (c *client) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.ts.URL+path, reader)
	require.NoError(c.t, err)
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()

	if set := res.Cookies(); len(set) > 0 {
		c.cookies = set
	}
	var buf bytes.Buffer
	_, err = buf.ReadFrom(res.Body)
	require.NoError(c.t, err)
	return res, buf.Bytes()
}

func (c *client) signup(username string) {
	c.t.Helper()
	res, _ := c.do(http.MethodPost, "/auth/signup", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(c.t, http.StatusOK, res.StatusCode)
}

type viewRes struct {
	Date      string `json:"date"`
	Scrambled []int  `json:"scrambled"`
	Buffer    []int  `json:"buffer"`
	State     string `json:"state"`
}

func answerOrder(scrambled []int) []int {
	order := make([]int, len(scrambled))
	for slot, segment := range scrambled {
		order[segment-1] = slot + 1
	}
	return order
}

func TestHealth(t *testing.T) {
	c := newClient(t)
	res, body := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestGameFlowOverHTTP(t *testing.T) {
	c := newClient(t)
	c.signup("ada_l")

	res, body := c.do(http.MethodPost, "/daily/start", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var view viewRes
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "in_progress", view.State)
	require.Len(t, view.Scrambled, 8)

	for _, v := range answerOrder(view.Scrambled) {
		res, _ = c.do(http.MethodPost, "/daily/add", map[string]int{"value": v})
		require.Equal(t, http.StatusOK, res.StatusCode)
	}

	res, body = c.do(http.MethodPost, "/daily/submit", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var submit struct {
		State     string `json:"state"`
		Attempts  int    `json:"attempts"`
		ShareText string `json:"shareText"`
		Stats     *struct {
			Wins int `json:"wins"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(body, &submit))
	assert.Equal(t, "won", submit.State)
	assert.Equal(t, 1, submit.Attempts)
	assert.Contains(t, submit.ShareText, "✅ 1/6")
	require.NotNil(t, submit.Stats)
	assert.Equal(t, 1, submit.Stats.Wins)

	// Finished for today: both start and the session probe say so.
	res, body = c.do(http.MethodPost, "/daily/start", nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Contains(t, string(body), "already_played")

	res, _ = c.do(http.MethodGet, "/daily/session", nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	// Public leaderboard carries the win.
	res, body = c.do(http.MethodGet, "/leaderboard", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var board []struct {
		Username string `json:"username"`
		Wins     int    `json:"wins"`
	}
	require.NoError(t, json.Unmarshal(body, &board))
	require.Len(t, board, 1)
	assert.Equal(t, "ada_l", board[0].Username)
	assert.Equal(t, 1, board[0].Wins)
}

func TestSubmitWithoutSession(t *testing.T) {
	c := newClient(t)
	c.signup("ada_l")

	res, body := c.do(http.MethodPost, "/daily/submit", nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Contains(t, string(body), "no_session")
}

func TestIncompleteSubmitIs422(t *testing.T) {
	c := newClient(t)
	c.signup("ada_l")

	res, _ := c.do(http.MethodPost, "/daily/start", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = c.do(http.MethodPost, "/daily/add", map[string]int{"value": 1})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body := c.do(http.MethodPost, "/daily/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, string(body), "incomplete_attempt")
}

func TestAuthRequired(t *testing.T) {
	c := newClient(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/daily/start"},
		{http.MethodPost, "/daily/submit"},
		{http.MethodGet, "/daily/session"},
		{http.MethodGet, "/stats/me"},
		{http.MethodGet, "/profile"},
		{http.MethodGet, "/auth/me"},
	} {
		res, _ := c.do(route.method, route.path, nil)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, "%s %s", route.method, route.path)
	}

	// The leaderboard is public.
	res, body := c.do(http.MethodGet, "/leaderboard", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestSignupLoginRoundTrip(t *testing.T) {
	c := newClient(t)
	c.signup("grace")

	res, body := c.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `"grace"`)

	res, _ = c.do(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	// Cookie is cleared; the gated route rejects us again.
	res, _ = c.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = c.do(http.MethodPost, "/auth/login", map[string]string{
		"username": "grace", "password": "password123",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = c.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestSignupDuplicateIs409(t *testing.T) {
	c := newClient(t)
	c.signup("grace")

	res, body := c.do(http.MethodPost, "/auth/signup", map[string]string{
		"username": "grace", "password": "password456",
	})
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Contains(t, string(body), "Username taken")
}

func TestProfile(t *testing.T) {
	c := newClient(t)
	c.signup("grace")

	res, body := c.do(http.MethodGet, "/profile", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var profile struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
		Stats struct {
			TotalGames int `json:"totalGames"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(body, &profile))
	assert.Equal(t, "grace", profile.User.Username)
	assert.Zero(t, profile.Stats.TotalGames)
}
