// internal/identity/identity.go
//
// Account management for the unshuffle server.
// Responsibilities:
//   - Signup/login with bcrypt-hashed passwords.
//   - Issuing and verifying HS256 JWTs (claims: id, username, exp, iat).
//   - Resolving player IDs to display names for the leaderboard.
//
// Storage layout (all values JSON in the kv store):
//   - user:{id}           profile (username, password hash, created at)
//   - user_by_name:{name} lowercase username -> player ID claim
//
// The username claim is written with SetNX, so two concurrent signups
// for the same name cannot both succeed.

package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kkolster/unshuffle-server/internal/kv"
)

var (
	// ErrUsernameTaken rejects a signup for a name already claimed.
	ErrUsernameTaken = errors.New("username taken")
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords, so login failures don't leak which was which.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken rejects missing, expired, or malformed JWTs.
	ErrInvalidToken = errors.New("invalid token")
)

// User is the public view of an account.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// profile is the stored account record, password hash included.
type profile struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (p profile) user() *User {
	return &User{ID: p.ID, Username: p.Username, CreatedAt: p.CreatedAt}
}

// Provider implements account operations over a kv store.
type Provider struct {
	store   kv.Store
	secret  []byte
	expires time.Duration
}

// NewProvider constructs a Provider. expiresDays bounds token lifetime.
func NewProvider(store kv.Store, secret string, expiresDays int) *Provider {
	if expiresDays <= 0 {
		expiresDays = 14
	}
	return &Provider{
		store:   store,
		secret:  []byte(secret),
		expires: time.Duration(expiresDays) * 24 * time.Hour,
	}
}

func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8-100 chars")
	}
	return nil
}

func userKey(id string) string       { return "user:" + id }
func usernameKey(name string) string { return "user_by_name:" + strings.ToLower(name) }

// Signup creates an account and returns it with a signed token.
func (p *Provider) Signup(ctx context.Context, username, password string) (*User, string, time.Time, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, password); err != nil {
		return nil, "", time.Time{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	prof := profile{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	raw, err := json.Marshal(prof)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if err := p.store.Set(ctx, userKey(prof.ID), raw); err != nil {
		return nil, "", time.Time{}, fmt.Errorf("store profile: %w", err)
	}

	// Claim the name last; the claim is the uniqueness gate. A lost or
	// failed claim leaves at most an unreachable profile record behind,
	// never a claimed name without an account.
	ok, err := p.store.SetNX(ctx, usernameKey(username), []byte(prof.ID))
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("claim username: %w", err)
	}
	if !ok {
		return nil, "", time.Time{}, ErrUsernameTaken
	}

	token, exp, err := p.sign(prof.ID, prof.Username)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return prof.user(), token, exp, nil
}

// Login verifies credentials and returns the account with a fresh token.
func (p *Provider) Login(ctx context.Context, username, password string) (*User, string, time.Time, error) {
	username = normalizeUsername(username)

	idRaw, err := p.store.Get(ctx, usernameKey(username))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, "", time.Time{}, ErrInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}

	prof, err := p.load(ctx, string(idRaw))
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(prof.PasswordHash), []byte(password)) != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, exp, err := p.sign(prof.ID, prof.Username)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return prof.user(), token, exp, nil
}

// Verify parses and validates a token, then confirms the account still
// exists. Returns the authenticated user.
func (p *Provider) Verify(ctx context.Context, tokenStr string) (*User, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" {
		return nil, ErrInvalidToken
	}
	// Ensure the account still exists.
	prof, err := p.load(ctx, id)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return prof.user(), nil
}

// Username resolves a player ID to its display name.
// Returns kv.ErrNotFound for unknown IDs.
func (p *Provider) Username(ctx context.Context, id string) (string, error) {
	prof, err := p.load(ctx, id)
	if err != nil {
		return "", err
	}
	return prof.Username, nil
}

func (p *Provider) load(ctx context.Context, id string) (*profile, error) {
	raw, err := p.store.Get(ctx, userKey(id))
	if err != nil {
		return nil, err
	}
	var prof profile
	if err := json.Unmarshal(raw, &prof); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", id, err)
	}
	return &prof, nil
}

func (p *Provider) sign(id, username string) (string, time.Time, error) {
	exp := time.Now().Add(p.expires)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, err := token.SignedString(p.secret)
	return ss, exp, err
}
