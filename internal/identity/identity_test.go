package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkolster/unshuffle-server/internal/identity"
	"github.com/kkolster/unshuffle-server/internal/kv"
)

func newProvider() *identity.Provider {
	return identity.NewProvider(kv.NewMemoryStore(), "test-secret", 14)
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	p := newProvider()

	u, token, exp, err := p.Signup(ctx, "ada_l", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada_l", u.Username)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())

	u2, token2, _, err := p.Login(ctx, "ada_l", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, u2.ID)
	assert.NotEmpty(t, token2)
}

func TestSignupValidation(t *testing.T) {
	ctx := context.Background()
	p := newProvider()

	cases := map[string]struct{ user, pass string }{
		"short username": {"ab", "long enough pw"},
		"bad characters": {"ada lovelace", "long enough pw"},
		"short password": {"ada_l", "short"},
		"long username":  {"a_very_long_username_over_24", "long enough pw"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := p.Signup(ctx, c.user, c.pass)
			assert.Error(t, err)
		})
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	p := newProvider()

	_, _, _, err := p.Signup(ctx, "grace", "password123")
	require.NoError(t, err)

	// Same name, different case: still taken.
	_, _, _, err = p.Signup(ctx, "GRACE", "password456")
	assert.ErrorIs(t, err, identity.ErrUsernameTaken)
}

// failingSetStore rejects profile writes while down.
type failingSetStore struct {
	kv.Store
	down bool
}

func (f *failingSetStore) Set(ctx context.Context, key string, value []byte) error {
	if f.down {
		return errors.New("store unavailable")
	}
	return f.Store.Set(ctx, key, value)
}

func TestSignupFailedProfileWriteLeavesNameFree(t *testing.T) {
	ctx := context.Background()
	store := &failingSetStore{Store: kv.NewMemoryStore(), down: true}
	p := identity.NewProvider(store, "test-secret", 14)

	_, _, _, err := p.Signup(ctx, "grace", "password123")
	require.Error(t, err)

	// The name was never claimed, so the signup can be retried.
	store.down = false
	u, _, _, err := p.Signup(ctx, "grace", "password123")
	require.NoError(t, err)
	assert.Equal(t, "grace", u.Username)

	_, _, _, err = p.Login(ctx, "grace", "password123")
	assert.NoError(t, err)
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	p := newProvider()

	_, _, _, err := p.Signup(ctx, "grace", "password123")
	require.NoError(t, err)

	_, _, _, err = p.Login(ctx, "grace", "wrong password")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	_, _, _, err = p.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	p := newProvider()

	u, token, _, err := p.Signup(ctx, "grace", "password123")
	require.NoError(t, err)

	got, err := p.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "grace", got.Username)

	_, err = p.Verify(ctx, "")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	_, err = p.Verify(ctx, "not.a.token")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	ctx := context.Background()
	other := identity.NewProvider(kv.NewMemoryStore(), "other-secret", 14)
	_, token, _, err := other.Signup(ctx, "grace", "password123")
	require.NoError(t, err)

	p := newProvider()
	_, err = p.Verify(ctx, token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestUsernameLookup(t *testing.T) {
	ctx := context.Background()
	p := newProvider()

	u, _, _, err := p.Signup(ctx, "grace", "password123")
	require.NoError(t, err)

	name, err := p.Username(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "grace", name)

	_, err = p.Username(ctx, "missing-id")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}
