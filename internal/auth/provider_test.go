package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gravadigital/eventmaster-api/internal/config"
	"github.com/gravadigital/eventmaster-api/internal/domain/common"
	"github.com/gravadigital/eventmaster-api/internal/storage/memory"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.Issuer = "eventmaster-test"
	cfg.Auth.TokenTTL = time.Hour

	p := NewProvider(memory.NewContainer(), cfg)
	p.SetHashCost(bcrypt.MinCost)
	return p
}

func TestSignUpSignInCurrentUser(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	up, err := p.SignUp(ctx, "Ana@Example.com", "secret1", "Ana")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", up.User.Email)
	assert.NotEmpty(t, up.Token)

	in, err := p.SignIn(ctx, "ANA@example.com", "secret1")
	require.NoError(t, err)

	user, err := p.CurrentUser(ctx, in.Token)
	require.NoError(t, err)
	assert.Equal(t, up.User.ID, user.ID)
	assert.Equal(t, "Ana", user.Label())
}

func TestSignUp_Validation(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	_, err := p.SignUp(ctx, "not-an-email", "secret1", "x")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = p.SignUp(ctx, "a@b.co", "123", "x")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	_, err := p.SignUp(ctx, "dup@example.com", "secret1", "")
	require.NoError(t, err)
	_, err = p.SignUp(ctx, "DUP@example.com", "secret2", "")
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestSignIn_WrongPassword(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	_, err := p.SignUp(ctx, "bob@example.com", "secret1", "Bob")
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "bob@example.com", "nope-nope")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = p.SignIn(ctx, "ghost@example.com", "secret1")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestSignOut_RevokesToken(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	s, err := p.SignUp(ctx, "c@example.com", "secret1", "C")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, s.Token))

	_, err = p.CurrentUser(ctx, s.Token)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestCurrentUser_RejectsForeignTokens(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	other := newTestProvider(t)
	other.secret = []byte("another-secret")

	s, err := other.SignUp(ctx, "d@example.com", "secret1", "D")
	require.NoError(t, err)

	_, err = p.CurrentUser(ctx, s.Token)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = p.CurrentUser(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = p.CurrentUser(ctx, "")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestOnAuthChange(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	var kinds []ChangeKind
	unsubscribe := p.OnAuthChange(func(c Change) {
		kinds = append(kinds, c.Kind)
	})

	s, err := p.SignUp(ctx, "e@example.com", "secret1", "E")
	require.NoError(t, err)
	_, err = p.SignIn(ctx, "e@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx, s.Token))

	unsubscribe()
	unsubscribe()
	_, err = p.SignIn(ctx, "e@example.com", "secret1")
	require.NoError(t, err)

	assert.Equal(t, []ChangeKind{SignedUp, SignedIn, SignedOut}, kinds)
}
