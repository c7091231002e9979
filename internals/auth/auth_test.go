package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfoligo/api-server/db/dbtest"
	"github.com/portfoligo/api-server/pkg/kvstore"
)

func newService(t *testing.T, ttl time.Duration) *AuthService {
	t.Helper()
	return New(kvstore.NewMemory(), dbtest.New(t, &Users{}), "test-secret", ttl)
}

func TestSignUp(t *testing.T) {
	a := newService(t, time.Hour)
	ctx := context.Background()

	user, err := a.SignUp(ctx, SignUpRequestBody{UserName: "ada", MailID: "Ada@Example.com", Password: "hunter2"})
	require.NoError(t, err)
	assert.NotZero(t, user.UserID)
	assert.Equal(t, "ada@example.com", user.MailID)
	assert.NotEqual(t, "hunter2", user.Password)
	assert.Equal(t, defaultProfilePic, user.ProfilePic)

	_, err = a.SignUp(ctx, SignUpRequestBody{UserName: "ada", MailID: "other@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrUserExists)
	_, err = a.SignUp(ctx, SignUpRequestBody{UserName: "bob", MailID: "ada@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrUserExists)
	_, err = a.SignUp(ctx, SignUpRequestBody{UserName: "bob", MailID: "bob@example.com"})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestLoginLogout(t *testing.T) {
	a := newService(t, time.Hour)
	ctx := context.Background()
	user, err := a.SignUp(ctx, SignUpRequestBody{UserName: "ada", MailID: "ada@example.com", Password: "hunter2"})
	require.NoError(t, err)

	_, err = a.Login(ctx, LoginRequestBody{UserName: "ada", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Login(ctx, LoginRequestBody{UserName: "nobody", Password: "hunter2"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, err := a.Login(ctx, LoginRequestBody{UserName: "ada", Password: "hunter2"})
	require.NoError(t, err)

	userID, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, userID)
	assert.True(t, a.CheckIfTokenIsWhiteListed(userID, token))

	require.NoError(t, a.Logout(userID, token))
	assert.False(t, a.CheckIfTokenIsWhiteListed(userID, token))
}

func TestValidateToken_Rejects(t *testing.T) {
	a := newService(t, time.Hour)

	other := New(kvstore.NewMemory(), a.DB, "other-secret", time.Hour)
	forged, err := other.GenerateToken(1)
	require.NoError(t, err)
	_, err = a.ValidateToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := New(kvstore.NewMemory(), a.DB, "test-secret", -time.Minute)
	stale, err := expired.GenerateToken(1)
	require.NoError(t, err)
	_, err = a.ValidateToken(stale)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
