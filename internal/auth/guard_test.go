package auth

import (
	"context"
	"testing"
	"time"

	jwtlib "account_service/internal/lib/jwt"
	"account_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize_NoToken(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t)

	_, err := a.Authorize(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestAuthorize_MalformedToken(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t)

	_, err := a.Authorize(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthorize_WrongSecret(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t)

	token, err := jwtlib.NewToken(1, "other-secret", time.Hour)
	require.NoError(t, err)

	_, err = a.Authorize(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthorize_ExpiredToken(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := a.Signup(ctx, "gopher", "gopher@example.com", "password123", "")
	require.NoError(t, err)

	token, err := jwtlib.NewToken(1, testSecret, -time.Second)
	require.NoError(t, err)

	_, err = a.Authorize(ctx, token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAuthorize_DeletedAccount(t *testing.T) {
	t.Parallel()

	a, store, _ := newTestAuth(t)
	ctx := context.Background()

	token, err := a.Signup(ctx, "gopher", "gopher@example.com", "password123", "")
	require.NoError(t, err)

	require.NoError(t, store.DeleteAccount(ctx, 1))

	_, err = a.Authorize(ctx, token)
	assert.ErrorIs(t, err, ErrStaleAccount)
}

func TestAuthorize_PasswordChangedAfterIssuance(t *testing.T) {
	t.Parallel()

	a, store, _ := newTestAuth(t)
	ctx := context.Background()

	token, err := a.Signup(ctx, "gopher", "gopher@example.com", "password123", "")
	require.NoError(t, err)

	// a change strictly after the token's iat second invalidates the session
	changedAt := time.Now().Add(2 * time.Second)
	require.NoError(t, store.UpdatePassword(ctx, 1, []byte("new hash"), changedAt))

	_, err = a.Authorize(ctx, token)
	assert.ErrorIs(t, err, ErrPasswordChanged)
}

func TestAuthorize_Success(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t)
	ctx := context.Background()

	token, err := a.Signup(ctx, "gopher", "gopher@example.com", "password123", "admin")
	require.NoError(t, err)

	account, err := a.Authorize(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), account.ID)
	assert.Equal(t, "gopher@example.com", account.Email)
	assert.Equal(t, models.RoleAdmin, account.Role)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	user := models.Account{ID: 1, Role: models.RoleUser}
	admin := models.Account{ID: 2, Role: models.RoleAdmin}

	assert.ErrorIs(t, RequireRole(user, models.RoleAdmin), ErrForbidden)
	assert.NoError(t, RequireRole(admin, models.RoleAdmin))
	assert.NoError(t, RequireRole(user, models.RoleAdmin, models.RoleUser))
	assert.ErrorIs(t, RequireRole(models.Account{}, models.RoleUser), ErrForbidden)
}
