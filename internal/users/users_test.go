package users

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"account_service/internal/auth"
	"account_service/internal/models"
	"account_service/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUsers(t *testing.T) (*Users, *memory.MemoryRepo) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()

	return New(log, store, store), store
}

func TestCreateAndGet(t *testing.T) {
	t.Parallel()

	u, _ := newTestUsers(t)
	ctx := context.Background()

	created, err := u.Create(ctx, "gopher", "Gopher@Example.com", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, "gopher@example.com", created.Email)
	assert.Equal(t, models.RoleUser, created.Role)

	got, err := u.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = u.Get(ctx, 99)
	assert.ErrorIs(t, err, auth.ErrAccountNotFound)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	t.Parallel()

	u, _ := newTestUsers(t)
	ctx := context.Background()

	_, err := u.Create(ctx, "gopher", "gopher@example.com", "password123", "")
	require.NoError(t, err)

	_, err = u.Create(ctx, "gopher2", "gopher@example.com", "password123", "")
	assert.ErrorIs(t, err, auth.ErrAccountExists)
}

func TestList(t *testing.T) {
	t.Parallel()

	u, _ := newTestUsers(t)
	ctx := context.Background()

	_, err := u.Create(ctx, "gopher", "a@example.com", "password123", "")
	require.NoError(t, err)
	_, err = u.Create(ctx, "gopher2", "b@example.com", "password123", models.RoleAdmin)
	require.NoError(t, err)

	accounts, err := u.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "a@example.com", accounts[0].Email)
	assert.Equal(t, "b@example.com", accounts[1].Email)
}

func TestUpdate_DoesNotTouchPassword(t *testing.T) {
	t.Parallel()

	u, store := newTestUsers(t)
	ctx := context.Background()

	created, err := u.Create(ctx, "gopher", "gopher@example.com", "password123", "")
	require.NoError(t, err)

	before, err := store.AccountByID(ctx, created.ID)
	require.NoError(t, err)

	updated, err := u.Update(ctx, created.ID, "renamed-gopher", "renamed@example.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "renamed-gopher", updated.Name)
	assert.Equal(t, "renamed@example.com", updated.Email)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	after, err := store.AccountByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, before.PassHash, after.PassHash, "update must not recompute the password hash")
	assert.Nil(t, after.PasswordChangedAt)
}

func TestUpdate_Errors(t *testing.T) {
	t.Parallel()

	u, _ := newTestUsers(t)
	ctx := context.Background()

	_, err := u.Update(ctx, 99, "gopher", "gopher@example.com", models.RoleUser)
	assert.ErrorIs(t, err, auth.ErrAccountNotFound)

	created, err := u.Create(ctx, "gopher", "gopher@example.com", "password123", "")
	require.NoError(t, err)

	_, err = u.Update(ctx, created.ID, "gopher", "gopher@example.com", "root")
	var coreErr *auth.Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, auth.KindValidation, coreErr.Kind)

	other, err := u.Create(ctx, "gopher2", "other@example.com", "password123", "")
	require.NoError(t, err)

	_, err = u.Update(ctx, other.ID, "gopher2", "gopher@example.com", models.RoleUser)
	assert.ErrorIs(t, err, auth.ErrAccountExists)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	u, _ := newTestUsers(t)
	ctx := context.Background()

	created, err := u.Create(ctx, "gopher", "gopher@example.com", "password123", "")
	require.NoError(t, err)

	require.NoError(t, u.Delete(ctx, created.ID))

	_, err = u.Get(ctx, created.ID)
	assert.ErrorIs(t, err, auth.ErrAccountNotFound)

	assert.ErrorIs(t, u.Delete(ctx, created.ID), auth.ErrAccountNotFound)
}
