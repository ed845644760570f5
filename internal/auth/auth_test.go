package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	jwtlib "account_service/internal/lib/jwt"
	"account_service/internal/lib/resettoken"
	"account_service/internal/models"
	"account_service/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "test-secret"
	testTokenTTL = time.Hour
	testResetTTL = 10 * time.Minute
)

type fakeNotifier struct {
	fail bool
	sent []models.Message
}

func (f *fakeNotifier) SendMessage(_ context.Context, msg models.Message) error {
	if f.fail {
		return errors.New("broker unavailable")
	}

	f.sent = append(f.sent, msg)

	return nil
}

func newTestAuth(t *testing.T) (*Auth, *memory.MemoryRepo, *fakeNotifier) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	notifier := &fakeNotifier{}

	return New(log, store, store, notifier, testSecret, testTokenTTL, testResetTTL), store, notifier
}

func TestSignupAndLogin(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t)
	ctx := context.Background()

	token, err := a.Signup(ctx, "gopher", "Gopher@Example.com", "password123", "")
	require.NoError(t, err)

	claims, err := jwtlib.ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.AccountID)

	// email was normalized on signup
	loginToken, err := a.Login(ctx, "gopher@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, loginToken)

	_, err = a.Login(ctx, "gopher@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = a.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestSignupDuplicateEmail(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := a.Signup(ctx, "gopher", "gopher@example.com", "password123", "")
	require.NoError(t, err)

	_, err = a.Signup(ctx, "gopher2", "gopher@example.com", "password456", "")
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestSignupUnknownRole(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t)

	_, err := a.Signup(context.Background(), "gopher", "gopher@example.com", "password123", "root")

	var coreErr *Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, KindValidation, coreErr.Kind)
}

func TestSignupDefaultRole(t *testing.T) {
	t.Parallel()

	a, store, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := a.Signup(ctx, "gopher", "gopher@example.com", "password123", "")
	require.NoError(t, err)

	account, err := store.AccountByEmail(ctx, "gopher@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, account.Role)
	assert.Nil(t, account.PasswordChangedAt)
	assert.NotEqual(t, "password123", string(account.PassHash))
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t)

	err := a.ForgotPassword(context.Background(), "nobody@example.com", "http://localhost:8080")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestForgotPassword_StoresHashNotPlaintext(t *testing.T) {
	t.Parallel()

	a, store, notifier := newTestAuth(t)
	ctx := context.Background()

	_, err := a.Signup(ctx, "gopher", "gopher@example.com", "password123", "")
	require.NoError(t, err)

	before := time.Now()
	require.NoError(t, a.ForgotPassword(ctx, "gopher@example.com", "http://localhost:8080"))

	require.Len(t, notifier.sent, 1)
	plaintext := tokenFromMessage(t, notifier.sent[0])

	account, err := store.AccountByEmail(ctx, "gopher@example.com")
	require.NoError(t, err)
	require.NotNil(t, account.ResetTokenHash)
	require.NotNil(t, account.ResetTokenExpiresAt)

	assert.NotEqual(t, plaintext, *account.ResetTokenHash)
	assert.Equal(t, resettoken.Hash(plaintext), *account.ResetTokenHash)

	ttl := account.ResetTokenExpiresAt.Sub(before)
	assert.Greater(t, ttl, 9*time.Minute)
	assert.LessOrEqual(t, ttl, 10*time.Minute+time.Minute)
}

func TestForgotPassword_DeliveryFailureRollsBack(t *testing.T) {
	t.Parallel()

	a, store, notifier := newTestAuth(t)
	ctx := context.Background()
	notifier.fail = true

	_, err := a.Signup(ctx, "gopher", "gopher@example.com", "password123", "")
	require.NoError(t, err)

	err = a.ForgotPassword(ctx, "gopher@example.com", "http://localhost:8080")
	assert.ErrorIs(t, err, ErrDeliveryFailed)

	account, err := store.AccountByEmail(ctx, "gopher@example.com")
	require.NoError(t, err)
	assert.Nil(t, account.ResetTokenHash, "undelivered token must not persist")
	assert.Nil(t, account.ResetTokenExpiresAt)
}

func TestResetPassword_SingleUse(t *testing.T) {
	t.Parallel()

	a, _, notifier := newTestAuth(t)
	ctx := context.Background()

	_, err := a.Signup(ctx, "gopher", "gopher@example.com", "password123", "")
	require.NoError(t, err)
	require.NoError(t, a.ForgotPassword(ctx, "gopher@example.com", "http://localhost:8080"))

	plaintext := tokenFromMessage(t, notifier.sent[0])

	token, err := a.ResetPassword(ctx, plaintext, "new-password-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = a.Login(ctx, "gopher@example.com", "new-password-1")
	require.NoError(t, err)
	_, err = a.Login(ctx, "gopher@example.com", "password123")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = a.ResetPassword(ctx, plaintext, "new-password-2")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetPassword_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	a, store, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := a.Signup(ctx, "gopher", "gopher@example.com", "password123", "")
	require.NoError(t, err)

	account, err := store.AccountByEmail(ctx, "gopher@example.com")
	require.NoError(t, err)

	plaintext, hash, err := resettoken.New()
	require.NoError(t, err)

	// already expired
	require.NoError(t, store.SetResetToken(ctx, account.ID, hash, time.Now().Add(-time.Second)))
	_, err = a.ResetPassword(ctx, plaintext, "new-password-1")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	// still valid
	require.NoError(t, store.SetResetToken(ctx, account.ID, hash, time.Now().Add(30*time.Second)))
	_, err = a.ResetPassword(ctx, plaintext, "new-password-1")
	require.NoError(t, err)
}

func TestResetPassword_UnknownToken(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t)

	_, err := a.ResetPassword(context.Background(), "deadbeef", "new-password-1")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestUpdatePassword(t *testing.T) {
	t.Parallel()

	a, store, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := a.Signup(ctx, "gopher", "gopher@example.com", "password123", "")
	require.NoError(t, err)

	_, err = a.UpdatePassword(ctx, 1, "wrong current", "new-password-1")
	assert.ErrorIs(t, err, ErrBadCredentials)

	token, err := a.UpdatePassword(ctx, 1, "password123", "new-password-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = a.Login(ctx, "gopher@example.com", "password123")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = a.Login(ctx, "gopher@example.com", "new-password-1")
	require.NoError(t, err)

	account, err := store.AccountByID(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, account.PasswordChangedAt)
}

func tokenFromMessage(t *testing.T, msg models.Message) string {
	t.Helper()

	_, after, found := strings.Cut(msg.Body, "/reset-password/")
	require.True(t, found, "reset link missing from message body")

	plaintext, _, _ := strings.Cut(after, "\n")

	return plaintext
}
