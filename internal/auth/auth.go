package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jwtlib "account_service/internal/lib/jwt"
	sl "account_service/internal/lib/logger"
	"account_service/internal/lib/password"
	"account_service/internal/lib/resettoken"
	"account_service/internal/models"
	"account_service/internal/storage"
)

type Auth struct {
	log         *slog.Logger
	accSaver    AccountSaver
	accProvider AccountProvider
	notifier    Notifier
	secret      string
	tokenTTL    time.Duration
	resetTTL    time.Duration
}

type AccountSaver interface {
	SaveAccount(ctx context.Context, name, email string, role models.Role, passHash []byte) (int64, error)
	UpdatePassword(ctx context.Context, id int64, passHash []byte, changedAt time.Time) error

	SetResetToken(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id int64) error
	CompleteReset(ctx context.Context, id int64, tokenHash string, passHash []byte, changedAt time.Time) (bool, error)
}

type AccountProvider interface {
	AccountByEmail(ctx context.Context, email string) (models.Account, error)
	AccountByID(ctx context.Context, id int64) (models.Account, error)
	AccountByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (models.Account, error)
}

type Notifier interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

func New(
	log *slog.Logger,
	accountSaver AccountSaver,
	accountProvider AccountProvider,
	notifier Notifier,
	secret string,
	tokenTTL, resetTTL time.Duration,
) *Auth {
	return &Auth{
		log:         log,
		accSaver:    accountSaver,
		accProvider: accountProvider,
		notifier:    notifier,
		secret:      secret,
		tokenTTL:    tokenTTL,
		resetTTL:    resetTTL,
	}
}

// * Signup создает аккаунт и сразу выдает сессионный токен
func (a *Auth) Signup(
	ctx context.Context,
	name, email, pass string,
	role models.Role,
) (string, error) {
	const op = "auth.Signup"

	log := a.log.With(slog.String("op", op))

	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return "", &Error{Kind: KindValidation, Message: "unknown role"}
	}

	passHash, err := password.Hash(pass)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	id, err := a.accSaver.SaveAccount(ctx, name, NormalizeEmail(email), role, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrAccountExists) {
			log.Warn("account already exists")
			return "", ErrAccountExists
		}

		log.Error("failed to save account", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := jwtlib.NewToken(id, a.secret, a.tokenTTL)
	if err != nil {
		log.Error("failed to generate session token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("account registered", slog.Int64("id", id))

	return token, nil
}

// * Login проверяет учетные данные и возвращает сессионный токен
func (a *Auth) Login(ctx context.Context, email, pass string) (string, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	account, err := a.accProvider.AccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Warn("account not found")
			return "", ErrBadCredentials
		}

		log.Error("failed to get account", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !password.Compare(pass, account.PassHash) {
		log.Info("invalid credentials")
		return "", ErrBadCredentials
	}

	token, err := jwtlib.NewToken(account.ID, a.secret, a.tokenTTL)
	if err != nil {
		log.Error("failed to generate session token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("account logged in", slog.Int64("id", account.ID))

	return token, nil
}

// ForgotPassword issues a reset token and mails a reset link. If the mail
// cannot be published the stored token is rolled back so a valid but
// undelivered token never survives.
func (a *Auth) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	const op = "auth.ForgotPassword"

	log := a.log.With(slog.String("op", op))

	account, err := a.accProvider.AccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Warn("account not found")
			return ErrAccountNotFound
		}

		log.Error("failed to get account", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	plaintext, tokenHash, err := resettoken.New()
	if err != nil {
		log.Error("failed to generate reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	expiresAt := time.Now().Add(a.resetTTL)

	if err := a.accSaver.SetResetToken(ctx, account.ID, tokenHash, expiresAt); err != nil {
		log.Error("failed to store reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", resetURLBase, plaintext)

	msg := models.Message{
		Email:   account.Email,
		Subject: "Reset password token",
		Body: fmt.Sprintf(
			"Forgot your password? Send a PATCH request with your new password to: %s\nIf you didn't forget your password, simply ignore this message.",
			resetURL,
		),
	}

	if err := a.notifier.SendMessage(ctx, msg); err != nil {
		log.Error("failed to send reset email", sl.Err(err))

		if clearErr := a.accSaver.ClearResetToken(ctx, account.ID); clearErr != nil {
			log.Error("failed to roll back reset token", sl.Err(clearErr))
		}

		return ErrDeliveryFailed
	}

	log.Info("reset token issued", slog.Int64("id", account.ID))

	return nil
}

// ResetPassword consumes a reset token: the new password hash and the reset
// field cleanup go through one conditional update, so a token is usable
// exactly once even under concurrent attempts.
func (a *Auth) ResetPassword(ctx context.Context, plainToken, newPass string) (string, error) {
	const op = "auth.ResetPassword"

	log := a.log.With(slog.String("op", op))

	tokenHash := resettoken.Hash(plainToken)

	account, err := a.accProvider.AccountByResetTokenHash(ctx, tokenHash, time.Now())
	if err != nil {
		if errors.Is(err, storage.ErrResetTokenNotFound) {
			log.Warn("reset token invalid or expired")
			return "", ErrResetTokenInvalid
		}

		log.Error("failed to look up reset token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := password.Hash(newPass)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	ok, err := a.accSaver.CompleteReset(ctx, account.ID, tokenHash, passHash, time.Now())
	if err != nil {
		log.Error("failed to complete reset", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		// a concurrent reset won the conditional update
		log.Warn("reset token already consumed")
		return "", ErrResetTokenInvalid
	}

	token, err := jwtlib.NewToken(account.ID, a.secret, a.tokenTTL)
	if err != nil {
		log.Error("failed to generate session token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password reset", slog.Int64("id", account.ID))

	return token, nil
}

// * UpdatePassword меняет пароль уже аутентифицированного аккаунта
func (a *Auth) UpdatePassword(ctx context.Context, accountID int64, currentPass, newPass string) (string, error) {
	const op = "auth.UpdatePassword"

	log := a.log.With(slog.String("op", op))

	account, err := a.accProvider.AccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Warn("account not found")
			return "", ErrAccountNotFound
		}

		log.Error("failed to get account", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !password.Compare(currentPass, account.PassHash) {
		log.Info("wrong current password")
		return "", ErrBadCredentials
	}

	passHash, err := password.Hash(newPass)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := a.accSaver.UpdatePassword(ctx, account.ID, passHash, time.Now()); err != nil {
		log.Error("failed to update password", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := jwtlib.NewToken(account.ID, a.secret, a.tokenTTL)
	if err != nil {
		log.Error("failed to generate session token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password updated", slog.Int64("id", account.ID))

	return token, nil
}

// * NormalizeEmail приводит почту к каноническому виду
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
