package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	jwtlib "account_service/internal/lib/jwt"
	sl "account_service/internal/lib/logger"
	"account_service/internal/models"
	"account_service/internal/storage"
)

// Authorize walks a bearer token through the full admission chain:
// token present -> signature and expiry valid -> account still exists ->
// password unchanged since issuance. The staleness check is the only
// revocation mechanism; there is no token registry.
func (a *Auth) Authorize(ctx context.Context, token string) (models.Account, error) {
	const op = "auth.Authorize"

	log := a.log.With(slog.String("op", op))

	if token == "" {
		return models.Account{}, ErrNotLoggedIn
	}

	claims, err := jwtlib.ParseToken(token, a.secret)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return models.Account{}, ErrTokenExpired
		}

		return models.Account{}, ErrInvalidToken
	}

	account, err := a.accProvider.AccountByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			// account deleted after the token was issued
			log.Warn("token subject no longer exists", slog.Int64("id", claims.AccountID))
			return models.Account{}, ErrStaleAccount
		}

		log.Error("failed to get account", sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	if account.PasswordChangedAfter(claims.IssuedAt) {
		log.Warn("token issued before password change", slog.Int64("id", account.ID))
		return models.Account{}, ErrPasswordChanged
	}

	return account, nil
}

// RequireRole checks role membership for an already-admitted account.
// It deliberately knows nothing about HTTP; the middleware wraps it.
func RequireRole(account models.Account, roles ...models.Role) error {
	for _, role := range roles {
		if account.Role == role {
			return nil
		}
	}

	return ErrForbidden
}
