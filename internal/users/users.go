package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"account_service/internal/auth"
	sl "account_service/internal/lib/logger"
	"account_service/internal/lib/password"
	"account_service/internal/models"
	"account_service/internal/storage"
)

// Users is the account CRUD service. Password changes never go through here;
// the password hash is only recomputed when the password itself is the field
// being modified, and that path lives in the auth service.
type Users struct {
	log         *slog.Logger
	accProvider AccountProvider
	accManager  AccountManager
}

type AccountProvider interface {
	Accounts(ctx context.Context) ([]models.Account, error)
	AccountByID(ctx context.Context, id int64) (models.Account, error)
}

type AccountManager interface {
	SaveAccount(ctx context.Context, name, email string, role models.Role, passHash []byte) (int64, error)
	UpdateAccount(ctx context.Context, id int64, name, email string, role models.Role) (models.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
}

func New(log *slog.Logger, accountProvider AccountProvider, accountManager AccountManager) *Users {
	return &Users{
		log:         log,
		accProvider: accountProvider,
		accManager:  accountManager,
	}
}

func (u *Users) List(ctx context.Context) ([]models.Account, error) {
	const op = "users.List"

	accounts, err := u.accProvider.Accounts(ctx)
	if err != nil {
		u.log.With(slog.String("op", op)).Error("failed to list accounts", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return accounts, nil
}

func (u *Users) Get(ctx context.Context, id int64) (models.Account, error) {
	const op = "users.Get"

	account, err := u.accProvider.AccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return models.Account{}, auth.ErrAccountNotFound
		}

		u.log.With(slog.String("op", op)).Error("failed to get account", sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

func (u *Users) Create(ctx context.Context, name, email, pass string, role models.Role) (models.Account, error) {
	const op = "users.Create"

	log := u.log.With(slog.String("op", op))

	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return models.Account{}, &auth.Error{Kind: auth.KindValidation, Message: "unknown role"}
	}

	passHash, err := password.Hash(pass)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := u.accManager.SaveAccount(ctx, name, auth.NormalizeEmail(email), role, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrAccountExists) {
			return models.Account{}, auth.ErrAccountExists
		}

		log.Error("failed to save account", sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("account created", slog.Int64("id", id))

	return u.Get(ctx, id)
}

func (u *Users) Update(ctx context.Context, id int64, name, email string, role models.Role) (models.Account, error) {
	const op = "users.Update"

	log := u.log.With(slog.String("op", op))

	if !role.Valid() {
		return models.Account{}, &auth.Error{Kind: auth.KindValidation, Message: "unknown role"}
	}

	account, err := u.accManager.UpdateAccount(ctx, id, name, auth.NormalizeEmail(email), role)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return models.Account{}, auth.ErrAccountNotFound
		}
		if errors.Is(err, storage.ErrAccountExists) {
			return models.Account{}, auth.ErrAccountExists
		}

		log.Error("failed to update account", sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("account updated", slog.Int64("id", id))

	return account, nil
}

func (u *Users) Delete(ctx context.Context, id int64) error {
	const op = "users.Delete"

	log := u.log.With(slog.String("op", op))

	if err := u.accManager.DeleteAccount(ctx, id); err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return auth.ErrAccountNotFound
		}

		log.Error("failed to delete account", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("account deleted", slog.Int64("id", id))

	return nil
}
