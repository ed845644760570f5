package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account_service/internal/config"
	"account_service/internal/models"
	"account_service/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	dsn := dsn(cfg)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	repo := &PostgresRepo{pool: pool}

	if err := repo.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return repo, nil
}

func (r *PostgresRepo) SaveAccount(ctx context.Context, name, email string, role models.Role, passHash []byte) (int64, error) {
	const op = "storage.postgres.SaveAccount"

	query := `
		INSERT INTO accounts (name, email, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`

	var id int64

	err := r.pool.QueryRow(ctx, query, name, email, string(role), string(passHash)).Scan(&id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == uniqueViolation {
			return 0, storage.ErrAccountExists
		}

		return 0, fmt.Errorf("%s: failed to save account: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) AccountByEmail(ctx context.Context, email string) (models.Account, error) {
	query := `
		SELECT id, name, email, role, password_hash, password_changed_at, reset_token_hash, reset_token_expires_at
		FROM accounts
		WHERE email = $1;
	`

	return r.scanAccount(r.pool.QueryRow(ctx, query, email), storage.ErrAccountNotFound)
}

func (r *PostgresRepo) AccountByID(ctx context.Context, id int64) (models.Account, error) {
	query := `
		SELECT id, name, email, role, password_hash, password_changed_at, reset_token_hash, reset_token_expires_at
		FROM accounts
		WHERE id = $1;
	`

	return r.scanAccount(r.pool.QueryRow(ctx, query, id), storage.ErrAccountNotFound)
}

// * AccountByResetTokenHash находит аккаунт по хэшу токена, срок которого еще не истек
func (r *PostgresRepo) AccountByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (models.Account, error) {
	query := `
		SELECT id, name, email, role, password_hash, password_changed_at, reset_token_hash, reset_token_expires_at
		FROM accounts
		WHERE reset_token_hash = $1 AND reset_token_expires_at > $2;
	`

	return r.scanAccount(r.pool.QueryRow(ctx, query, tokenHash, now), storage.ErrResetTokenNotFound)
}

func (r *PostgresRepo) Accounts(ctx context.Context) ([]models.Account, error) {
	const op = "storage.postgres.Accounts"

	query := `
		SELECT id, name, email, role, password_hash, password_changed_at, reset_token_hash, reset_token_expires_at
		FROM accounts
		ORDER BY id;
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var accounts []models.Account

	for rows.Next() {
		var a models.Account
		var passHash string

		err := rows.Scan(
			&a.ID,
			&a.Name,
			&a.Email,
			&a.Role,
			&passHash,
			&a.PasswordChangedAt,
			&a.ResetTokenHash,
			&a.ResetTokenExpiresAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		a.PassHash = []byte(passHash)
		accounts = append(accounts, a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return accounts, nil
}

func (r *PostgresRepo) UpdateAccount(ctx context.Context, id int64, name, email string, role models.Role) (models.Account, error) {
	const op = "storage.postgres.UpdateAccount"

	query := `
		UPDATE accounts
		SET name = $1, email = $2, role = $3
		WHERE id = $4
		RETURNING id, name, email, role, password_hash, password_changed_at, reset_token_hash, reset_token_expires_at;
	`

	account, err := r.scanAccount(r.pool.QueryRow(ctx, query, name, email, string(role), id), storage.ErrAccountNotFound)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.Account{}, storage.ErrAccountExists
		}
		if errors.Is(err, storage.ErrAccountNotFound) {
			return models.Account{}, err
		}

		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

func (r *PostgresRepo) DeleteAccount(ctx context.Context, id int64) error {
	const op = "storage.postgres.DeleteAccount"

	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrAccountNotFound
	}

	return nil
}

// UpdatePassword sets a new hash and moves password_changed_at forward. The
// reset fields are cleared as well so a pending reset token cannot outlive a
// direct password change.
func (r *PostgresRepo) UpdatePassword(ctx context.Context, id int64, passHash []byte, changedAt time.Time) error {
	const op = "storage.postgres.UpdatePassword"

	query := `
		UPDATE accounts
		SET password_hash = $1, password_changed_at = $2, reset_token_hash = NULL, reset_token_expires_at = NULL
		WHERE id = $3;
	`

	tag, err := r.pool.Exec(ctx, query, string(passHash), changedAt, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrAccountNotFound
	}

	return nil
}

func (r *PostgresRepo) SetResetToken(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error {
	const op = "storage.postgres.SetResetToken"

	query := `
		UPDATE accounts
		SET reset_token_hash = $1, reset_token_expires_at = $2
		WHERE id = $3;
	`

	tag, err := r.pool.Exec(ctx, query, tokenHash, expiresAt, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrAccountNotFound
	}

	return nil
}

func (r *PostgresRepo) ClearResetToken(ctx context.Context, id int64) error {
	const op = "storage.postgres.ClearResetToken"

	query := `
		UPDATE accounts
		SET reset_token_hash = NULL, reset_token_expires_at = NULL
		WHERE id = $1;
	`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// CompleteReset is conditional on the stored reset hash still matching the
// presented one, so two in-flight resets cannot both succeed and a consumed
// token never survives.
func (r *PostgresRepo) CompleteReset(ctx context.Context, id int64, tokenHash string, passHash []byte, changedAt time.Time) (bool, error) {
	const op = "storage.postgres.CompleteReset"

	query := `
		UPDATE accounts
		SET password_hash = $1, password_changed_at = $2, reset_token_hash = NULL, reset_token_expires_at = NULL
		WHERE id = $3 AND reset_token_hash = $4;
	`

	tag, err := r.pool.Exec(ctx, query, string(passHash), changedAt, id, tokenHash)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func (r *PostgresRepo) scanAccount(row pgx.Row, notFound error) (models.Account, error) {
	var a models.Account
	var passHash string

	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.Role,
		&passHash,
		&a.PasswordChangedAt,
		&a.ResetTokenHash,
		&a.ResetTokenExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, notFound
		}

		return models.Account{}, err
	}

	a.PassHash = []byte(passHash)

	return a, nil
}

// * dsn формирует конфигурацию базы данных.
func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
