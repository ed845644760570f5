package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"account_service/internal/models"
	"account_service/internal/storage"
)

// MemoryRepo is an in-memory account store with the same contract as the
// postgres one, including the conditional reset-complete update. Used in
// tests and for running the service without a database.
type MemoryRepo struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*models.Account
}

func New() *MemoryRepo {
	return &MemoryRepo{
		nextID:   1,
		accounts: make(map[int64]*models.Account),
	}
}

func (r *MemoryRepo) SaveAccount(_ context.Context, name, email string, role models.Role, passHash []byte) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Email == email {
			return 0, storage.ErrAccountExists
		}
	}

	id := r.nextID
	r.nextID++

	r.accounts[id] = &models.Account{
		ID:       id,
		Name:     name,
		Email:    email,
		Role:     role,
		PassHash: append([]byte(nil), passHash...),
	}

	return id, nil
}

func (r *MemoryRepo) AccountByEmail(_ context.Context, email string) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Email == email {
			return clone(a), nil
		}
	}

	return models.Account{}, storage.ErrAccountNotFound
}

func (r *MemoryRepo) AccountByID(_ context.Context, id int64) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return models.Account{}, storage.ErrAccountNotFound
	}

	return clone(a), nil
}

func (r *MemoryRepo) AccountByResetTokenHash(_ context.Context, tokenHash string, now time.Time) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.ResetTokenHash != nil && *a.ResetTokenHash == tokenHash &&
			a.ResetTokenExpiresAt != nil && a.ResetTokenExpiresAt.After(now) {
			return clone(a), nil
		}
	}

	return models.Account{}, storage.ErrResetTokenNotFound
}

func (r *MemoryRepo) Accounts(_ context.Context) ([]models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts := make([]models.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		accounts = append(accounts, clone(a))
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })

	return accounts, nil
}

func (r *MemoryRepo) UpdateAccount(_ context.Context, id int64, name, email string, role models.Role) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return models.Account{}, storage.ErrAccountNotFound
	}

	for _, other := range r.accounts {
		if other.ID != id && other.Email == email {
			return models.Account{}, storage.ErrAccountExists
		}
	}

	a.Name = name
	a.Email = email
	a.Role = role

	return clone(a), nil
}

func (r *MemoryRepo) DeleteAccount(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[id]; !ok {
		return storage.ErrAccountNotFound
	}

	delete(r.accounts, id)

	return nil
}

func (r *MemoryRepo) UpdatePassword(_ context.Context, id int64, passHash []byte, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return storage.ErrAccountNotFound
	}

	a.PassHash = append([]byte(nil), passHash...)
	a.PasswordChangedAt = &changedAt
	a.ResetTokenHash = nil
	a.ResetTokenExpiresAt = nil

	return nil
}

func (r *MemoryRepo) SetResetToken(_ context.Context, id int64, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return storage.ErrAccountNotFound
	}

	a.ResetTokenHash = &tokenHash
	a.ResetTokenExpiresAt = &expiresAt

	return nil
}

func (r *MemoryRepo) ClearResetToken(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return storage.ErrAccountNotFound
	}

	a.ResetTokenHash = nil
	a.ResetTokenExpiresAt = nil

	return nil
}

func (r *MemoryRepo) CompleteReset(_ context.Context, id int64, tokenHash string, passHash []byte, changedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok || a.ResetTokenHash == nil || *a.ResetTokenHash != tokenHash {
		return false, nil
	}

	a.PassHash = append([]byte(nil), passHash...)
	a.PasswordChangedAt = &changedAt
	a.ResetTokenHash = nil
	a.ResetTokenExpiresAt = nil

	return true, nil
}

func clone(a *models.Account) models.Account {
	out := *a
	out.PassHash = append([]byte(nil), a.PassHash...)

	if a.PasswordChangedAt != nil {
		t := *a.PasswordChangedAt
		out.PasswordChangedAt = &t
	}
	if a.ResetTokenHash != nil {
		h := *a.ResetTokenHash
		out.ResetTokenHash = &h
	}
	if a.ResetTokenExpiresAt != nil {
		t := *a.ResetTokenExpiresAt
		out.ResetTokenExpiresAt = &t
	}

	return out
}
