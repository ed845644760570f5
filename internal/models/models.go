package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// * Valid проверяет, что роль входит в список известных
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type Account struct {
	ID                  int64
	Name                string
	Email               string
	Role                Role
	PassHash            []byte
	PasswordChangedAt   *time.Time
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time
}

// * PasswordChangedAfter проверяет, менялся ли пароль после выдачи токена.
// Сравнение идет по секундам, как и iat в токене.
func (a *Account) PasswordChangedAfter(issuedAt time.Time) bool {
	if a.PasswordChangedAt == nil {
		return false
	}

	return a.PasswordChangedAt.Unix() > issuedAt.Unix()
}

type Message struct {
	Email   string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
