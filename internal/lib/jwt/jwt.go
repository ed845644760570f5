package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenIssuance = errors.New("token issuance failed")
	ErrTokenInvalid  = errors.New("token is invalid")
	ErrTokenExpired  = errors.New("token has expired")
)

// Claims — проверенные утверждения сессионного токена
type Claims struct {
	AccountID int64
	IssuedAt  time.Time
}

// NewToken issues a signed HS256 session token for the given account.
// Validity is a pure function of signature and timestamps, nothing is stored.
func NewToken(accountID int64, secret string, ttl time.Duration) (string, error) {
	const op = "jwt.NewToken"

	if accountID == 0 {
		return "", fmt.Errorf("%s: empty account id: %w", op, ErrTokenIssuance)
	}
	if secret == "" {
		return "", fmt.Errorf("%s: empty secret: %w", op, ErrTokenIssuance)
	}

	now := time.Now()

	claims := jwt.MapClaims{
		"sub": accountID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

func ParseToken(tokenStr, secret string) (Claims, error) {
	const op = "jwt.ParseToken"

	claims := jwt.MapClaims{}

	parsedToken, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%s: unexpected signing method", op)
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}

		return Claims{}, ErrTokenInvalid
	}

	if !parsedToken.Valid {
		return Claims{}, ErrTokenInvalid
	}

	subFloat, ok := claims["sub"].(float64)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}

	iatFloat, ok := claims["iat"].(float64)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}

	return Claims{
		AccountID: int64(subFloat),
		IssuedAt:  time.Unix(int64(iatFloat), 0),
	}, nil
}
