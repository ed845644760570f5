package resettoken

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const tokenBytes = 32

// New produces a random reset token. The plaintext goes to the user and is
// never stored; only the sha256 hash lands in the account record. A fast
// hash is enough here: the stored value is a lookup key for a 256-bit random
// string, not a low-entropy password.
func New() (plaintext string, hash string, err error) {
	const op = "resettoken.New"

	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	plaintext = hex.EncodeToString(buf)

	return plaintext, Hash(plaintext), nil
}

// * Hash считает sha256 от предъявленного токена для поиска в хранилище
func Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))

	return hex.EncodeToString(sum[:])
}
