package password

import "golang.org/x/crypto/bcrypt"

// Cost is fixed: account passwords are the only input hashed with bcrypt
// and the budget is deliberately higher than bcrypt.DefaultCost.
const Cost = 12

func Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext), Cost)
}

// * Compare никогда не возвращает ошибку при несовпадении, только false
func Compare(plaintext string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plaintext)) == nil
}
