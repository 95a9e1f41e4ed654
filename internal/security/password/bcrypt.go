// Package password wraps the credential hashing primitive. Hashing only
// happens when a password is being set or changed; stored hashes are never
// re-hashed on unrelated updates.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost es el cost factor por defecto del hash.
const DefaultCost = 10

// Hasher hashes and verifies passwords with a fixed cost.
type Hasher struct {
	Cost int
}

func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return Hasher{Cost: cost}
}

// Hash devuelve el hash bcrypt del plaintext (salt incluido en el hash).
func (h Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("empty password")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Matches compara plaintext contra el hash en tiempo constante (bcrypt).
func Matches(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
