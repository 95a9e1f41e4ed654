package tokens

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateOpaqueToken genera un token opaco aleatorio en hex.
// Se usa para el reset token que se persiste inline en la Identity.
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
