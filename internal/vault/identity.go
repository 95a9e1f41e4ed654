// Package vault holds the domain entities and error taxonomy of the
// Passave identity core.
package vault

import (
	"time"

	"github.com/google/uuid"
)

// Status es el estado de ciclo de vida de una Identity.
// Solo transiciona PENDING -> VERIFIED, nunca hacia atrás.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusVerified Status = "VERIFIED"
)

// Identity is one registered user of the vault.
//
// Invariants enforced by the store and the auth service:
//   - Username and Email are unique (and stored lowercased).
//   - TOTPSecret is set at creation and never changes.
//   - ResetToken and ResetExpires are either both set or both nil.
//   - PasswordHash never leaves the server.
type Identity struct {
	ID           uuid.UUID
	FirstName    string
	LastName     string
	Username     string
	Email        string
	PasswordHash string

	// TOTPSecret es el setup key base32 (sin padding) del enrolamiento MFA.
	TOTPSecret string

	Status Status

	ResetToken   *string
	ResetExpires *time.Time

	ProfileImage *string

	CreatedAt time.Time
}

// ResetPending reports whether a password-reset token is attached and not
// yet expired at the given instant.
func (i *Identity) ResetPending(now time.Time) bool {
	return i.ResetToken != nil && i.ResetExpires != nil && i.ResetExpires.After(now)
}
