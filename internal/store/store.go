// Package store define el contrato de persistencia del identity core.
// La engine (postgres en producción, memoria en tests) garantiza unicidad
// de username/email y atomicidad de los updates de un solo registro; el
// core nunca hace read-modify-write en dos pasos.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/faxmishok/passave-server/internal/vault"
)

// Store es la vista del core sobre la Identity persistida.
//
// Errores: vault.ErrNotFound cuando no hay match, vault.ErrConflict ante
// violación de unicidad. Cualquier otro error es de infraestructura.
type Store interface {
	// Insert persiste una Identity nueva (status PENDING, secret y hash ya
	// seteados por el caller).
	Insert(ctx context.Context, id *vault.Identity) error

	FindByID(ctx context.Context, id uuid.UUID) (*vault.Identity, error)
	FindByEmail(ctx context.Context, email string) (*vault.Identity, error)
	FindByUsername(ctx context.Context, username string) (*vault.Identity, error)

	// FindPendingByEmail sólo matchea identities con status PENDING; un
	// email verificado o inexistente responde igual (ErrNotFound).
	FindPendingByEmail(ctx context.Context, email string) (*vault.Identity, error)

	// FindByResetToken matchea token exacto con expiry posterior a now.
	// Read-only: no consume el token.
	FindByResetToken(ctx context.Context, token string, now time.Time) (*vault.Identity, error)

	// SetStatusVerified transiciona PENDING -> VERIFIED. Idempotente.
	SetStatusVerified(ctx context.Context, id uuid.UUID) error

	// SetResetToken adjunta token+expiry a la Identity (flag Reset-Pending).
	SetResetToken(ctx context.Context, id uuid.UUID, tok string, expires time.Time) error

	// ConsumeResetToken reemplaza el password hash y limpia token+expiry en
	// un único update condicional: si el token no existe, expiró o ya fue
	// consumido por un request concurrente, ErrNotFound. Este es el único
	// punto donde el reset token se gasta.
	ConsumeResetToken(ctx context.Context, tok string, newHash string, now time.Time) (uuid.UUID, error)

	// UpdateProfileImage actualiza la referencia de imagen de perfil.
	UpdateProfileImage(ctx context.Context, id uuid.UUID, ref string) error
}
