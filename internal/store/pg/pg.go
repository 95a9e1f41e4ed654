// Package pg implementa store.Store sobre PostgreSQL (pgx). La unicidad de
// username/email vive en índices únicos y cada transición es un statement
// único, así los races (reset concurrente, doble activación) los serializa
// la base.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/faxmishok/passave-server/internal/vault"
)

// DBOps es el subset de pgxpool.Pool que usa el store (mockeable).
type DBOps interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct{ DB DBOps }

func New(pool *pgxpool.Pool) *Store { return &Store{DB: pool} }

const identityCols = `id, first_name, last_name, username, email, password_hash,
       totp_secret, status, reset_token, reset_expires, profile_image, created_at`

func scanIdentity(row pgx.Row) (*vault.Identity, error) {
	var it vault.Identity
	err := row.Scan(
		&it.ID, &it.FirstName, &it.LastName, &it.Username, &it.Email,
		&it.PasswordHash, &it.TOTPSecret, &it.Status,
		&it.ResetToken, &it.ResetExpires, &it.ProfileImage, &it.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vault.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (s *Store) Insert(ctx context.Context, it *vault.Identity) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO identity
		    (id, first_name, last_name, username, email, password_hash, totp_secret, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		it.ID, it.FirstName, it.LastName, it.Username, it.Email,
		it.PasswordHash, it.TOTPSecret, it.Status, it.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation (username/email/totp_secret)
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", vault.ErrConflict, pgErr.ConstraintName)
		}
		return err
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*vault.Identity, error) {
	return scanIdentity(s.DB.QueryRow(ctx,
		`SELECT `+identityCols+` FROM identity WHERE id = $1`, id))
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*vault.Identity, error) {
	return scanIdentity(s.DB.QueryRow(ctx,
		`SELECT `+identityCols+` FROM identity WHERE email = $1`, email))
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*vault.Identity, error) {
	return scanIdentity(s.DB.QueryRow(ctx,
		`SELECT `+identityCols+` FROM identity WHERE username = $1`, username))
}

func (s *Store) FindPendingByEmail(ctx context.Context, email string) (*vault.Identity, error) {
	return scanIdentity(s.DB.QueryRow(ctx,
		`SELECT `+identityCols+` FROM identity WHERE email = $1 AND status = $2`,
		email, vault.StatusPending))
}

func (s *Store) FindByResetToken(ctx context.Context, token string, now time.Time) (*vault.Identity, error) {
	return scanIdentity(s.DB.QueryRow(ctx,
		`SELECT `+identityCols+` FROM identity WHERE reset_token = $1 AND reset_expires > $2`,
		token, now))
}

func (s *Store) SetStatusVerified(ctx context.Context, id uuid.UUID) error {
	tag, err := s.DB.Exec(ctx,
		`UPDATE identity SET status = $1 WHERE id = $2`, vault.StatusVerified, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return vault.ErrNotFound
	}
	return nil
}

func (s *Store) SetResetToken(ctx context.Context, id uuid.UUID, tok string, expires time.Time) error {
	tag, err := s.DB.Exec(ctx,
		`UPDATE identity SET reset_token = $1, reset_expires = $2 WHERE id = $3`,
		tok, expires, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return vault.ErrNotFound
	}
	return nil
}

// ConsumeResetToken: un único UPDATE condicional. Dos requests concurrentes
// con el mismo token: uno matchea y limpia, el otro ve cero filas.
func (s *Store) ConsumeResetToken(ctx context.Context, tok, newHash string, now time.Time) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.DB.QueryRow(ctx, `
		UPDATE identity
		   SET password_hash = $1, reset_token = NULL, reset_expires = NULL
		 WHERE reset_token = $2
		   AND reset_expires > $3
		RETURNING id`,
		newHash, tok, now,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, vault.ErrNotFound
		}
		return uuid.Nil, err
	}
	return id, nil
}

func (s *Store) UpdateProfileImage(ctx context.Context, id uuid.UUID, ref string) error {
	tag, err := s.DB.Exec(ctx,
		`UPDATE identity SET profile_image = $1 WHERE id = $2`, ref, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return vault.ErrNotFound
	}
	return nil
}
