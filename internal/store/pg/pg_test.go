package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/faxmishok/passave-server/internal/vault"
)

// fakeDB devuelve respuestas enlatadas; acá se prueba el mapeo de errores
// del driver a la taxonomía del dominio, no SQL real.
type fakeDB struct {
	execTag pgconn.CommandTag
	execErr error
	row     fakeRow
}

func (f *fakeDB) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return f.execTag, f.execErr
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return f.row
}

type fakeRow struct {
	err  error
	scan func(dest ...any)
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.scan != nil {
		r.scan(dest...)
	}
	return nil
}

func TestInsert_MapsUniqueViolationToConflict(t *testing.T) {
	st := &Store{DB: &fakeDB{execErr: &pgconn.PgError{Code: "23505", ConstraintName: "identity_email_uq"}}}

	err := st.Insert(context.Background(), &vault.Identity{ID: uuid.New()})
	require.ErrorIs(t, err, vault.ErrConflict)
	require.Contains(t, err.Error(), "identity_email_uq")
}

func TestInsert_PassesThroughOtherErrors(t *testing.T) {
	boom := errors.New("connection refused")
	st := &Store{DB: &fakeDB{execErr: boom}}

	err := st.Insert(context.Background(), &vault.Identity{ID: uuid.New()})
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, vault.ErrConflict)
}

func TestFindByEmail_MapsNoRowsToNotFound(t *testing.T) {
	st := &Store{DB: &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}}

	_, err := st.FindByEmail(context.Background(), "ghost@x.com")
	require.ErrorIs(t, err, vault.ErrNotFound)
}

func TestSetStatusVerified_ZeroRowsIsNotFound(t *testing.T) {
	st := &Store{DB: &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 0")}}

	err := st.SetStatusVerified(context.Background(), uuid.New())
	require.ErrorIs(t, err, vault.ErrNotFound)
}

func TestConsumeResetToken_NoMatchIsNotFound(t *testing.T) {
	// El UPDATE condicional no matchea: token gastado o expirado.
	st := &Store{DB: &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}}

	_, err := st.ConsumeResetToken(context.Background(), "deadbeef", "newhash", time.Now())
	require.ErrorIs(t, err, vault.ErrNotFound)
}

func TestConsumeResetToken_ReturnsMatchedID(t *testing.T) {
	want := uuid.New()
	st := &Store{DB: &fakeDB{row: fakeRow{scan: func(dest ...any) {
		*(dest[0].(*uuid.UUID)) = want
	}}}}

	got, err := st.ConsumeResetToken(context.Background(), "deadbeef", "newhash", time.Now())
	require.NoError(t, err)
	require.Equal(t, want, got)
}
