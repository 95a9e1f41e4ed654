// Package memory implementa store.Store con un map bajo mutex. Replica la
// semántica del driver postgres (unicidad, updates condicionales) para que
// los tests del orchestrator corran sin base de datos.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/faxmishok/passave-server/internal/vault"
)

type Store struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*vault.Identity
	email map[string]uuid.UUID
	uname map[string]uuid.UUID
}

func New() *Store {
	return &Store{
		byID:  make(map[uuid.UUID]*vault.Identity),
		email: make(map[string]uuid.UUID),
		uname: make(map[string]uuid.UUID),
	}
}

func clone(it *vault.Identity) *vault.Identity {
	cp := *it
	if it.ResetToken != nil {
		v := *it.ResetToken
		cp.ResetToken = &v
	}
	if it.ResetExpires != nil {
		v := *it.ResetExpires
		cp.ResetExpires = &v
	}
	if it.ProfileImage != nil {
		v := *it.ProfileImage
		cp.ProfileImage = &v
	}
	return &cp
}

func (s *Store) Insert(_ context.Context, it *vault.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(it.Email)
	uname := strings.ToLower(it.Username)
	if _, dup := s.email[email]; dup {
		return vault.ErrConflict
	}
	if _, dup := s.uname[uname]; dup {
		return vault.ErrConflict
	}
	s.byID[it.ID] = clone(it)
	s.email[email] = it.ID
	s.uname[uname] = it.ID
	return nil
}

func (s *Store) FindByID(_ context.Context, id uuid.UUID) (*vault.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.byID[id]
	if !ok {
		return nil, vault.ErrNotFound
	}
	return clone(it), nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (*vault.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.email[strings.ToLower(email)]
	if !ok {
		return nil, vault.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *Store) FindByUsername(_ context.Context, username string) (*vault.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.uname[strings.ToLower(username)]
	if !ok {
		return nil, vault.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *Store) FindPendingByEmail(ctx context.Context, email string) (*vault.Identity, error) {
	it, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if it.Status != vault.StatusPending {
		return nil, vault.ErrNotFound
	}
	return it, nil
}

func (s *Store) FindByResetToken(_ context.Context, token string, now time.Time) (*vault.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.byID {
		if it.ResetToken != nil && *it.ResetToken == token &&
			it.ResetExpires != nil && it.ResetExpires.After(now) {
			return clone(it), nil
		}
	}
	return nil, vault.ErrNotFound
}

func (s *Store) SetStatusVerified(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return vault.ErrNotFound
	}
	it.Status = vault.StatusVerified
	return nil
}

func (s *Store) SetResetToken(_ context.Context, id uuid.UUID, tok string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return vault.ErrNotFound
	}
	it.ResetToken = &tok
	it.ResetExpires = &expires
	return nil
}

func (s *Store) ConsumeResetToken(_ context.Context, tok, newHash string, now time.Time) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.byID {
		if it.ResetToken != nil && *it.ResetToken == tok &&
			it.ResetExpires != nil && it.ResetExpires.After(now) {
			it.PasswordHash = newHash
			it.ResetToken = nil
			it.ResetExpires = nil
			return it.ID, nil
		}
	}
	return uuid.Nil, vault.ErrNotFound
}

func (s *Store) UpdateProfileImage(_ context.Context, id uuid.UUID, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return vault.ErrNotFound
	}
	it.ProfileImage = &ref
	return nil
}
