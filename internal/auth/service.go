// Package auth orquesta el ciclo de vida de cuentas del identity core:
// registro, activación por email + OTP, login, password reset, resend y
// login federado. Toda regla de negocio vive acá; HTTP sólo traduce.
package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/faxmishok/passave-server/internal/oauth/google"
	"github.com/faxmishok/passave-server/internal/observability/logger"
	"github.com/faxmishok/passave-server/internal/security/password"
	"github.com/faxmishok/passave-server/internal/store"
	"github.com/faxmishok/passave-server/internal/token"
	"github.com/faxmishok/passave-server/internal/vault"
)

// Federation es la aserción de identidad externa (Google). Interface para
// poder simularla en tests sin red.
type Federation interface {
	AuthURL(ctx context.Context, state string) (string, error)
	ExchangeCode(ctx context.Context, code string) (*google.TokenResponse, error)
	FetchProfile(ctx context.Context, tokens *google.TokenResponse) (*google.Profile, error)
}

// Mailer son los dos mails que el core manda. Interface por lo mismo.
type Mailer interface {
	SendRegistration(to, username, verifyToken string, ttl time.Duration) error
	SendPasswordReset(to, username, resetToken string, ttl time.Duration) error
}

// Service is the account lifecycle orchestrator. All collaborators are set
// at construction and read-only afterwards; the service holds no mutable
// state of its own, so it is safe for concurrent use.
type Service struct {
	store  store.Store
	hasher password.Hasher
	policy password.Policy
	tokens *token.Service
	mailer Mailer
	fed    Federation

	totpIssuer string
	totpWindow int
	resetTTL   time.Duration
	verifyTTL  time.Duration

	log *zap.Logger

	// Now permite simular el reloj en tests. Nil => time.Now.
	Now func() time.Time
}

// Options agrupa la política del orquestador que sale de config.
type Options struct {
	TOTPIssuer string
	TOTPWindow int
	ResetTTL   time.Duration
	VerifyTTL  time.Duration
}

func NewService(st store.Store, hasher password.Hasher, toks *token.Service, mailer Mailer, fed Federation, opts Options) *Service {
	if opts.TOTPWindow <= 0 {
		opts.TOTPWindow = 1
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = 30 * time.Minute
	}
	return &Service{
		store:      st,
		hasher:     hasher,
		policy:     password.DefaultPolicy,
		tokens:     toks,
		mailer:     mailer,
		fed:        fed,
		totpIssuer: opts.TOTPIssuer,
		totpWindow: opts.TOTPWindow,
		resetTTL:   opts.ResetTTL,
		verifyTTL:  opts.VerifyTTL,
		log:        logger.Named("auth"),
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Session es el resultado de cualquier camino que emite credencial de
// sesión. ExpiresAt es el expiry recomendado para el transporte (cookie).
type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  *vault.Identity
}

func (s *Service) issueSession(ident *vault.Identity, amr []string) (*Session, error) {
	tok, exp, err := s.tokens.IssueSession(ident.ID, string(ident.Status), amr)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, ExpiresAt: exp, Identity: ident}, nil
}

// SignOut es stateless del lado del core: no hay lista de revocación, la
// credencial muere cuando el caller la descarta. Sólo queda el log.
func (s *Service) SignOut(raw string) {
	claims, err := s.tokens.VerifySession(raw)
	if err != nil {
		s.log.Debug("signout with invalid session", logger.Err(err))
		return
	}
	s.log.Info("signout", logger.UserID(claims.Subject))
}
