package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/faxmishok/passave-server/internal/metrics"
	"github.com/faxmishok/passave-server/internal/observability/logger"
	"github.com/faxmishok/passave-server/internal/token"
	"github.com/faxmishok/passave-server/internal/vault"
)

// FederationURL arma la URL de autorización del provider externo.
func (s *Service) FederationURL(ctx context.Context, state string) (string, error) {
	u, err := s.fed.AuthURL(ctx, state)
	if err != nil {
		return "", fmt.Errorf("%w: federation auth url: %v", vault.ErrExternal, err)
	}
	return u, nil
}

// FederatedLogin canjea el authorization code por una aserción de identidad
// externa y loguea la cuenta local con ese email. La federación nunca
// auto-crea cuentas: email sin Identity local responde NotFound.
//
// Este camino emite sesión sin password ni OTP, confiando en el segundo
// factor del provider. Queda el warn en el log mientras la inconsistencia
// con el resto de los logins siga abierta.
func (s *Service) FederatedLogin(ctx context.Context, code string) (*Session, error) {
	if code == "" {
		return nil, vault.Validation("authorization code is required")
	}

	toks, err := s.fed.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange: %v", vault.ErrExternal, err)
	}
	profile, err := s.fed.FetchProfile(ctx, toks)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch profile: %v", vault.ErrExternal, err)
	}

	email := strings.ToLower(strings.TrimSpace(profile.Email))
	ident, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			metrics.Logins.WithLabelValues("federated_not_found").Inc()
		} else {
			metrics.Logins.WithLabelValues("store_error").Inc()
		}
		return nil, err
	}
	if ident.Status == vault.StatusPending {
		metrics.Logins.WithLabelValues("pending").Inc()
		return nil, fmt.Errorf("%w: account pending email verification", vault.ErrUnauthorized)
	}

	sess, err := s.issueSession(ident, token.AMRFederated)
	if err != nil {
		return nil, err
	}
	metrics.Logins.WithLabelValues("federated_ok").Inc()
	s.log.Warn("federated login without otp check", logger.UserID(ident.ID.String()))
	return sess, nil
}
