package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/faxmishok/passave-server/internal/metrics"
	"github.com/faxmishok/passave-server/internal/observability/logger"
	"github.com/faxmishok/passave-server/internal/security/password"
	"github.com/faxmishok/passave-server/internal/security/totp"
	"github.com/faxmishok/passave-server/internal/token"
	"github.com/faxmishok/passave-server/internal/vault"
)

// LoginInput es la credencial completa: password Y otp deben pasar por
// separado, y la cuenta debe estar verificada.
type LoginInput struct {
	Email    string
	Password string
	OTP      string
}

// Login autentica con email + password + OTP y emite sesión.
//
// Orden de chequeo: lookup, password, otp, status. Un email desconocido
// responde NotFound; todo lo demás responde Unauthorized sin detalle.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	start := time.Now()
	defer func() {
		metrics.LoginDuration.Observe(float64(time.Since(start).Milliseconds()))
	}()

	email := strings.ToLower(strings.TrimSpace(in.Email))
	ident, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		// Sólo el miss real cuenta como not_found; un fallo de infra no es
		// un intento de login contra una cuenta inexistente.
		if errors.Is(err, vault.ErrNotFound) {
			metrics.Logins.WithLabelValues("not_found").Inc()
		} else {
			metrics.Logins.WithLabelValues("store_error").Inc()
		}
		return nil, err
	}

	if !password.Matches(in.Password, ident.PasswordHash) {
		metrics.Logins.WithLabelValues("bad_password").Inc()
		s.log.Debug("login bad password", logger.Email(email))
		return nil, fmt.Errorf("%w: invalid credentials", vault.ErrUnauthorized)
	}
	if !totp.Verify(ident.TOTPSecret, in.OTP, s.now(), s.totpWindow) {
		metrics.Logins.WithLabelValues("bad_otp").Inc()
		s.log.Debug("login bad otp", logger.Email(email))
		return nil, fmt.Errorf("%w: invalid otp", vault.ErrUnauthorized)
	}
	if ident.Status == vault.StatusPending {
		metrics.Logins.WithLabelValues("pending").Inc()
		return nil, fmt.Errorf("%w: account pending email verification", vault.ErrUnauthorized)
	}

	sess, err := s.issueSession(ident, token.AMRPasswordOTP)
	if err != nil {
		return nil, err
	}
	metrics.Logins.WithLabelValues("ok").Inc()
	s.log.Info("login", logger.UserID(ident.ID.String()))
	return sess, nil
}
