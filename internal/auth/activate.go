package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/faxmishok/passave-server/internal/metrics"
	"github.com/faxmishok/passave-server/internal/observability/logger"
	"github.com/faxmishok/passave-server/internal/security/totp"
	"github.com/faxmishok/passave-server/internal/token"
	"github.com/faxmishok/passave-server/internal/vault"
)

// Activate transiciona PENDING -> VERIFIED con el token del mail más un OTP
// vigente, y emite sesión en el acto (la activación también loguea). Sobre
// una cuenta ya verificada es un no-op idempotente: el OTP se re-chequea
// igual y la sesión se emite igual, pero no hay cambio de estado.
func (s *Service) Activate(ctx context.Context, emailToken, otp string) (*Session, error) {
	if emailToken == "" || otp == "" {
		return nil, vault.Validation("both email token and otp are required")
	}

	claims, err := s.tokens.VerifyEmailVerify(emailToken)
	if err != nil {
		s.log.Debug("activate with bad token", logger.Err(err))
		return nil, fmt.Errorf("%w: verification token rejected", vault.ErrUnauthorized)
	}
	id, err := token.SubjectID(claims.RegisteredClaims)
	if err != nil {
		return nil, fmt.Errorf("%w: verification token rejected", vault.ErrUnauthorized)
	}

	ident, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return nil, vault.ErrNotFound
		}
		return nil, err
	}

	if !totp.Verify(ident.TOTPSecret, otp, s.now(), s.totpWindow) {
		return nil, fmt.Errorf("%w: invalid otp", vault.ErrUnauthorized)
	}

	if ident.Status == vault.StatusPending {
		if err := s.store.SetStatusVerified(ctx, ident.ID); err != nil {
			return nil, err
		}
		ident.Status = vault.StatusVerified
		metrics.Activations.Inc()
		s.log.Info("identity activated", logger.UserID(ident.ID.String()))
	}

	return s.issueSession(ident, token.AMRPasswordOTP)
}
