package auth

import (
	"context"
	"strings"

	"github.com/faxmishok/passave-server/internal/metrics"
	"github.com/faxmishok/passave-server/internal/observability/logger"
	"github.com/faxmishok/passave-server/internal/security/tokens"
	"github.com/faxmishok/passave-server/internal/vault"
)

// resetTokenBytes da tokens hex de 40 caracteres.
const resetTokenBytes = 20

// RequestPasswordReset adjunta un reset token opaco con expiry fijo a la
// Identity y lo manda por mail. El mail es best-effort: el token ya quedó
// persistido y el usuario puede pedir otro.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	ident, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	tok, err := tokens.GenerateOpaqueToken(resetTokenBytes)
	if err != nil {
		return err
	}
	expires := s.now().Add(s.resetTTL)
	if err := s.store.SetResetToken(ctx, ident.ID, tok, expires); err != nil {
		return err
	}
	metrics.PasswordResets.WithLabelValues("requested").Inc()

	if err := s.mailer.SendPasswordReset(ident.Email, ident.Username, tok, s.resetTTL); err != nil {
		metrics.MailSendFailures.Inc()
		s.log.Error("send reset mail", logger.Email(ident.Email), logger.Err(err))
	}
	s.log.Info("password reset requested", logger.UserID(ident.ID.String()))
	return nil
}

// VerifyResetToken chequea match + no-expirado sin consumir el token. Sirve
// para que el cliente muestre el form de reset sólo con token válido.
func (s *Service) VerifyResetToken(ctx context.Context, resetToken string) (*vault.Identity, error) {
	if resetToken == "" {
		return nil, vault.Validation("reset token is required")
	}
	return s.store.FindByResetToken(ctx, resetToken, s.now())
}

// CompletePasswordReset re-valida el token y reemplaza el password hash,
// consumiendo token + expiry en un único update condicional. Segundo intento
// con el mismo token, o intento post-expiry, responde NotFound.
func (s *Service) CompletePasswordReset(ctx context.Context, resetToken, newPassword, confirmation string) error {
	if resetToken == "" {
		return vault.Validation("reset token is required")
	}
	if newPassword != confirmation {
		return vault.Validation("passwords do not match")
	}
	if ok, reasons := s.policy.Validate(newPassword); !ok {
		return vault.Validation("weak password: " + strings.Join(reasons, ", "))
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	id, err := s.store.ConsumeResetToken(ctx, resetToken, hash, s.now())
	if err != nil {
		return err
	}
	metrics.PasswordResets.WithLabelValues("completed").Inc()
	s.log.Info("password reset completed", logger.UserID(id.String()))
	return nil
}
