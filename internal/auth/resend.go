package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/faxmishok/passave-server/internal/observability/logger"
	"github.com/faxmishok/passave-server/internal/vault"
)

// ResendVerification re-emite el token de verificación de una cuenta aún
// PENDING. Email desconocido y email ya verificado responden el mismo
// NotFound: la respuesta no revela si una cuenta existe verificada. A
// diferencia del registro, acá el mail fallido sí es fatal, porque mandar
// el mail es lo único que la operación hace.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	ident, err := s.store.FindPendingByEmail(ctx, email)
	if err != nil {
		return err
	}

	tok, _, err := s.tokens.IssueEmailVerify(ident.ID)
	if err != nil {
		return err
	}
	if err := s.mailer.SendRegistration(ident.Email, ident.Username, tok, s.verifyTTL); err != nil {
		return fmt.Errorf("%w: send verification mail: %v", vault.ErrExternal, err)
	}
	s.log.Info("verification resent", logger.UserID(ident.ID.String()))
	return nil
}
