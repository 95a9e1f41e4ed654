package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/faxmishok/passave-server/internal/metrics"
	"github.com/faxmishok/passave-server/internal/observability/logger"
	"github.com/faxmishok/passave-server/internal/security/qrcode"
	"github.com/faxmishok/passave-server/internal/security/totp"
	"github.com/faxmishok/passave-server/internal/vault"
)

// RegisterInput es el payload del alta de cuenta.
type RegisterInput struct {
	FirstName            string
	LastName             string
	Username             string
	Email                string
	Password             string
	PasswordConfirmation string
}

// RegisterResult devuelve el material de enrolamiento MFA. Se entrega una
// sola vez; el secret nunca vuelve a salir del servidor.
type RegisterResult struct {
	IdentityID uuid.UUID
	SetupKey   string
	QRDataURI  string
}

// Register crea una Identity en PENDING con su secret TOTP, y dispara el
// mail de verificación. El QR se genera antes de persistir: si falla, no
// queda cuenta a medias. El mail en cambio es best-effort, la cuenta ya
// existe con o sin notificación.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Username == "" || in.Email == "" || in.FirstName == "" || in.LastName == "" {
		return nil, vault.Validation("all fields are required")
	}
	if in.Password != in.PasswordConfirmation {
		return nil, vault.Validation("passwords do not match")
	}
	if ok, reasons := s.policy.Validate(in.Password); !ok {
		return nil, vault.Validation("weak password: " + strings.Join(reasons, ", "))
	}

	secret, err := totp.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}
	// Falla fatal pre-persistencia: sin QR no hay enrolamiento posible.
	qr, err := qrcode.DataURI(totp.OTPAuthURL(s.totpIssuer, in.Username, secret))
	if err != nil {
		return nil, fmt.Errorf("%w: render qr: %v", vault.ErrExternal, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	ident := &vault.Identity{
		ID:           uuid.New(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		TOTPSecret:   secret,
		Status:       vault.StatusPending,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Insert(ctx, ident); err != nil {
		return nil, err
	}
	metrics.Registrations.Inc()

	verifyTok, _, err := s.tokens.IssueEmailVerify(ident.ID)
	if err != nil {
		// La cuenta ya existe; el resend cubre este caso.
		s.log.Error("issue verify token after register", logger.UserID(ident.ID.String()), logger.Err(err))
	} else if err := s.mailer.SendRegistration(ident.Email, ident.Username, verifyTok, s.verifyTTL); err != nil {
		metrics.MailSendFailures.Inc()
		s.log.Error("send registration mail", logger.Email(ident.Email), logger.Err(err))
	}

	s.log.Info("identity registered",
		logger.UserID(ident.ID.String()), logger.Email(ident.Email))

	return &RegisterResult{IdentityID: ident.ID, SetupKey: secret, QRDataURI: qr}, nil
}
