// Package token issues and verifies the signed token kinds of the identity
// core. Cada kind tiene su claims struct tipado y un tag "tk" en el payload:
// un token de verificación de email jamás pasa por un session token aunque
// la firma sea válida.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind identifica la clase de token firmado.
type Kind string

const (
	KindSession     Kind = "session"
	KindEmailVerify Kind = "email_verify"
)

// Verification failure reasons. The orchestrator maps all three to a
// generic unauthorized response but logs them apart.
var (
	ErrExpired          = errors.New("token expired")
	ErrMalformed        = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token signature invalid")
)

// Valores amr (RFC 8176): cómo se autenticó la sesión. Downstream puede
// distinguir sesiones federadas (sin chequeo OTP local) de las completas.
var (
	AMRPasswordOTP = []string{"pwd", "otp"}
	AMRFederated   = []string{"oauth"}
)

// SessionClaims viaja en el session token emitido tras login/activación.
type SessionClaims struct {
	Kind   Kind     `json:"tk"`
	Status string   `json:"status"`
	AMR    []string `json:"amr,omitempty"`
	jwt.RegisteredClaims
}

// EmailVerifyClaims viaja en el token que habilita la activación de cuenta.
type EmailVerifyClaims struct {
	Kind Kind `json:"tk"`
	jwt.RegisteredClaims
}

// Service firma y verifica con una única clave HS256 compartida entre kinds;
// lo que separa los kinds es el tag y el TTL, no la clave.
type Service struct {
	secret     []byte
	issuer     string
	sessionTTL time.Duration
	verifyTTL  time.Duration

	// Now permite simular el reloj en tests. Nil => time.Now.
	Now func() time.Time
}

func NewService(secret, issuer string, sessionTTL, verifyTTL time.Duration) *Service {
	return &Service{
		secret:     []byte(secret),
		issuer:     issuer,
		sessionTTL: sessionTTL,
		verifyTTL:  verifyTTL,
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SessionTTL expone la vigencia con la que se emiten session tokens, para
// que el transporte (cookie) use el mismo expiry.
func (s *Service) SessionTTL() time.Duration { return s.sessionTTL }

// IssueSession emite un session token {sub, status, amr} y devuelve su
// expiry.
func (s *Service) IssueSession(identityID uuid.UUID, status string, amr []string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.sessionTTL)
	claims := SessionClaims{
		Kind:   KindSession,
		Status: status,
		AMR:    amr,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, exp, nil
}

// IssueEmailVerify emite el token corto {sub} que gatea la activación.
func (s *Service) IssueEmailVerify(identityID uuid.UUID) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.verifyTTL)
	claims := EmailVerifyClaims{
		Kind: KindEmailVerify,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, exp, nil
}

// VerifySession valida firma, expiry y kind de un session token.
func (s *Service) VerifySession(raw string) (*SessionClaims, error) {
	var claims SessionClaims
	if err := s.parse(raw, &claims); err != nil {
		return nil, err
	}
	if claims.Kind != KindSession {
		return nil, fmt.Errorf("%w: kind %q where session expected", ErrMalformed, claims.Kind)
	}
	return &claims, nil
}

// VerifyEmailVerify valida firma, expiry y kind de un email-verify token.
func (s *Service) VerifyEmailVerify(raw string) (*EmailVerifyClaims, error) {
	var claims EmailVerifyClaims
	if err := s.parse(raw, &claims); err != nil {
		return nil, err
	}
	if claims.Kind != KindEmailVerify {
		return nil, fmt.Errorf("%w: kind %q where email_verify expected", ErrMalformed, claims.Kind)
	}
	return &claims, nil
}

func (s *Service) parse(raw string, claims jwt.Claims) error {
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenUnverifiable
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil && tok.Valid:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

// SubjectID parsea el sub de unos claims registrados como uuid.
func SubjectID(rc jwt.RegisteredClaims) (uuid.UUID, error) {
	id, err := uuid.Parse(rc.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrMalformed)
	}
	return id, nil
}
