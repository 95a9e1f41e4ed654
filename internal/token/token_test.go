package token

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newSvc() *Service {
	return NewService("test-secret-key-0123456789abcdef", "passave-test", time.Hour, 24*time.Hour)
}

func TestSession_RoundTrip(t *testing.T) {
	svc := newSvc()
	id := uuid.New()

	raw, exp, err := svc.IssueSession(id, "VERIFIED", AMRPasswordOTP)
	if err != nil {
		t.Fatalf("IssueSession err: %v", err)
	}
	if until := time.Until(exp); until < 59*time.Minute || until > 61*time.Minute {
		t.Fatalf("session expiry out of range: %v", until)
	}

	claims, err := svc.VerifySession(raw)
	if err != nil {
		t.Fatalf("VerifySession err: %v", err)
	}
	if claims.Status != "VERIFIED" {
		t.Fatalf("status claim: got %q", claims.Status)
	}
	if len(claims.AMR) != 2 || claims.AMR[0] != "pwd" || claims.AMR[1] != "otp" {
		t.Fatalf("amr claim: got %v", claims.AMR)
	}
	got, err := SubjectID(claims.RegisteredClaims)
	if err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Fatalf("subject: got %s want %s", got, id)
	}
}

func TestEmailVerify_RoundTrip(t *testing.T) {
	svc := newSvc()
	id := uuid.New()

	raw, _, err := svc.IssueEmailVerify(id)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := svc.VerifyEmailVerify(raw)
	if err != nil {
		t.Fatalf("VerifyEmailVerify err: %v", err)
	}
	got, err := SubjectID(claims.RegisteredClaims)
	if err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Fatalf("subject: got %s want %s", got, id)
	}
}

// Un email-verify token no puede usarse donde se espera un session token,
// ni al revés, aunque la clave de firma sea la misma.
func TestCrossKindRejected(t *testing.T) {
	svc := newSvc()
	id := uuid.New()

	verifyTok, _, err := svc.IssueEmailVerify(id)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.VerifySession(verifyTok); !errors.Is(err, ErrMalformed) {
		t.Fatalf("email-verify accepted as session: err=%v", err)
	}

	sessTok, _, err := svc.IssueSession(id, "VERIFIED", AMRPasswordOTP)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.VerifyEmailVerify(sessTok); !errors.Is(err, ErrMalformed) {
		t.Fatalf("session accepted as email-verify: err=%v", err)
	}
}

func TestVerify_ExpiredSimulatedClock(t *testing.T) {
	svc := newSvc()
	raw, _, err := svc.IssueSession(uuid.New(), "VERIFIED", AMRPasswordOTP)
	if err != nil {
		t.Fatal(err)
	}

	// Adelantar el reloj más allá del TTL
	svc.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.VerifySession(raw); !errors.Is(err, ErrExpired) {
		t.Fatalf("want ErrExpired, got %v", err)
	}
}

func TestVerify_WrongKeyIsSignatureInvalid(t *testing.T) {
	issuerSvc := newSvc()
	raw, _, err := issuerSvc.IssueSession(uuid.New(), "PENDING", AMRFederated)
	if err != nil {
		t.Fatal(err)
	}

	other := NewService("another-key-entirely-fedcba987654", "passave-test", time.Hour, 24*time.Hour)
	if _, err := other.VerifySession(raw); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("want ErrSignatureInvalid, got %v", err)
	}
}

func TestVerify_GarbageIsMalformed(t *testing.T) {
	svc := newSvc()
	for _, raw := range []string{"", "abc", "a.b.c", "ey.ey.ey"} {
		if _, err := svc.VerifySession(raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("raw %q: want ErrMalformed, got %v", raw, err)
		}
	}
}
