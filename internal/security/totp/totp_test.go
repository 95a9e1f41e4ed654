package totp

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateSecret_Base32NoPadding(t *testing.T) {
	s, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret err: %v", err)
	}
	if strings.Contains(s, "=") {
		t.Fatalf("secret must have no padding: %q", s)
	}
	// 20 bytes -> 32 chars base32
	if len(s) != 32 {
		t.Fatalf("secret length: got %d want 32", len(s))
	}
}

func TestOTPAuthURL(t *testing.T) {
	u := OTPAuthURL("Passave", "alice", "JBSWY3DPEHPK3PXP")
	if !strings.HasPrefix(u, "otpauth://totp/Passave:alice?") {
		t.Fatalf("unexpected label: %q", u)
	}
	for _, want := range []string{"secret=JBSWY3DPEHPK3PXP", "issuer=Passave", "digits=6", "period=30", "algorithm=SHA1"} {
		if !strings.Contains(u, want) {
			t.Fatalf("missing %q in %q", want, u)
		}
	}
}

// Un código del step N debe validar en N-1, N y N+1 con window=1,
// y fallar fuera de ese rango.
func TestVerify_ToleranceWindow(t *testing.T) {
	secret, err := GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	base := time.Unix(1700000000, 0) // alineado a un step fijo
	code, err := CodeAt(secret, base)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name  string
		at    time.Time
		valid bool
	}{
		{"step N-1", base.Add(-Period * time.Second), true},
		{"step N", base, true},
		{"step N+1", base.Add(Period * time.Second), true},
		{"step N-2", base.Add(-2 * Period * time.Second), false},
		{"step N+2", base.Add(2 * Period * time.Second), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Verify(secret, code, tc.at, 1); got != tc.valid {
				t.Fatalf("Verify at %s: got %v want %v", tc.name, got, tc.valid)
			}
		})
	}
}

func TestVerify_MalformedNeverPanics(t *testing.T) {
	secret, _ := GenerateSecret()
	now := time.Now()

	if Verify(secret, "", now, 1) {
		t.Fatal("empty code accepted")
	}
	if Verify(secret, "12345", now, 1) {
		t.Fatal("short code accepted")
	}
	if Verify(secret, "abcdef", now, 1) {
		t.Fatal("non-numeric code accepted")
	}
	if Verify("not-base32!!", "123456", now, 1) {
		t.Fatal("invalid secret accepted")
	}
}

func TestVerify_WrongCode(t *testing.T) {
	secret, _ := GenerateSecret()
	base := time.Unix(1700000000, 0)
	code, _ := CodeAt(secret, base)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if Verify(secret, wrong, base, 1) {
		t.Fatalf("wrong code accepted")
	}
}
