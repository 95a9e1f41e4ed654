// Package totp implementa TOTP (RFC 6238) sobre HMAC-SHA1, con secrets
// base32 compatibles con las apps authenticator estándar.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

const (
	// Period es el step de tiempo en segundos.
	Period = 30
	digits = 6
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret retorna 20 bytes aleatorios en base32 sin padding (RFC 3548).
func GenerateSecret() (string, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return b32.EncodeToString(raw), nil
}

// OTPAuthURL construye el otpauth:// para el QR de enrolamiento.
// otpauth://totp/{issuer}:{account}?secret=...&issuer=...&algorithm=SHA1&digits=6&period=30
func OTPAuthURL(issuer, account, secretB32 string) string {
	label := url.PathEscape(fmt.Sprintf("%s:%s", issuer, account))
	q := url.Values{}
	q.Set("secret", secretB32)
	q.Set("issuer", issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", fmt.Sprintf("%d", digits))
	q.Set("period", fmt.Sprintf("%d", Period))
	return fmt.Sprintf("otpauth://totp/%s?%s", label, q.Encode())
}

// Verify valida el código en una ventana de ±window steps alrededor de t,
// para tolerar clock skew. Un código malformado o un secret base32 inválido
// nunca es error: simplemente retorna false.
func Verify(secretB32, code string, t time.Time, window int) bool {
	code = strings.TrimSpace(code)
	if len(code) != digits {
		return false
	}
	raw, err := b32.DecodeString(strings.ToUpper(strings.TrimSpace(secretB32)))
	if err != nil {
		return false
	}
	if window < 0 {
		window = 0
	}
	counter := t.Unix() / Period
	for c := counter - int64(window); c <= counter+int64(window); c++ {
		if subtle.ConstantTimeCompare([]byte(gen(raw, c)), []byte(code)) == 1 {
			return true
		}
	}
	return false
}

// gen calcula HOTP(K, C) con HMAC-SHA1 (RFC 4226 / 6238).
func gen(secretRaw []byte, counter int64) string {
	var msg [8]byte
	for i := 7; i >= 0; i-- {
		msg[i] = byte(counter & 0xff)
		counter >>= 8
	}
	m := hmac.New(sha1.New, secretRaw)
	_, _ = m.Write(msg[:])
	sum := m.Sum(nil)
	offset := int(sum[len(sum)-1] & 0x0f)
	bin := (int(sum[offset])&0x7f)<<24 | int(sum[offset+1])<<16 | int(sum[offset+2])<<8 | int(sum[offset+3])
	otp := bin % int(math.Pow10(digits))
	return fmt.Sprintf("%0*d", digits, otp)
}

// CodeAt genera el código válido para el step que contiene a t. Lo usan el
// enrolamiento de tests y las herramientas de desarrollo; el server sólo
// verifica.
func CodeAt(secretB32 string, t time.Time) (string, error) {
	raw, err := b32.DecodeString(strings.ToUpper(strings.TrimSpace(secretB32)))
	if err != nil {
		return "", err
	}
	return gen(raw, t.Unix()/Period), nil
}
