package http

import (
	"net/http"
	"strings"
	"time"
)

// CookiePolicy es el transporte de la credencial de sesión. El core emite
// token + expiry; cómo viaja es asunto de esta capa.
type CookiePolicy struct {
	Name     string
	Domain   string
	Secure   bool
	SameSite string // Lax | Strict | None
}

func (p CookiePolicy) sameSite() http.SameSite {
	switch strings.ToLower(p.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// SetSession adjunta el session token como cookie HttpOnly con el mismo
// expiry con el que fue emitido.
func (p CookiePolicy) SetSession(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    token,
		Path:     "/",
		Domain:   p.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.sameSite(),
	})
}

// ClearSession mata la cookie del lado del cliente (signout stateless).
func (p CookiePolicy) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    "",
		Path:     "/",
		Domain:   p.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.sameSite(),
	})
}
