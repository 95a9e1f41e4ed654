package email

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Mailer compone templates + sender con los links absolutos del servicio.
type Mailer struct {
	Sender  Sender
	Tmpl    *Templates
	BaseURL string
}

func NewMailer(sender Sender, tmpl *Templates, baseURL string) *Mailer {
	return &Mailer{Sender: sender, Tmpl: tmpl, BaseURL: strings.TrimRight(baseURL, "/")}
}

// SendRegistration manda el mail de verificación de cuenta con el token
// firmado embebido en el link.
func (m *Mailer) SendRegistration(to, username, verifyToken string, ttl time.Duration) error {
	vars := RegistrationVars{
		Username:  username,
		VerifyURL: m.BaseURL + "/auth/verify?token=" + url.QueryEscape(verifyToken),
		Token:     verifyToken,
		TTL:       ttl.String(),
	}
	html, err := renderHTML(m.Tmpl.RegistrationHTML, vars)
	if err != nil {
		return err
	}
	text, err := renderText(m.Tmpl.RegistrationTXT, vars)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Welcome %s!", username)
	return m.Sender.Send(to, subject, html, text)
}

// SendPasswordReset manda el mail con el reset token opaco.
func (m *Mailer) SendPasswordReset(to, username, resetToken string, ttl time.Duration) error {
	vars := ResetVars{
		Username: username,
		ResetURL: m.BaseURL + "/auth/reset/" + url.PathEscape(resetToken),
		Token:    resetToken,
		TTL:      ttl.String(),
	}
	html, err := renderHTML(m.Tmpl.ResetHTML, vars)
	if err != nil {
		return err
	}
	text, err := renderText(m.Tmpl.ResetTXT, vars)
	if err != nil {
		return err
	}
	return m.Sender.Send(to, "Reset Password", html, text)
}
