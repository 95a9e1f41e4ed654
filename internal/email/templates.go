package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	texttpl "text/template"
)

// Template kinds que conoce el mail collaborator.
const (
	TemplateRegistration  = "registration"
	TemplatePasswordReset = "password_reset"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

type Templates struct {
	RegistrationHTML *template.Template
	RegistrationTXT  *texttpl.Template
	ResetHTML        *template.Template
	ResetTXT         *texttpl.Template
}

// RegistrationVars alimenta el mail de bienvenida/verificación.
type RegistrationVars struct {
	Username  string
	VerifyURL string
	Token     string
	TTL       string
}

// ResetVars alimenta el mail de password reset.
type ResetVars struct {
	Username string
	ResetURL string
	Token    string
	TTL      string
}

// LoadTemplates parsea los templates embebidos. Falla en el arranque, no
// por-request.
func LoadTemplates() (*Templates, error) {
	read := func(name string) (string, error) {
		b, err := templateFS.ReadFile("templates/" + name)
		return string(b), err
	}

	rh, err := read("registration.html")
	if err != nil {
		return nil, err
	}
	rt, err := read("registration.txt")
	if err != nil {
		return nil, err
	}
	ph, err := read("password_reset.html")
	if err != nil {
		return nil, err
	}
	pt, err := read("password_reset.txt")
	if err != nil {
		return nil, err
	}

	rhT, err := template.New("registration_html").Parse(rh)
	if err != nil {
		return nil, err
	}
	rtT, err := texttpl.New("registration_txt").Parse(rt)
	if err != nil {
		return nil, err
	}
	phT, err := template.New("reset_html").Parse(ph)
	if err != nil {
		return nil, err
	}
	ptT, err := texttpl.New("reset_txt").Parse(pt)
	if err != nil {
		return nil, err
	}

	return &Templates{rhT, rtT, phT, ptT}, nil
}

func renderHTML(t *template.Template, vars any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func renderText(t *texttpl.Template, vars any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
