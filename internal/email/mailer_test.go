package email

import (
	"strings"
	"testing"
	"time"
)

type recorderSender struct {
	to, subject, html, text string
	calls                   int
}

func (r *recorderSender) Send(to, subject, html, text string) error {
	r.to, r.subject, r.html, r.text = to, subject, html, text
	r.calls++
	return nil
}

func TestLoadTemplates(t *testing.T) {
	if _, err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates err: %v", err)
	}
}

func TestSendRegistration_RendersLink(t *testing.T) {
	tmpl, err := LoadTemplates()
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorderSender{}
	m := NewMailer(rec, tmpl, "https://vault.example.com/")

	if err := m.SendRegistration("alice@x.com", "alice", "tok+123", 24*time.Hour); err != nil {
		t.Fatalf("SendRegistration err: %v", err)
	}
	if rec.calls != 1 {
		t.Fatalf("sender calls: %d", rec.calls)
	}
	if rec.to != "alice@x.com" {
		t.Fatalf("to: %q", rec.to)
	}
	if !strings.Contains(rec.subject, "alice") {
		t.Fatalf("subject: %q", rec.subject)
	}
	// El token viaja query-escaped dentro del link
	if !strings.Contains(rec.text, "https://vault.example.com/auth/verify?token=tok%2B123") {
		t.Fatalf("verify link missing/unescaped:\n%s", rec.text)
	}
}

func TestSendPasswordReset_RendersLink(t *testing.T) {
	tmpl, err := LoadTemplates()
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorderSender{}
	m := NewMailer(rec, tmpl, "https://vault.example.com")

	if err := m.SendPasswordReset("alice@x.com", "alice", "deadbeef", 30*time.Minute); err != nil {
		t.Fatalf("SendPasswordReset err: %v", err)
	}
	if !strings.Contains(rec.text, "https://vault.example.com/auth/reset/deadbeef") {
		t.Fatalf("reset link missing:\n%s", rec.text)
	}
	if !strings.Contains(rec.text, "30m") {
		t.Fatalf("ttl missing:\n%s", rec.text)
	}
}
