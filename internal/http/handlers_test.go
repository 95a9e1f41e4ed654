package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/faxmishok/passave-server/internal/auth"
	"github.com/faxmishok/passave-server/internal/oauth/google"
	"github.com/faxmishok/passave-server/internal/security/password"
	"github.com/faxmishok/passave-server/internal/security/totp"
	"github.com/faxmishok/passave-server/internal/store/memory"
	"github.com/faxmishok/passave-server/internal/token"
)

type stubMailer struct {
	lastVerifyToken string
	lastResetToken  string
}

func (s *stubMailer) SendRegistration(_, _, tok string, _ time.Duration) error {
	s.lastVerifyToken = tok
	return nil
}

func (s *stubMailer) SendPasswordReset(_, _, tok string, _ time.Duration) error {
	s.lastResetToken = tok
	return nil
}

type stubFederation struct{ profile *google.Profile }

func (s *stubFederation) AuthURL(_ context.Context, state string) (string, error) {
	return "https://accounts.example.com/auth?state=" + state, nil
}
func (s *stubFederation) ExchangeCode(_ context.Context, _ string) (*google.TokenResponse, error) {
	return &google.TokenResponse{AccessToken: "at"}, nil
}
func (s *stubFederation) FetchProfile(_ context.Context, _ *google.TokenResponse) (*google.Profile, error) {
	if s.profile == nil {
		return nil, fmt.Errorf("no profile configured")
	}
	return s.profile, nil
}

type testEnv struct {
	handler http.Handler
	st      *memory.Store
	mail    *stubMailer
	fed     *stubFederation
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.New()
	mail := &stubMailer{}
	fed := &stubFederation{}
	toks := token.NewService("test-secret", "passave-test", time.Hour, 24*time.Hour)
	svc := auth.NewService(st, password.NewHasher(bcrypt.MinCost), toks, mail, fed, auth.Options{
		TOTPIssuer: "Passave", TOTPWindow: 1, ResetTTL: 30 * time.Minute, VerifyTTL: 24 * time.Hour,
	})
	h := &AuthHandler{
		Svc:   svc,
		Store: st,
		Cookie: CookiePolicy{
			Name:     "token",
			SameSite: "Lax",
		},
	}
	return &testEnv{
		handler: NewRouter(RouterDeps{Auth: h, Tokens: toks}),
		st:      st,
		mail:    mail,
		fed:     fed,
	}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) registerAlice(t *testing.T) {
	t.Helper()
	rec := e.postJSON(t, "/auth/register", map[string]string{
		"first_name": "Alice", "last_name": "W",
		"username": "alice", "email": "alice@x.com",
		"password": "Abcd123!", "passwordConfirmation": "Abcd123!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status %d: %s", rec.Code, rec.Body.String())
	}
}

func (e *testEnv) otpFor(t *testing.T, email string) string {
	t.Helper()
	ident, err := e.st.FindByEmail(context.Background(), email)
	if err != nil {
		t.Fatal(err)
	}
	code, err := totp.CodeAt(ident.TOTPSecret, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return code
}

func TestRegisterEndpoint(t *testing.T) {
	e := newTestEnv(t)
	rec := e.postJSON(t, "/auth/register", map[string]string{
		"first_name": "Alice", "last_name": "W",
		"username": "alice", "email": "alice@x.com",
		"password": "Abcd123!", "passwordConfirmation": "Abcd123!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		SetupKey string `json:"setupKey"`
		DataURL  string `json:"dataURL"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.SetupKey == "" || out.DataURL == "" {
		t.Fatalf("enrollment material missing: %s", rec.Body.String())
	}
	if e.mail.lastVerifyToken == "" {
		t.Fatal("no verification mail sent")
	}
}

func TestRegisterEndpoint_ValidationStatus(t *testing.T) {
	e := newTestEnv(t)
	rec := e.postJSON(t, "/auth/register", map[string]string{
		"first_name": "A", "last_name": "B",
		"username": "alice", "email": "alice@x.com",
		"password": "Abcd123!", "passwordConfirmation": "Other!",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	var out struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if out.Error != "validation_error" {
		t.Fatalf("error code: %q", out.Error)
	}
}

func TestActivateAndLoginEndToEnd(t *testing.T) {
	e := newTestEnv(t)
	e.registerAlice(t)

	rec := e.postJSON(t, "/auth/verify", map[string]string{
		"emailToken": e.mail.lastVerifyToken,
		"otp":        e.otpFor(t, "alice@x.com"),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status %d: %s", rec.Code, rec.Body.String())
	}
	cookieSet := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" && c.Value != "" && c.HttpOnly {
			cookieSet = true
		}
	}
	if !cookieSet {
		t.Fatal("activation did not set session cookie")
	}

	rec = e.postJSON(t, "/auth/login", map[string]string{
		"email": "alice@x.com", "password": "Abcd123!", "otp": e.otpFor(t, "alice@x.com"),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rec.Code, rec.Body.String())
	}

	rec = e.postJSON(t, "/auth/login", map[string]string{
		"email": "alice@x.com", "password": "Abcd123!", "otp": "000000",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad otp login status %d", rec.Code)
	}
}

func TestLoginEndpoint_UnknownEmail(t *testing.T) {
	e := newTestEnv(t)
	rec := e.postJSON(t, "/auth/login", map[string]string{
		"email": "ghost@x.com", "password": "x", "otp": "123456",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestResetEndpoints(t *testing.T) {
	e := newTestEnv(t)
	e.registerAlice(t)
	e.postJSON(t, "/auth/verify", map[string]string{
		"emailToken": e.mail.lastVerifyToken,
		"otp":        e.otpFor(t, "alice@x.com"),
	})

	rec := e.postJSON(t, "/auth/forget", map[string]string{"email": "alice@x.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("forget status %d: %s", rec.Code, rec.Body.String())
	}
	if e.mail.lastResetToken == "" {
		t.Fatal("no reset mail sent")
	}

	rec = e.postJSON(t, "/auth/reset", map[string]string{"reset_token": e.mail.lastResetToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("reset verify status %d: %s", rec.Code, rec.Body.String())
	}

	rec = e.postJSON(t, "/auth/reset/"+e.mail.lastResetToken, map[string]string{
		"password": "Efgh456!", "passwordConfirmation": "Efgh456!",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reset complete status %d: %s", rec.Code, rec.Body.String())
	}

	// Token consumido: segundo intento responde 404.
	rec = e.postJSON(t, "/auth/reset/"+e.mail.lastResetToken, map[string]string{
		"password": "Ijkl789!", "passwordConfirmation": "Ijkl789!",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("reused token status %d", rec.Code)
	}
}

func TestMeEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.registerAlice(t)
	rec := e.postJSON(t, "/auth/verify", map[string]string{
		"emailToken": e.mail.lastVerifyToken,
		"otp":        e.otpFor(t, "alice@x.com"),
	})
	var out struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+out.Token)
	got := httptest.NewRecorder()
	e.handler.ServeHTTP(got, req)
	if got.Code != http.StatusOK {
		t.Fatalf("me status %d: %s", got.Code, got.Body.String())
	}
	var me struct {
		Email  string `json:"email"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(got.Body.Bytes(), &me); err != nil {
		t.Fatal(err)
	}
	if me.Email != "alice@x.com" || me.Status != "VERIFIED" {
		t.Fatalf("me body: %s", got.Body.String())
	}

	// Sin credencial: 401.
	anon := httptest.NewRecorder()
	e.handler.ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "/me", nil))
	if anon.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous me status %d", anon.Code)
	}
}

func TestProfileImageEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.registerAlice(t)
	rec := e.postJSON(t, "/auth/verify", map[string]string{
		"emailToken": e.mail.lastVerifyToken,
		"otp":        e.otpFor(t, "alice@x.com"),
	})
	var out struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)

	body, _ := json.Marshal(map[string]string{"profile_image": "/static/uploads/alice.png"})
	req := httptest.NewRequest(http.MethodPut, "/me/profile-image", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+out.Token)
	got := httptest.NewRecorder()
	e.handler.ServeHTTP(got, req)
	if got.Code != http.StatusOK {
		t.Fatalf("profile image status %d: %s", got.Code, got.Body.String())
	}

	ident, err := e.st.FindByEmail(context.Background(), "alice@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if ident.ProfileImage == nil || *ident.ProfileImage != "/static/uploads/alice.png" {
		t.Fatalf("profile image not persisted: %v", ident.ProfileImage)
	}
}

func TestGoogleEndpoints(t *testing.T) {
	e := newTestEnv(t)
	e.registerAlice(t)
	e.postJSON(t, "/auth/verify", map[string]string{
		"emailToken": e.mail.lastVerifyToken,
		"otp":        e.otpFor(t, "alice@x.com"),
	})
	e.fed.profile = &google.Profile{Email: "alice@x.com"}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google/url?state=abc", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("google url status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google?code=xyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("google callback status %d: %s", rec.Code, rec.Body.String())
	}
	cookieSet := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" && c.Value != "" {
			cookieSet = true
		}
	}
	if !cookieSet {
		t.Fatal("federated login did not set session cookie")
	}
}

func TestReadJSON_BadRequestsUseEnglishDescriptions(t *testing.T) {
	e := newTestEnv(t)

	// Content-Type ausente
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	var out struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Error != "invalid_json" || out.ErrorDescription != "Content-Type must be application/json" {
		t.Fatalf("body: %s", rec.Body.String())
	}

	// Body malformado
	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte(`{not json`)))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	out.ErrorDescription = ""
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.ErrorDescription != "malformed JSON body" {
		t.Fatalf("body: %s", rec.Body.String())
	}
}

func TestSignoutClearsCookie(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("signout status %d", rec.Code)
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("signout did not clear the session cookie")
	}
}
