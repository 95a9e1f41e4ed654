package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/faxmishok/passave-server/internal/auth"
	"github.com/faxmishok/passave-server/internal/store"
	"github.com/faxmishok/passave-server/internal/token"
	"github.com/faxmishok/passave-server/internal/vault"
)

// AuthHandler expone el ciclo de vida de cuentas sobre /auth/*.
type AuthHandler struct {
	Svc    *auth.Service
	Store  store.Store
	Cookie CookiePolicy
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/verify", h.activate)
	r.Post("/auth/login", h.login)
	r.Post("/auth/forget", h.forget)
	r.Post("/auth/reset", h.verifyReset)
	r.Post("/auth/reset/{token}", h.completeReset)
	r.Post("/auth/resend", h.resend)
	r.Post("/auth/signout", h.signout)
	r.Get("/auth/google/url", h.googleURL)
	r.Get("/auth/google", h.googleCallback)
}

type registerIn struct {
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var in registerIn
	if !ReadJSON(w, r, &in) {
		return
	}
	res, err := h.Svc.Register(r.Context(), auth.RegisterInput{
		FirstName:            in.FirstName,
		LastName:             in.LastName,
		Username:             in.Username,
		Email:                in.Email,
		Password:             in.Password,
		PasswordConfirmation: in.PasswordConfirmation,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	// setupKey y dataURL se entregan una única vez, en esta respuesta.
	WriteJSON(w, http.StatusCreated, map[string]any{
		"message":  "account created, verification email sent",
		"dataURL":  res.QRDataURI,
		"setupKey": res.SetupKey,
	})
}

type activateIn struct {
	EmailToken string `json:"emailToken"`
	OTP        string `json:"otp"`
}

func (h *AuthHandler) activate(w http.ResponseWriter, r *http.Request) {
	var in activateIn
	if !ReadJSON(w, r, &in) {
		return
	}
	sess, err := h.Svc.Activate(r.Context(), in.EmailToken, in.OTP)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	h.Cookie.SetSession(w, sess.Token, sess.ExpiresAt)
	WriteJSON(w, http.StatusOK, map[string]any{
		"message": "account verified",
		"token":   sess.Token,
		"expires": sess.ExpiresAt,
	})
}

type loginIn struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in loginIn
	if !ReadJSON(w, r, &in) {
		return
	}
	sess, err := h.Svc.Login(r.Context(), auth.LoginInput{Email: in.Email, Password: in.Password, OTP: in.OTP})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	h.Cookie.SetSession(w, sess.Token, sess.ExpiresAt)
	WriteJSON(w, http.StatusOK, map[string]any{
		"token":   sess.Token,
		"expires": sess.ExpiresAt,
	})
}

type emailIn struct {
	Email string `json:"email"`
}

func (h *AuthHandler) forget(w http.ResponseWriter, r *http.Request) {
	var in emailIn
	if !ReadJSON(w, r, &in) {
		return
	}
	if err := h.Svc.RequestPasswordReset(r.Context(), in.Email); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"message": "password reset email sent"})
}

type verifyResetIn struct {
	ResetToken string `json:"reset_token"`
}

func (h *AuthHandler) verifyReset(w http.ResponseWriter, r *http.Request) {
	var in verifyResetIn
	if !ReadJSON(w, r, &in) {
		return
	}
	if _, err := h.Svc.VerifyResetToken(r.Context(), in.ResetToken); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "token verified",
		"resetURL": "/auth/reset/" + in.ResetToken,
	})
}

type completeResetIn struct {
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

func (h *AuthHandler) completeReset(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")
	var in completeResetIn
	if !ReadJSON(w, r, &in) {
		return
	}
	if err := h.Svc.CompletePasswordReset(r.Context(), tok, in.Password, in.PasswordConfirmation); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"message": "password reset successfully"})
}

func (h *AuthHandler) resend(w http.ResponseWriter, r *http.Request) {
	var in emailIn
	if !ReadJSON(w, r, &in) {
		return
	}
	if err := h.Svc.ResendVerification(r.Context(), in.Email); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"message": "verification email sent"})
}

func (h *AuthHandler) signout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.Cookie.Name); err == nil {
		h.Svc.SignOut(c.Value)
	}
	h.Cookie.ClearSession(w)
	WriteJSON(w, http.StatusOK, map[string]any{"message": "signed out"})
}

func (h *AuthHandler) googleURL(w http.ResponseWriter, r *http.Request) {
	u, err := h.Svc.FederationURL(r.Context(), r.URL.Query().Get("state"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"url": u})
}

func (h *AuthHandler) googleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	sess, err := h.Svc.FederatedLogin(r.Context(), code)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	h.Cookie.SetSession(w, sess.Token, sess.ExpiresAt)
	WriteJSON(w, http.StatusOK, map[string]any{
		"token":   sess.Token,
		"expires": sess.ExpiresAt,
	})
}

// MeHandler devuelve la Identity detrás de la sesión (sin hash ni secret).
type MeHandler struct {
	Store store.Store
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims := SessionFrom(r.Context())
	if claims == nil {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	id, err := token.SubjectID(claims.RegisteredClaims)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid session subject")
		return
	}
	ident, err := h.Store.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			WriteError(w, http.StatusUnauthorized, "unauthorized", "account no longer exists")
			return
		}
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, meOut{
		ID:           ident.ID,
		FirstName:    ident.FirstName,
		LastName:     ident.LastName,
		Username:     ident.Username,
		Email:        ident.Email,
		Status:       string(ident.Status),
		ProfileImage: ident.ProfileImage,
	})
}

type profileImageIn struct {
	ProfileImage string `json:"profile_image"`
}

// UpdateProfileImage guarda la referencia (path/URL) de la imagen de
// perfil. El storage del archivo en sí es asunto de otro servicio; acá
// sólo viaja la referencia.
func (h *MeHandler) UpdateProfileImage(w http.ResponseWriter, r *http.Request) {
	claims := SessionFrom(r.Context())
	if claims == nil {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	if claims.Status != string(vault.StatusVerified) {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "account not verified")
		return
	}
	id, err := token.SubjectID(claims.RegisteredClaims)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid session subject")
		return
	}
	var in profileImageIn
	if !ReadJSON(w, r, &in) {
		return
	}
	if in.ProfileImage == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "profile_image is required")
		return
	}
	if err := h.Store.UpdateProfileImage(r.Context(), id, in.ProfileImage); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"message": "profile image updated"})
}

type meOut struct {
	ID           uuid.UUID `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Status       string    `json:"status"`
	ProfileImage *string   `json:"profile_image,omitempty"`
}
