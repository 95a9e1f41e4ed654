// Package http es la capa de transporte del identity core: traduce
// requests JSON a llamadas al orquestador y errores tipados a status codes.
// Ninguna regla de negocio vive acá.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/faxmishok/passave-server/internal/vault"
)

type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, code, desc string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rid := w.Header().Get("X-Request-ID")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Error: code, ErrorDescription: desc, RequestID: rid})
}

// WriteJSON: respuesta JSON estándar
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ReadJSON: decodifica JSON de forma tolerante (NO falla por campos
// desconocidos). Valida Content-Type y limita el body a 1MB.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && err != io.EOF {
		WriteError(w, http.StatusBadRequest, "invalid_json", "malformed JSON body")
		return false
	}
	return true
}

// WriteDomainError mapea la taxonomía de errores del core a status codes.
// El detalle interno nunca cruza: el caller ve código y descripción corta.
func WriteDomainError(w http.ResponseWriter, err error) {
	var ve *vault.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteError(w, http.StatusBadRequest, "validation_error", ve.Msg)
	case errors.Is(err, vault.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "no matching account or token")
	case errors.Is(err, vault.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "credential or token check failed")
	case errors.Is(err, vault.ErrConflict):
		WriteError(w, http.StatusConflict, "conflict", "username or email already registered")
	case errors.Is(err, vault.ErrExternal):
		WriteError(w, http.StatusBadGateway, "external_error", "an external dependency failed")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "unexpected failure")
	}
}
