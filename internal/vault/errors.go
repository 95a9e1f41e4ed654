package vault

import "errors"

// Error taxonomy returned by the auth service. The HTTP layer maps these to
// status codes; nothing else about a failure crosses that boundary.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrExternal     = errors.New("external service failure")
)

// ValidationError es un fallo de input corregible por el usuario (4xx).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError with the given message.
func Validation(msg string) error { return &ValidationError{Msg: msg} }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
