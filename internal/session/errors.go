package session

import "github.com/venapictures/vena/internal/apperr"

// FormError is a validation failure shown inline on the originating screen.
type FormError struct {
	Message string
}

func (e *FormError) Error() string { return e.Message }

func (e *FormError) Unwrap() error { return apperr.ErrValidation }

var (
	ErrInvalidCredentials = &FormError{Message: "Email atau kata sandi salah."}
	ErrPasswordMismatch   = &FormError{Message: "Kata sandi tidak cocok."}
	ErrPasswordTooShort   = &FormError{Message: "Kata sandi harus minimal 8 karakter."}
)
