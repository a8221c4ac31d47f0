package dto

import (
	"strings"

	autherror "github.com/novalane/auth-service/internal/errors"
)

// MinPasswordLength applies at registration only; existing credentials are
// never re-validated against it.
const MinPasswordLength = 8

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the input shape. Email validation is deliberately shallow;
// anything stricter belongs to a verification mail, not a regexp.
func (in RegisterInput) Validate() error {
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return autherror.ErrInvalidEmail
	}
	if len(in.Password) < MinPasswordLength {
		return autherror.ErrPasswordTooShort
	}
	return nil
}
