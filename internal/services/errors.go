package services

import "errors"

var (
	// ErrMissingCredential is returned when the request carries no credential.
	ErrMissingCredential = errors.New("missing credential")

	// ErrUnauthorized is returned when the credential is not provisioned.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

func requiredDate(date, message string) error {
	if date == "" {
		return ValidationError{Field: "date", Message: message}
	}
	return nil
}
