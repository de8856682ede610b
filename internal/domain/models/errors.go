package models

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrJobNotFound        = errors.New("job not found")
	ErrInvalidStatus      = errors.New("invalid application status")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrRegistrationFailed = errors.New("registration failed")
	ErrValidation         = errors.New("validation failed")
)

func validationError(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
