package models

import "github.com/go-playground/validator/v10"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks any struct carrying `validate` tags and wraps failures into ErrValidation.
func Validate(value any) error {
	if err := validate.Struct(value); err != nil {
		return validationError(err)
	}
	return nil
}
