// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/mailmind/mailmind/internal/errors"
)

var (
	// emailRegex is a basic email validation pattern
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Email validates email format using regex
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email", "must be a valid email address"),
)

// NotBlank validates that a string is not empty or whitespace-only
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "cannot be blank"),
)

// Port validates that an int is a valid TCP port number
var Port = validation.By(func(value interface{}) error {
	p, ok := value.(int)
	if !ok {
		return validation.NewError("validation_port", "port must be an integer")
	}
	if p < 1 || p > 65535 {
		return validation.NewError("validation_port_range", "port must be between 1 and 65535")
	}
	return nil
})
