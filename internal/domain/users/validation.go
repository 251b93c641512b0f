package users

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLength = 8
	// bcrypt truncates beyond 72 bytes, so longer passwords are rejected
	// rather than silently shortened.
	maxPasswordLength = 72
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidationErrors collects per-field failures for one request.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	messages := make([]string, 0, len(e))
	for _, item := range e {
		messages = append(messages, item.Error())
	}
	return strings.Join(messages, "; ")
}

// Fields returns the failures keyed by field name.
func (e ValidationErrors) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, len(e))
	for _, item := range e {
		fields[item.Field] = item.Message
	}
	return fields
}

// validateSignup checks every signup field and reports all failures at
// once. It runs before any store interaction.
func validateSignup(validate *validator.Validate, params SignupParams) error {
	var errs ValidationErrors

	if params.Email == "" {
		errs = append(errs, ValidationError{Field: "email", Message: "is required"})
	} else if err := validate.Var(params.Email, "email"); err != nil {
		errs = append(errs, ValidationError{Field: "email", Message: "must be a valid email address"})
	}

	if params.Phone == "" {
		errs = append(errs, ValidationError{Field: "phone", Message: "is required"})
	} else if err := validate.Var(params.Phone, "e164"); err != nil {
		errs = append(errs, ValidationError{Field: "phone", Message: "must be a valid phone number"})
	}

	if len(params.Password) < minPasswordLength {
		errs = append(errs, ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters long", minPasswordLength)})
	} else if len(params.Password) > maxPasswordLength {
		errs = append(errs, ValidationError{Field: "password", Message: fmt.Sprintf("must not exceed %d characters", maxPasswordLength)})
	}

	if params.Role != "" && !ValidRole(params.Role) {
		errs = append(errs, ValidationError{Field: "role", Message: "must be one of Admin, Organizer, User"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
