package events

import (
	"fmt"
	"strings"
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

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	messages := make([]string, 0, len(e))
	for _, item := range e {
		messages = append(messages, item.Error())
	}
	return strings.Join(messages, "; ")
}

func (e ValidationErrors) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, len(e))
	for _, item := range e {
		fields[item.Field] = item.Message
	}
	return fields
}

// validateCreate checks every field of a create request and reports all
// failures at once, before any store interaction.
func validateCreate(params CreateParams) error {
	var errs ValidationErrors

	if strings.TrimSpace(params.Name) == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "must not be empty"})
	}
	if params.Price < 0 {
		errs = append(errs, ValidationError{Field: "price", Message: "must not be negative"})
	}
	if params.Capacity < 1 {
		errs = append(errs, ValidationError{Field: "capacity", Message: "must be at least 1"})
	}
	if params.StartTime.IsZero() {
		errs = append(errs, ValidationError{Field: "start_time", Message: "is required"})
	}
	if params.EndTime.IsZero() {
		errs = append(errs, ValidationError{Field: "end_time", Message: "is required"})
	} else if !params.StartTime.IsZero() && !params.EndTime.After(params.StartTime) {
		errs = append(errs, ValidationError{Field: "end_time", Message: "must be after start_time"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
