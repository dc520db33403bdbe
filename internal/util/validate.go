package util

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError lists the offending fields of a rejected input.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid input: " + strings.Join(keys, ", ")
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// NewValidator returns a validator that reports fields by their json name
// and understands the notblank tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	// notblank rejects strings made only of whitespace.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// FieldErrors flattens a validation failure into field -> messages. Errors
// that are not validator.ValidationErrors are returned under "_".
func FieldErrors(err error) map[string][]string {
	out := map[string][]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_"] = []string{err.Error()}
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = append(out[fe.Field()], message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", fe.Field())
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", fe.Field())
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", fe.Field(), fe.Param())
	case "gte", "min":
		return fmt.Sprintf("The %s must be at least %s.", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("The %s may not be greater than %s.", fe.Field(), fe.Param())
	case "notblank":
		return fmt.Sprintf("The %s field must not be blank.", fe.Field())
	default:
		return fmt.Sprintf("The %s field is invalid.", fe.Field())
	}
}
