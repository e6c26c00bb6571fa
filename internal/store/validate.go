package store

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"netsync/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate checks a node against its struct tag constraints
func Validate(n domain.Node) error {
	err := validate.Struct(n)
	if err == nil {
		return nil
	}
	return formatValidationError(domain.RefOf(n), err)
}

// formatValidationError converts validator errors to a readable message,
// keeping only the first violated constraint.
func formatValidationError(ref domain.Ref, err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return &ValidationError{Ref: ref, Message: err.Error(), Cause: err}
	}

	e := validationErrs[0]
	field := e.Field()
	tag := e.Tag()
	param := e.Param()

	var msg string
	switch tag {
	case "required":
		msg = fmt.Sprintf("%s: field is required", field)
	case "min":
		msg = fmt.Sprintf("%s: must be at least %s", field, param)
	case "max":
		msg = fmt.Sprintf("%s: must not exceed %s", field, param)
	case "oneof":
		msg = fmt.Sprintf("%s: must be one of [%s], got %q", field, param, fmt.Sprint(e.Value()))
	case "mac", "ip", "cidr", "latitude", "longitude":
		msg = fmt.Sprintf("%s: %q is not a valid %s", field, fmt.Sprint(e.Value()), tag)
	default:
		msg = fmt.Sprintf("%s: validation failed (%s)", field, tag)
	}

	return &ValidationError{
		Ref:     ref,
		Field:   field,
		Tag:     tag,
		Message: msg,
		Cause:   err,
	}
}
