package dto

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// HandleValidationError converts a binding error into an error detail.
// Field errors are reported individually under Details.
func HandleValidationError(err error) *ErrorDetail {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		list := NewValidationErrors()
		for _, fe := range verrs {
			list.AddError(jsonFieldName(fe), FormatValidationError(fe))
		}
		detail := NewErrorDetail(ErrorCodeValidationFailed, "Validation failed").WithDetails(list.Errors)
		if len(list.Errors) == 1 {
			detail = detail.WithField(list.Errors[0].Field)
		}
		return detail
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		return NewErrorDetail(ErrorCodeBadRequest, "Invalid request format").
			WithField(typeErr.Field).
			WithDetails(typeErr.Field + " has the wrong type")
	case errors.As(err, &syntaxErr):
		return NewErrorDetail(ErrorCodeBadRequest, "Invalid request format").WithDetails("Malformed JSON body")
	default:
		return NewErrorDetail(ErrorCodeBadRequest, "Invalid request format").WithDetails(err.Error())
	}
}

func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return ""
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// FormatValidationError creates a human-readable validation error message
func FormatValidationError(e validator.FieldError) string {
	field := jsonFieldName(e)
	switch e.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "min":
		return field + " must be at least " + e.Param()
	case "max":
		return field + " must be at most " + e.Param()
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return field + " must be one of: " + e.Param()
	case "gtfield":
		return field + " must be after " + e.Param()
	case "e164":
		return field + " must be an E.164 phone number"
	case "url":
		return field + " must be a valid URL"
	case "latitude", "longitude":
		return field + " must be a valid " + e.Tag()
	default:
		return field + " validation failed: " + e.Tag()
	}
}
