package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/upb/accounts-api/services"
)

// maxBodyBytes bounds request bodies decoded by DecodeJSON.
const maxBodyBytes = 1 << 20

var (
	// validate is the singleton validator instance
	validate *validator.Validate
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so clients see "role", not "Role".
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateStruct validates a struct using go-playground/validator and
// returns a services validation error listing every failing field.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

// NewValidationError converts validator.ValidationErrors into a domain error
func NewValidationError(errs validator.ValidationErrors) error {
	fields := make([]services.FieldError, 0, len(errs))
	for _, err := range errs {
		field := err.Field()
		tag := err.Tag()

		var msg string
		switch tag {
		case "required":
			msg = fmt.Sprintf("%s is required", field)
		case "email":
			msg = fmt.Sprintf("%s must be a valid email", field)
		case "min":
			msg = fmt.Sprintf("%s must be at least %s characters", field, err.Param())
		case "max":
			msg = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
		case "oneof":
			msg = fmt.Sprintf("%s must be one of: %s", field, err.Param())
		default:
			msg = fmt.Sprintf("%s validation failed on '%s' tag", field, tag)
		}
		fields = append(fields, services.FieldError{Field: field, Message: msg})
	}

	return services.NewValidationError(fields...)
}

// DecodeJSON decodes a request body into dst and validates it. Malformed
// bodies are reported as a validation error on the "body" field.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "body must be valid JSON"
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			msg = "body is required"
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return services.NewValidationError(services.FieldError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type.Kind()),
			})
		}
		return services.NewValidationError(services.FieldError{Field: "body", Message: msg})
	}
	// Anything after the first value other than whitespace is rejected.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return services.NewValidationError(services.FieldError{Field: "body", Message: "body must contain a single JSON value"})
	}
	return ValidateStruct(dst)
}
