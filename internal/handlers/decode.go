package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Lixing-Zhang/handmade-storefront/internal/apperr"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields,
// and runs the struct's validate tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.Validation("Request body must contain a single JSON object")
	}

	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func decodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError

	switch {
	case errors.Is(err, io.EOF):
		return apperr.Validation("Request body is required")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apperr.Validation("Request body is not valid JSON")
	case errors.As(err, &typeErr):
		return apperr.Validation(fmt.Sprintf("%s has the wrong type", typeErr.Field))
	case errors.As(err, &maxErr):
		return apperr.Validation("Request body is too large")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.TrimPrefix(err.Error(), "json: unknown field ")
		return apperr.Validation(fmt.Sprintf("Unknown field %s", field))
	default:
		return apperr.Validation("Invalid request body")
	}
}

// validationError reports the first failing field in a readable form, e.g.
// "phone is required".
func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return apperr.Validation("Invalid request body")
	}

	fe := errs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_without":
		return apperr.Validation(field + " is required")
	case "email":
		return apperr.Validation(field + " must be a valid email address")
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return apperr.Validation(fmt.Sprintf("%s must have at least %s characters or items", field, fe.Param()))
		}
		return apperr.Validation(fmt.Sprintf("%s must be at least %s", field, fe.Param()))
	case "max":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return apperr.Validation(fmt.Sprintf("%s must have at most %s characters or items", field, fe.Param()))
		}
		return apperr.Validation(fmt.Sprintf("%s must be at most %s", field, fe.Param()))
	case "oneof":
		return apperr.Validation(fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
	default:
		return apperr.Validation(field + " is invalid")
	}
}
