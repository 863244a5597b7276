// Package validation runs struct-tag validation on form inputs and turns
// the failures into apperr.ValidationErrors keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"aslipolitik/internal/apperr"
	"aslipolitik/internal/category"
	"aslipolitik/internal/slug"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return category.Valid(category.Code(fl.Field().String()))
	})
	v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slug.Valid(fl.Field().String())
	})

	return v
}

// Struct validates s. It returns nil, an apperr.ValidationErrors listing
// every failed field, or a plain error when s cannot be validated at all.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("validate input: %w", err)
	}

	out := make(apperr.ValidationErrors, 0, len(ves))
	for _, fe := range ves {
		out = append(out, apperr.Invalid(fe.Field(), message(fe)))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "category":
		return "is not a known category"
	case "slug":
		return "may only contain lowercase letters, digits and single hyphens"
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}
