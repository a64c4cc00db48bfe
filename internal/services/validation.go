package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"todo-app/backend/internal/apperrors"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct reports the first failing field as a validation error.
func validateStruct(value interface{}) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Wrap(apperrors.CodeValidation, "invalid input", err)
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return apperrors.Validation(fmt.Sprintf("%s is required", fe.Field()))
	case "min", "max":
		return apperrors.Validation(fmt.Sprintf("%s must be %s %s characters", fe.Field(), boundWord(fe.Tag()), fe.Param()))
	case "email":
		return apperrors.Validation(fmt.Sprintf("%s must be a valid email address", fe.Field()))
	case "hexcolor":
		return apperrors.Validation(fmt.Sprintf("%s must be a hex color such as #1a2b3c", fe.Field()))
	default:
		return apperrors.Validation(fmt.Sprintf("%s is invalid", fe.Field()))
	}
}

func boundWord(tag string) string {
	if tag == "min" {
		return "at least"
	}
	return "at most"
}
