package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lunagic/agora/internal/apperror"
)

var phoneNumberPattern = regexp.MustCompile(`^\(\d{2}\) \d{5}-\d{4}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by the name clients send them as
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}

		return field.Name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneNumberPattern.MatchString(fl.Field().String())
	})

	return v
}

// Struct checks the `validate` tags of payload and answers a 400 listing
// every failing field.
func Struct(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	validationErrors := validator.ValidationErrors{}
	if !errors.As(err, &validationErrors) {
		return apperror.Internal(err)
	}

	problems := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		problems = append(problems, describe(fieldError))
	}

	return apperror.BadRequest("Validation failed", err).WithDetail(strings.Join(problems, "; "))
}

func describe(fieldError validator.FieldError) string {
	field := fieldError.Field()

	switch fieldError.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "phone":
		return fmt.Sprintf("%s must look like (00) 00000-0000", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted as %s", field, fieldError.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fieldError.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fieldError.Param())
	}

	return fmt.Sprintf("%s failed %s", field, fieldError.Tag())
}

// Trim strips surrounding whitespace from every string and *string field of
// the struct target points at. A blank *string becomes nil.
func Trim(target any) {
	value := reflect.ValueOf(target)
	if value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return
	}

	value = value.Elem()
	for i := range value.NumField() {
		field := value.Field(i)
		if !field.CanSet() {
			continue
		}

		switch {
		case field.Kind() == reflect.String:
			field.SetString(strings.TrimSpace(field.String()))
		case field.Kind() == reflect.Pointer && !field.IsNil() && field.Elem().Kind() == reflect.String:
			trimmed := strings.TrimSpace(field.Elem().String())
			if trimmed == "" {
				field.SetZero()
				continue
			}

			field.Set(reflect.ValueOf(&trimmed))
		}
	}
}
