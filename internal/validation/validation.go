// Package validation wraps go-playground/validator with the domain's custom
// rules and turns field errors into VALIDATION_ERROR app errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"chirp/internal/models"

	"github.com/go-playground/validator/v10"
)

var handleRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

var reservedHandles = map[string]struct{}{
	"admin":         {},
	"api":           {},
	"feed":          {},
	"me":            {},
	"metrics":       {},
	"notifications": {},
	"search":        {},
	"swagger":       {},
	"ws":            {},
}

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with custom tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
			return ValidateHandle(fl.Field().String()) == nil
		})
		validate = v
	})
	return validate
}

// Struct validates s and returns a *models.AppError describing every failed field.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return models.NewValidationError(err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return models.NewValidationError(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "max":
		if isList {
			return fmt.Sprintf("%s must have at most %s items", field, fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "handle":
		return field + " must be 3-30 letters, digits or underscores and not reserved"
	case "required_with":
		return fmt.Sprintf("%s is required when %s is set", field, strings.ToLower(fe.Param()))
	case "url":
		return field + " must be a valid URL"
	default:
		return field + " is invalid"
	}
}

// ValidateHandle checks the account handle format and reserved names.
func ValidateHandle(handle string) error {
	if !handleRegex.MatchString(handle) {
		return fmt.Errorf("handle must be 3-30 characters of letters, digits or underscores")
	}
	if _, reserved := reservedHandles[strings.ToLower(handle)]; reserved {
		return fmt.Errorf("handle is reserved")
	}
	return nil
}
