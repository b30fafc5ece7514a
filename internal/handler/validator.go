package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/osse101/DCM_Go/internal/domain"
)

// Validator wraps the validator instance
type Validator struct {
	validate *validator.Validate
}

var (
	validate     *Validator
	validateOnce sync.Once
)

// InitValidator builds the shared validator with the custom side tag and
// JSON field names in error namespaces
func InitValidator() {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("side", validateSide)

	validate = &Validator{validate: v}
}

// GetValidator returns the global validator instance
func GetValidator() *Validator {
	validateOnce.Do(InitValidator)
	return validate
}

// ValidateStruct validates a struct using tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// validateSide accepts the two outcomes. Emptiness is left to "required".
func validateSide(fl validator.FieldLevel) bool {
	side := fl.Field().String()
	return side == "" || domain.Side(side).Valid()
}

// fieldPath turns a validator namespace such as
// "ScenarioRequest.ComputeRequest.participants[0].side" into the request path
// "participants[0].side". Go type and embedded struct names are capitalised,
// JSON names are not.
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		if r := []rune(p)[0]; unicode.IsUpper(r) {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ".")
}

// FormatValidationError formats validation errors into a map keyed by request
// path. Keys match the engine's violation paths so clients can treat both alike.
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}

	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs[FieldKeyFormatError] = FieldMsgBadFormat
		return errs
	}

	for _, e := range validationErrors {
		field := fieldPath(e.Namespace())
		isList := e.Kind() == reflect.Slice || e.Kind() == reflect.Array
		switch e.Tag() {
		case "required":
			errs[field] = FieldMsgRequired
		case "side":
			errs[field] = FieldMsgSide
		case "max":
			if isList {
				errs[field] = fmt.Sprintf(FieldMsgMaxItems, e.Param())
			} else {
				errs[field] = fmt.Sprintf(FieldMsgMaxChars, e.Param())
			}
		case "min":
			if isList {
				errs[field] = fmt.Sprintf(FieldMsgMinItems, e.Param())
			} else {
				errs[field] = fmt.Sprintf(FieldMsgMinChars, e.Param())
			}
		default:
			errs[field] = FieldMsgInvalid
		}
	}

	return errs
}
