// Package validator converts ozzo-validation failures into layered error codes
package validator

import (
	"errors"
	"sort"
	"strings"

	"github.com/KOMKZ/go-yogan-ioc/errcode"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ModuleCode validator module code
const ModuleCode = 35

const (
	ErrCodeValidationFailed = 1
)

// ErrValidationFailed generic validation failure; field messages are under data["fields"]
var ErrValidationFailed = errcode.Register(errcode.New(
	ModuleCode, ErrCodeValidationFailed,
	"validator", "error.validator.failed", "validation failed",
))

// Validatable anything with a Validate method
type Validatable interface {
	Validate() error
}

// Validate runs v.Validate and converts ozzo-validation errors
func Validate(v Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}

	var validationErrs validation.Errors
	if errors.As(err, &validationErrs) {
		return ConvertValidationError(validationErrs)
	}
	return err
}

// ConvertValidationError flattens field errors into a LayeredError
func ConvertValidationError(validationErrs validation.Errors) error {
	fields := make(map[string]string, len(validationErrs))
	names := make([]string, 0, len(validationErrs))
	for field, fieldErr := range validationErrs {
		if fieldErr == nil {
			continue
		}
		fields[field] = fieldErr.Error()
		names = append(names, field)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+fields[name])
	}

	return ErrValidationFailed.
		WithMsgf("validation failed: %s", strings.Join(parts, "; ")).
		WithData("fields", fields)
}
