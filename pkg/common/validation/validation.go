// Package validation provides configuration checks shared by tableflow packages.
package validation

import (
	"fmt"
	"reflect"

	tferrors "github.com/vnykmshr/tableflow/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return tferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateNonNegative validates that a numeric value is non-negative (>= 0).
func ValidateNonNegative(module, field string, value float64) error {
	if value < 0 {
		return tferrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// ValidateProportion validates that value lies in the closed interval [0, 1].
func ValidateProportion(module, field string, value float64) error {
	if value < 0 || value > 1 {
		return tferrors.NewValidationError(module, field, value, "must be a proportion").
			WithHint("use a value between 0 and 1")
	}
	return nil
}

// ValidateNotNil validates that an interface value is not nil, including an
// interface holding a nil pointer, map, slice, channel or func.
func ValidateNotNil(module, field string, value interface{}) error {
	if isNil(value) {
		return tferrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// ValidateIdentifier validates that value can be written as a bare name in a
// process list: a letter or underscore followed by letters, digits or underscores.
func ValidateIdentifier(module, field, value string) error {
	if value == "" {
		return tferrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	for i, r := range value {
		if IsIdentStart(r) || (i > 0 && r >= '0' && r <= '9') {
			continue
		}
		return tferrors.NewValidationError(module, field, value,
			fmt.Sprintf("invalid character %q at offset %d", r, i)).
			WithHint("use letters, digits and underscores, starting with a letter")
	}
	return nil
}

// ValidateOneOf validates that value is one of the allowed strings.
func ValidateOneOf(module, field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return tferrors.NewValidationError(module, field, value, "unsupported value").
		WithHint(fmt.Sprintf("use one of %v", allowed))
}

// IsIdentStart reports whether r may begin an identifier.
func IsIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
