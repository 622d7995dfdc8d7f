// Package validation provides common validation utilities for configuration
// parameters across the tableflow library.
//
// Every check returns a *errors.ValidationError so that callers can detect
// configuration mistakes with errors.IsValidationError.
package validation
