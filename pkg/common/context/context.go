// Package context holds small helpers around context cancellation shared by
// tableflow packages.
package context

import (
	"context"
	"errors"
	"time"
)

// Run outcomes, used as metric label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeTimeout  = "timeout"
	OutcomeCanceled = "canceled"
)

// WithOptionalTimeout derives a context that expires after timeout. A zero
// or negative timeout returns parent unchanged with a no-op cancel.
func WithOptionalTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, timeout)
}

// Outcome classifies the error returned by a run.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeFailure
	}
}
