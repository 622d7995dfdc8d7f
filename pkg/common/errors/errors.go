package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the tableflow library

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrParse indicates that a process list does not match the grammar
	ErrParse = errors.New("parse error")

	// ErrNoSuchProcess indicates that a process name is not registered
	ErrNoSuchProcess = errors.New("no such process")

	// ErrContractViolation indicates that a process returned a malformed result
	ErrContractViolation = errors.New("process contract violation")
)

// ValidationError describes an invalid configuration value.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint sets a remediation hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap returns ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// OperationError records a failed operation and its cause.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches extra detail and returns the same error for chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// ParseError reports a process list that could not be parsed.
// Offset is the byte offset in Input where parsing stopped.
type ParseError struct {
	Input  string
	Offset int
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse process list %q at offset %d: %s", e.Input, e.Offset, e.Detail)
}

// Unwrap returns ErrParse.
func (e *ParseError) Unwrap() error {
	return ErrParse
}

// NoSuchProcessError reports a process name missing from the registry.
type NoSuchProcessError struct {
	Kind string
	Name string
}

func (e *NoSuchProcessError) Error() string {
	return fmt.Sprintf("no such %s: %s", e.Kind, e.Name)
}

// Unwrap returns ErrNoSuchProcess.
func (e *NoSuchProcessError) Unwrap() error {
	return ErrNoSuchProcess
}

// ContractError reports a process result that breaks the result contract.
type ContractError struct {
	Process string
	Reason  string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("process %s returned an invalid result: %s", e.Process, e.Reason)
}

// Unwrap returns ErrContractViolation.
func (e *ContractError) Unwrap() error {
	return ErrContractViolation
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsConfigurationError reports whether err stems from the processing
// configuration itself (grammar or unknown names) rather than from data.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrParse) || errors.Is(err, ErrNoSuchProcess) ||
		errors.Is(err, ErrInvalidConfiguration)
}
