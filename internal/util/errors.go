package util

import (
	"errors"
	"fmt"
	"strings"
)

// Common error types for the vmpower CLI
var (
	// ErrInvalidConfig indicates a configuration error (run-fatal)
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrValidation indicates a malformed input row (recovered by skipping)
	ErrValidation = errors.New("invalid operation")

	// ErrConnection indicates the vCenter endpoint could not be reached
	ErrConnection = errors.New("connection failed")

	// ErrVMNotFound indicates the named VM does not exist in the inventory
	ErrVMNotFound = errors.New("VM not found")

	// ErrIllegalTransition indicates the action is not valid for the VM's current power state
	ErrIllegalTransition = errors.New("illegal power transition")

	// ErrDispatch indicates the pool could not schedule an operation
	ErrDispatch = errors.New("dispatch failed")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCancelled indicates an operation was cancelled
	ErrCancelled = errors.New("operation cancelled")

	// ErrRunFailed indicates a run finished with one or more failed operations
	ErrRunFailed = errors.New("run finished with failures")
)

// TargetError wraps an error with the VM it concerns
type TargetError struct {
	Target string
	Err    error
}

// Error implements the error interface
func (e *TargetError) Error() string {
	return fmt.Sprintf("vm %q: %v", e.Target, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *TargetError) Unwrap() error {
	return e.Err
}

// WrapTargetError wraps an error with VM context
func WrapTargetError(target string, err error) error {
	if err == nil {
		return nil
	}
	return &TargetError{
		Target: target,
		Err:    err,
	}
}

// MultiError aggregates multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:", len(m.Errors)))
	for i, err := range m.Errors {
		if i < 10 { // Limit to first 10 errors in the message
			sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
		} else if i == 10 {
			sb.WriteString(fmt.Sprintf("\n  ... and %d more errors", len(m.Errors)-10))
			break
		}
	}
	return sb.String()
}

// Unwrap returns the errors for errors.Is/As compatibility
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add adds an error to the multi-error
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// ErrorOrNil returns nil if no errors were added, otherwise returns the MultiError
func (m *MultiError) ErrorOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// NewMultiError creates a new MultiError from a slice of errors
// It filters out nil errors
func NewMultiError(errors []error) *MultiError {
	m := &MultiError{
		Errors: make([]error, 0, len(errors)),
	}
	for _, err := range errors {
		if err != nil {
			m.Errors = append(m.Errors, err)
		}
	}
	return m
}

// IsValidation checks if an error is an input validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCancelled checks if an error is a cancellation error
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsNotFound checks if an error is a missing-VM error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrVMNotFound)
}

// IsConnectionError checks if an error is a connection error
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsIllegalTransition checks if an error is a power-state transition error
func IsIllegalTransition(err error) bool {
	return errors.Is(err, ErrIllegalTransition)
}
