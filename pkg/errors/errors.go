package errors

import (
	"errors"
	"fmt"
)

// Domain error types for the detection engine

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Ingestion errors

var (
	// ErrInvalidTrade indicates a trade failed ingestion validation
	ErrInvalidTrade = errors.New("invalid trade")

	// ErrEngineStopped indicates the engine is not accepting trades
	ErrEngineStopped = errors.New("engine stopped")
)

// Alerting errors

var (
	// ErrAlertNotFound indicates an unknown alert id
	ErrAlertNotFound = errors.New("alert not found")

	// ErrAlertInactive indicates an operation on a deactivated alert
	ErrAlertInactive = errors.New("alert is inactive")

	// ErrChannelClosed indicates a delivery channel was shut down
	ErrChannelClosed = errors.New("delivery channel closed")

	// ErrQueueFull indicates the outbound dispatch queue is saturated
	ErrQueueFull = errors.New("dispatch queue full")
)

// Feed errors

var (
	// ErrFeedDisconnected indicates the market data feed dropped
	ErrFeedDisconnected = errors.New("feed disconnected")

	// ErrFeedDecode indicates an undecodable feed message
	ErrFeedDecode = errors.New("feed message decode failed")
)

// ChannelError wraps a delivery failure with the channel's identity
type ChannelError struct {
	Channel string
	Err     error
}

// Error implements the error interface
func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel %s: %v", e.Channel, e.Err)
}

// Unwrap returns the wrapped error
func (e *ChannelError) Unwrap() error {
	return e.Err
}

// NewChannelError creates a new channel delivery error
func NewChannelError(channel string, err error) *ChannelError {
	return &ChannelError{Channel: channel, Err: err}
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap lets validation errors match ErrInvalidTrade
func (e *ValidationError) Unwrap() error {
	return ErrInvalidTrade
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// MultiError wraps multiple errors, used for per-dispatch channel reports
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
	return fmt.Sprintf("multiple errors (%d): %v", len(m.Errors), m.Errors[0])
}

// Add adds an error to the list
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ToError returns the MultiError as an error, or nil if no errors
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
