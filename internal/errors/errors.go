// Package errors provides custom error types and error handling utilities
// for potx. Configuration, bind and connection failures are told apart by
// category and code rather than by string matching.
package errors

import (
	"errors"
	"fmt"
)

// Error categories define the type of error that occurred
const (
	// ErrCategoryConfig indicates a configuration error
	ErrCategoryConfig = "CONFIG"
	// ErrCategoryNetwork indicates a listener-level network error
	ErrCategoryNetwork = "NETWORK"
	// ErrCategoryConnection indicates a failure confined to one accepted connection
	ErrCategoryConnection = "CONNECTION"
	// ErrCategoryInternal indicates an internal system error
	ErrCategoryInternal = "INTERNAL"
)

// PotError represents a structured error with additional context
type PotError struct {
	Category string // Error category (Config, Network, Connection, ...)
	Code     string // Machine-readable error code
	Message  string // Human-readable error message
	Err      error  // Underlying error (if any)
}

// Error implements the error interface
func (e *PotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying error for error chain unwrapping
func (e *PotError) Unwrap() error {
	return e.Err
}

// Is checks if the target error matches this error's code
func (e *PotError) Is(target error) bool {
	t, ok := target.(*PotError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// =============================================================================
// Error Constructors
// =============================================================================

// New creates a new PotError
func New(category, code, message string) *PotError {
	return &PotError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, category, code, message string) *PotError {
	return &PotError{
		Category: category,
		Code:     code,
		Message:  message,
		Err:      err,
	}
}

// WrapAs wraps err using the category and code of a sentinel, so that
// errors.Is(result, sentinel) holds.
func WrapAs(sentinel *PotError, err error, message string) *PotError {
	return Wrap(err, sentinel.Category, sentinel.Code, message)
}

// =============================================================================
// Common Errors
// =============================================================================

// Configuration errors
var (
	ErrNoPorts       = New(ErrCategoryConfig, "NO_PORTS", "No ports provided")
	ErrInvalidPorts  = New(ErrCategoryConfig, "INVALID_PORTS", "Invalid port list")
	ErrInvalidConfig = New(ErrCategoryConfig, "INVALID_CONFIG", "Invalid configuration")
	ErrConfigLoad    = New(ErrCategoryConfig, "CONFIG_LOAD", "Failed to load configuration")
	ErrConfigSave    = New(ErrCategoryConfig, "CONFIG_SAVE", "Failed to save configuration")
)

// Listener errors
var (
	ErrBindFailed    = New(ErrCategoryNetwork, "BIND_FAILED", "Failed to bind listener")
	ErrAcceptFailed  = New(ErrCategoryNetwork, "ACCEPT_FAILED", "Failed to accept connection")
	ErrMetricsServer = New(ErrCategoryNetwork, "METRICS_SERVER", "Metrics server failed")
)

// Connection errors
var (
	ErrConnectionTimeout = New(ErrCategoryConnection, "CONN_TIMEOUT", "Connection timeout")
	ErrConnectionIO      = New(ErrCategoryConnection, "CONN_IO", "Connection I/O error")
)

// Internal errors
var (
	ErrInternal     = New(ErrCategoryInternal, "INTERNAL", "Internal error")
	ErrInvalidState = New(ErrCategoryInternal, "INVALID_STATE", "Invalid state")
)

// =============================================================================
// Helper Functions
// =============================================================================

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category string) bool {
	var potErr *PotError
	if errors.As(err, &potErr) {
		return potErr.Category == category
	}
	return false
}

// GetCategory returns the error category or empty string if not a PotError
func GetCategory(err error) string {
	var potErr *PotError
	if errors.As(err, &potErr) {
		return potErr.Category
	}
	return ""
}

// GetCode returns the error code or empty string if not a PotError
func GetCode(err error) string {
	var potErr *PotError
	if errors.As(err, &potErr) {
		return potErr.Code
	}
	return ""
}
