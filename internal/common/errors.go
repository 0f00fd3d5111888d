package common

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across packages
var (
	// ErrNotFound indicates a row or resource does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a unique key is already taken
	ErrConflict = errors.New("already exists")
	// ErrInvalidInput indicates invalid user input
	ErrInvalidInput = errors.New("invalid input")
)

// WrapError wraps an error with additional context information
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context information
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewError creates a new error with a formatted message
func NewError(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// ValidationError represents validation errors with field-specific information
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NetworkError represents transport failures talking to an upstream
type NetworkError struct {
	URL     string
	Reason  string
	Wrapped error
}

func (e *NetworkError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("network error for '%s': %s: %v", e.URL, e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("network error for '%s': %s", e.URL, e.Reason)
}

func (e *NetworkError) Unwrap() error {
	return e.Wrapped
}

// NewNetworkError creates a new network error
func NewNetworkError(url, reason string, wrapped error) *NetworkError {
	return &NetworkError{
		URL:     url,
		Reason:  reason,
		Wrapped: wrapped,
	}
}

// HTTPError represents a non-success HTTP status from an upstream
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *HTTPError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("HTTP %d error for '%s': %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("HTTP %d error: %s", e.StatusCode, e.Message)
}

// NewHTTPErrorWithURL creates a new HTTP error with URL context
func NewHTTPErrorWithURL(statusCode int, message, url string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		URL:        url,
	}
}

// FetchError is returned when a tracked page could not be retrieved.
// The cause is either a *NetworkError or an *HTTPError.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new fetch error
func NewFetchError(url string, err error) *FetchError {
	return &FetchError{URL: url, Err: err}
}

// InvalidPatternError is returned when a user mask does not compile
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}

// InvalidURLError is returned for malformed or relative URLs
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid URL %q: %s", e.URL, e.Reason)
}

func (e *InvalidURLError) Unwrap() error {
	return ErrInvalidInput
}

// FrameError is returned for messages that cannot be split into header and payload
type FrameError struct {
	Reason string
	Err    error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed frame: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed frame: %s", e.Reason)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// UnknownHandlerError is returned when no handler is registered for a message type
type UnknownHandlerError struct {
	Type string
}

func (e *UnknownHandlerError) Error() string {
	return fmt.Sprintf("unknown handler %q", e.Type)
}

// NotFoundError is returned when an operation targets a missing row
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(kind, key string) *NotFoundError {
	return &NotFoundError{Kind: kind, Key: key}
}
