// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Upstream errors
	ErrCatalogFetch = &Error{Code: "CATALOG_FETCH_FAILED", Message: "symbol catalog fetch failed"}
	ErrTrendFetch   = &Error{Code: "TREND_FETCH_FAILED", Message: "trend signal fetch failed"}
	ErrTrendStatus  = &Error{Code: "TREND_BAD_STATUS", Message: "trend signal endpoint returned non-2xx status"}
	ErrChartImage   = &Error{Code: "CHART_IMAGE_FAILED", Message: "chart image could not be loaded"}

	// Selection errors
	ErrInvalidTimeframe = &Error{Code: "INVALID_TIMEFRAME", Message: "timeframe not available"}
	ErrInvalidSymbol    = &Error{Code: "INVALID_SYMBOL", Message: "symbol is required"}
	ErrInvalidSortField = &Error{Code: "INVALID_SORT_FIELD", Message: "unknown sort field"}
	ErrSessionNotFound  = &Error{Code: "SESSION_NOT_FOUND", Message: "session not found"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
