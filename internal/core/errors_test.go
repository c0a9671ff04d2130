// internal/core/errors_test.go
package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{Code: "TEST_ERROR", Message: "test message"}
	if err.Error() != "[TEST_ERROR] test message" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestError_ErrorWithCause(t *testing.T) {
	err := WrapError(ErrChartImage, errors.New("status 404"))
	want := "[CHART_IMAGE_FAILED] chart image could not be loaded: status 404"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Code: "WRAP", Message: "wrapped", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should return cause")
	}
}

func TestError_Is(t *testing.T) {
	if !errors.Is(ErrTrendFetch, ErrTrendFetch) {
		t.Error("same error should match")
	}
	if errors.Is(ErrTrendFetch, ErrTrendStatus) {
		t.Error("different codes should not match")
	}

	wrapped := fmt.Errorf("loading trends: %w", WrapError(ErrTrendStatus, errors.New("503")))
	if !errors.Is(wrapped, ErrTrendStatus) {
		t.Error("wrapped error should match by code")
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("original")
	wrapped := WrapError(ErrCatalogFetch, cause)
	if wrapped.Cause != cause {
		t.Error("cause not set")
	}
	if wrapped.Code != ErrCatalogFetch.Code {
		t.Error("code not preserved")
	}
}
