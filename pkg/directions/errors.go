package directions

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-silverlink/pkg/transit"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoAPIKey is returned when no Maps key is configured.
	ErrNoAPIKey = errors.New("directions: API key required")

	// ErrNoRoute is returned for ZERO_RESULTS and NOT_FOUND.
	ErrNoRoute = errors.New("directions: no route found")

	// ErrPermissionDenied is returned for REQUEST_DENIED.
	ErrPermissionDenied = errors.New("directions: request denied")
)

// StatusError is a non-OK status reported in the response body.
type StatusError struct {
	Status  string
	Message string

	kind error
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("directions: status %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("directions: status %s", e.Status)
}

// Unwrap exposes ErrNoRoute or ErrPermissionDenied when the status maps to one.
func (e *StatusError) Unwrap() error {
	return e.kind
}

func statusError(status, message string) *StatusError {
	e := &StatusError{Status: status, Message: message}
	switch status {
	case "ZERO_RESULTS", "NOT_FOUND":
		e.kind = ErrNoRoute
	case "REQUEST_DENIED":
		e.kind = ErrPermissionDenied
	}
	return e
}

// APIError is an HTTP-level failure from the service.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("directions: API error %d: %s", e.StatusCode, e.Message)
}

// Describe returns the user-facing zh-TW explanation for a lookup error.
func Describe(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoAPIKey):
		return "請先在設定輸入 Google Maps API Key"
	case errors.Is(err, ErrNoRoute):
		return "找不到符合條件的路線"
	case errors.Is(err, ErrPermissionDenied):
		return "API Key 權限不足或無效 (REQUEST_DENIED)"
	case errors.Is(err, transit.ErrMalformedRoute):
		return "路線資料不完整"
	case errors.As(err, &statusErr):
		return "路線服務回應 " + statusErr.Status
	default:
		return err.Error()
	}
}
