package copper

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/copperpack/copper-pack/internal/models"
)

// APIError is returned when Copper answers with a non-2xx status or the
// request never completes. It unwraps to models.ErrUpstream.
type APIError struct {
	StatusCode int // 0 when the request failed before a response arrived
	Method     string
	Endpoint   string
	Message    string
	Err        error // transport error, if any
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("copper: %s %s: %s", e.Method, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("copper: %s %s: %d %s: %s", e.Method, e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// Unwrap exposes both the upstream kind and the transport cause.
func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{models.ErrUpstream, e.Err}
	}
	return []error{models.ErrUpstream}
}

// IsNotFound returns true if the error is a 404 from Copper.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized returns true if Copper rejected the credentials.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsRateLimited returns true if the error is a 429.
func IsRateLimited(err error) bool {
	return hasStatus(err, http.StatusTooManyRequests)
}

func hasStatus(err error, status int) bool {
	var e *APIError
	if errors.As(err, &e) {
		return e.StatusCode == status
	}
	return false
}
