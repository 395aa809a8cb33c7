package httputil

import (
	"fmt"
	"net/http"
)

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// CheckStatus returns nil for 2xx codes. Server errors and 429 are wrapped
// in [RetryableError]; other codes yield a plain [*StatusError].
func CheckStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 500, code == http.StatusTooManyRequests:
		return &RetryableError{Err: &StatusError{StatusCode: code}}
	default:
		return &StatusError{StatusCode: code}
	}
}
