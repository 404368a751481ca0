package downstream

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTimeout      = errors.New("upstream_timeout")
	ErrUnavailable  = errors.New("upstream_unavailable")
	ErrNotFound     = errors.New("resource_not_found")
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is a non-2xx response from the upstream API.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream error [%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

// Is lets callers match 404 and 401 responses against the sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// EnvelopeError is a 2xx response whose envelope reported success=false.
type EnvelopeError struct {
	Path    string
	Message string
}

func (e *EnvelopeError) Error() string {
	return fmt.Sprintf("upstream rejected %s: %s", e.Path, e.Message)
}

// IsClientError reports failures that will not change on retry: 4xx statuses
// (other than 408 and 429) and envelope rejections.
func IsClientError(err error) bool {
	var ee *EnvelopeError
	if errors.As(err, &ee) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 400 && se.StatusCode < 500 &&
			se.StatusCode != http.StatusRequestTimeout &&
			se.StatusCode != http.StatusTooManyRequests
	}
	return false
}
