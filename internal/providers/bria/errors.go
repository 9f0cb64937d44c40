package bria

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrMissingAPIKey indicates that neither the request nor the client
	// carried a credential.
	ErrMissingAPIKey = errors.New("bria: api key is required")

	// ErrInvalidInput indicates a request that is rejected before any
	// network call is made, such as a missing image source.
	ErrInvalidInput = errors.New("bria: invalid input")

	// ErrTimeout indicates the request exceeded the client timeout.
	ErrTimeout = errors.New("bria: request timed out")

	// ErrDecode indicates a success status with an empty or non-JSON body.
	ErrDecode = errors.New("bria: invalid json response")
)

// HTTPError is a non-2xx reply from the engine API. The upstream status and
// body are preserved so callers can react to specific rejections.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("bria: status %d: %s", e.Status, strings.TrimSpace(e.Body))
}

// ContentModerated reports whether the engine rejected the input on content
// policy grounds (HTTP 422).
func (e *HTTPError) ContentModerated() bool {
	return e.Status == http.StatusUnprocessableEntity
}

// RequestError wraps transport-level failures such as DNS errors or
// connection resets.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return "bria: request failed: " + e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsContentModeration reports whether err is an engine content-moderation
// rejection.
func IsContentModeration(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.ContentModerated()
}
