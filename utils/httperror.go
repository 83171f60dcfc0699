package utils

import (
	"errors"
	"net/http"
)

// HTTPError is an error carrying the HTTP status it should surface with.
// It distinguishes client-caused failures (bad input, missing draft, rate
// limits) from internal ones, which render generically.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewBadRequest returns a 400 error with a caller-visible reason.
func NewBadRequest(message string) *HTTPError {
	return &HTTPError{Status: http.StatusBadRequest, Message: message}
}

// NewNotFound returns a 404 error.
func NewNotFound(message string) *HTTPError {
	return &HTTPError{Status: http.StatusNotFound, Message: message}
}

// NewTooManyRequests returns a 429 error. The message tells the caller
// whether to wait briefly or back off for the whole protection window.
func NewTooManyRequests(message string) *HTTPError {
	return &HTTPError{Status: http.StatusTooManyRequests, Message: message}
}

// AsHTTPError unwraps err into an *HTTPError if one is in its chain.
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
