package koala

import (
	"errors"
	"fmt"
)

// ErrNilTransport is returned by WithTransport when given a nil Transport.
var ErrNilTransport = errors.New("nil transport")

// ErrNilResponse is returned when a Transport reports no error but no Response.
var ErrNilResponse = errors.New("transport returned nil response")

// APIError reports a server-side failure (HTTP status >= 500).
type APIError struct {
	Status  int
	Body    string
	Type    string
	Message string
}

func newAPIError(resp *Response) *APIError {
	return &APIError{
		Status:  resp.Status,
		Body:    resp.Body,
		Type:    fmt.Sprintf("HTTP %d", resp.Status),
		Message: "Response body: " + resp.Body,
	}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// IsAPIError reports whether err is, or wraps, an *APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
