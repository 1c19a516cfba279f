package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnreachable wraps every transport-level failure: DNS, refused
// connections, TLS handshakes, cancelled contexts.
var ErrUnreachable = errors.New("cannot reach server")

// Error is a non-2xx answer from the inventory API.
type Error struct {
	// Status is the HTTP status code.
	Status int
	// Message is the server's "error" field, or the status text when absent.
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// errorBody is the {"error": "..."} payload the server sends on failure.
type errorBody struct {
	Error string `json:"error"`
}
