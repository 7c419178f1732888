package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrOffline wraps failures to reach the backend at all.
var ErrOffline = errors.New("backend unreachable")

// Error is a response the backend answered with a non-2xx status or an
// unsuccessful envelope.
type Error struct {
	StatusCode int
	Message    string
	body       []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Body returns the raw bytes of the response.
func (e *Error) Body() []byte {
	return e.body
}

func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
