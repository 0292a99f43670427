package api

import (
	"errors"
	"fmt"
)

// DefaultErrorMessage is shown when a failed response carries no message.
const DefaultErrorMessage = "Something went wrong! Please contact Support"

// ErrUnexpectedResponse is returned when a 2xx body cannot be decoded as expected.
var ErrUnexpectedResponse = errors.New("unexpected response")

// Error is a non-2xx reply from the backend.
type Error struct {
	Status  int
	Message string
	Path    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Path, e.Status, e.Message)
}

// Message returns the user-facing text of err: the backend's message for an
// *Error, DefaultErrorMessage otherwise.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return DefaultErrorMessage
}
