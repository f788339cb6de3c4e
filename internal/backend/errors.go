package backend

import (
	"errors"
	"fmt"
)

// ErrTransport covers every failure where the server gave no usable answer:
// no response, a non-2xx status without an envelope, or a malformed body.
var ErrTransport = errors.New("backend unreachable")

// ConnectivityMessage is shown for transport failures.
const ConnectivityMessage = "We couldn't reach the server. Please check your connection and try again."

// APIError is a business error the server reported in its envelope. Its
// message is shown to the user as is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

type transportError struct {
	op  string
	err error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *transportError) Unwrap() []error {
	return []error{ErrTransport, e.err}
}

func transport(op string, err error) error {
	return &transportError{op: op, err: err}
}

// UserMessage renders any error from this package for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return ConnectivityMessage
}

// IsUnauthorized reports a 401/403 answer, which ends the session.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.Status == 401 || apiErr.Status == 403)
}
