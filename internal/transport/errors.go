package transport

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when a request still fails authorization
// after the single refresh-and-retry, or when no usable refresh token
// exists. The UI treats it as a forced re-login.
var ErrUnauthorized = errors.New("transport: unauthorized")

// UnreachableError wraps a network-level failure (no HTTP status was ever
// produced). Callers treat it uniformly with HTTP errors; the offline
// queue keys its fallback behavior off this type.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// IsUnreachable reports whether err is a network-level failure.
func IsUnreachable(err error) bool {
	var ue *UnreachableError
	return errors.As(err, &ue)
}

// StatusError is a non-auth HTTP error (4xx validation, 5xx server) with
// the server-provided detail text when one was decodable.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server error (%d): %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("request failed with status %d", e.Code)
}
