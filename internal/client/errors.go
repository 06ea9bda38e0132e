package client

import (
	"errors"
	"fmt"
)

// ErrValidation is returned when a message body is empty or whitespace only.
var ErrValidation = errors.New("message text is empty")

// NetworkError means the request never reached the backend or no response
// came back.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response.
type ServerError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: server returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Status, e.Message)
}

// Retryable reports whether repeating the call may succeed. Network
// failures and 5xx/429 responses are retryable, validation and other 4xx
// are not.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, ErrValidation) {
		return false
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		return srvErr.Status >= 500 || srvErr.Status == 429
	}
	return false
}
