package client

import (
	"errors"
	"fmt"
)

// Client errors.
var (
	// ErrClientClosed is returned by every operation after Close.
	// A closed client cannot be revived; create a new one.
	ErrClientClosed = errors.New("client: client is closed")

	// ErrConnectionClosed rejects calls that were in flight when the
	// connection went away. The calls were not retried; resubmit them.
	ErrConnectionClosed = errors.New("client: connection closed")

	// ErrUnavailable resolves connection attempts that were abandoned
	// because the client was closed while connecting.
	ErrUnavailable = errors.New("client: service unavailable")
)

// APIError is a domain error returned by the remote service in a
// response header. The SDK surfaces it verbatim; interpreting and
// presenting domain errors is the caller's concern.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code == "" {
		return "api error: " + e.Message
	}
	return fmt.Sprintf("api error %s: %s", e.Code, e.Message)
}
