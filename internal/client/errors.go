package client

import (
	"fmt"
)

// TransportError wraps a failure to reach the server.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: transport: %v", e.Op, e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx response. Message carries the envelope error
// when the body had one.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Message)
}

// APIError is a 2xx response whose envelope reports success=false.
type APIError struct {
	Op      string
	Message string
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Op, e.Message) }

// DecodeError reports a body that is not a valid envelope.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("%s: decode: %v", e.Op, e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }
