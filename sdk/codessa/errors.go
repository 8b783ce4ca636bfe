package codessa

import (
	"errors"
	"fmt"
)

// TransportError reports a network, timeout or non-2xx failure on a
// synchronous call. Op carries the method-specific prefix; Status is the
// HTTP status code when the server replied, 0 otherwise.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StreamError reports a push connection that failed or was closed before
// the terminal envelope arrived.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stream connection failed: %v", e.Err)
	}
	return "stream connection failed"
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// statusError is the internal form of a non-2xx response before the public
// method wraps it.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("HTTP %d", e.code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.code, e.body)
}

// wrapTransport wraps err into a TransportError with the given operation
// prefix, lifting the HTTP status when one is known.
func wrapTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	te := &TransportError{Op: op, Err: err}
	var se *statusError
	if errors.As(err, &se) {
		te.Status = se.code
	}
	return te
}
