package api

import (
	"errors"
	"fmt"
)

// ErrCanceled is reported for requests whose scope ended before dispatch.
var ErrCanceled = errors.New("request canceled")

// TransportError covers failures below HTTP: DNS, refused connections,
// timeouts, broken bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError is a transport-successful exchange with a non-2xx status.
// Detail carries the server's "error" field when the body had one.
type HTTPStatusError struct {
	Code   int
	Detail string
}

func (e *HTTPStatusError) Error() string { return fmt.Sprintf("HTTP %d", e.Code) }

// ParseError is a malformed or unexpected response body.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return "parse " + e.What
	}
	return fmt.Sprintf("parse %s: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RejectedError is a 2xx response whose envelope says success=false.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "request rejected"
	}
	return e.Message
}

// Message returns the text to show on screen for err: the server's own
// message when it sent one, the error text otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var hs *HTTPStatusError
	if errors.As(err, &hs) && hs.Detail != "" {
		return hs.Detail
	}
	return err.Error()
}
