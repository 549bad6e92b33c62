package api

import (
	"context"
	"net/http"
)

// Kind tags how a response body is interpreted.
type Kind int

const (
	KindHTTP Kind = iota // generic envelope
	KindAuth             // envelope carrying token + user
)

func (k Kind) String() string {
	if k == KindAuth {
		return "auth"
	}
	return "http"
}

// Request is one queued API call. Handler runs on the frame loop goroutine
// during Poll, never on a worker.
type Request struct {
	ID      string
	Path    string
	Method  string
	Body    []byte
	Kind    Kind
	Handler func(Response)
	Ctx     context.Context // scope; a done context drops the request
}

// Response is the outcome of a Request.
type Response struct {
	Success    bool
	StatusCode int
	Data       []byte
	Err        error // *TransportError, *HTTPStatusError, or ErrCanceled
}

func (r Response) ErrorString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func isSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
