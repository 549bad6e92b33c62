package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
)

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// HTTPTransport sends requests to the backend as JSON over HTTP.
type HTTPTransport struct {
	client  *http.Client
	baseURL atomic.Pointer[string]
	token   atomic.Pointer[string]
}

func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	t := &HTTPTransport{client: client}
	t.SetBaseURL(baseURL)
	t.SetToken("")
	return t
}

func (t *HTTPTransport) SetBaseURL(u string) {
	u = strings.TrimRight(u, "/")
	t.baseURL.Store(&u)
}

func (t *HTTPTransport) BaseURL() string { return *t.baseURL.Load() }

// SetToken sets the bearer token sent with every later request.
func (t *HTTPTransport) SetToken(tok string) { t.token.Store(&tok) }

func (t *HTTPTransport) Token() string { return *t.token.Load() }

func (t *HTTPTransport) Do(ctx context.Context, req *Request) Response {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, t.BaseURL()+req.Path, body)
	if err != nil {
		return Response{Err: &TransportError{Op: "build request", Err: err}}
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")
	if tok := t.Token(); tok != "" {
		hreq.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := t.client.Do(hreq)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return Response{Err: ErrCanceled}
		}
		return Response{Err: &TransportError{Err: unwrapURLError(err)}}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Response{StatusCode: resp.StatusCode, Err: &TransportError{Op: "read body", Err: err}}
	}

	out := Response{
		Success:    isSuccess(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Data:       data,
	}
	if !out.Success {
		out.Err = &HTTPStatusError{Code: resp.StatusCode, Detail: errorField(data)}
	}
	return out
}

// errorField extracts the envelope's "error" string, if any.
func errorField(data []byte) string {
	var env struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &env) != nil {
		return ""
	}
	return env.Error
}

// unwrapURLError strips the *url.Error wrapper so the message names the
// transport failure rather than repeating method and URL.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}
	return err
}
