package testutils

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
)

// Request builds an HTTP request for exercising the catalog handlers
// in-process, without a listening server. The catalog API is read-only,
// so most requests are a bare method and route.
type Request struct {
	method  string
	route   string
	headers http.Header
	body    []byte
}

func NewRequest(method, route string) *Request {
	return &Request{
		method:  method,
		route:   route,
		headers: http.Header{},
	}
}

func (r *Request) WithHeader(key, value string) *Request {
	r.headers.Set(key, value)
	return r
}

func (r *Request) WithBody(body []byte) *Request {
	r.body = body
	return r
}

// RunOnHandler serves the request on h and returns the recorded
// response for assertions on status, headers and body.
func (r *Request) RunOnHandler(h http.Handler) *httptest.ResponseRecorder {
	var body io.Reader
	if len(r.body) > 0 {
		body = bytes.NewReader(r.body)
	}

	req := httptest.NewRequest(r.method, r.route, body)
	for key, values := range r.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
