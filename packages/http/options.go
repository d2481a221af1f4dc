package http

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Target is what a verb is aimed at: either a URL or *RequestOptions.
type Target interface {
	requestOptions() (*RequestOptions, error)
}

// URL is a complete endpoint such as "https://example.com/path?q=1".
type URL string

func (u URL) requestOptions() (*RequestOptions, error) {
	return &RequestOptions{URI: string(u)}, nil
}

// RequestOptions describes a request in more detail than a bare URL.
//
// The endpoint is taken from URI when set, otherwise from Protocol, Host and
// Path. Headers set here are never replaced by derived ones.
type RequestOptions struct {
	URI string

	Protocol string // "http" or "https", defaults to "http"
	Host     string // host[:port]
	Path     string // may carry a raw query, defaults to "/"

	Query   map[string]string
	Headers map[string]string

	// Form is sent url-encoded when no body argument is given.
	Form map[string]string
	// JSONBody is serialized as the body when no body argument is given.
	JSONBody any
	// ParseJSON asks for the response body to be decoded into Result.Value.
	ParseJSON bool

	Timeout time.Duration

	// OnRequest is called once with the live request before it is sent.
	OnRequest func(*RequestHandle)
}

func (o *RequestOptions) requestOptions() (*RequestOptions, error) {
	if o == nil {
		return nil, &ConfigurationError{Field: "target", Err: errors.New("nil request options")}
	}
	return o, nil
}

// SetHeader sets a caller header and returns the options for chaining.
func (o *RequestOptions) SetHeader(key, value string) *RequestOptions {
	if o.Headers == nil {
		o.Headers = make(map[string]string)
	}
	o.Headers[key] = value
	return o
}

func (o *RequestOptions) SetQueryParam(key, value string) *RequestOptions {
	if o.Query == nil {
		o.Query = make(map[string]string)
	}
	o.Query[key] = value
	return o
}

func (o *RequestOptions) SetTimeout(d time.Duration) *RequestOptions {
	o.Timeout = d
	return o
}

// RequestHandle exposes the in-flight request to an OnRequest observer.
type RequestHandle struct {
	Request *http.Request

	abort func()
}

// Abort cancels the request. The call then fails with the transport's
// cancellation error.
func (h *RequestHandle) Abort() {
	if h.abort != nil {
		h.abort()
	}
}
