package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// BodyKind tells which of the mutually exclusive body encodings is active.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyRaw
	BodyJSON
	BodyForm
)

func (k BodyKind) String() string {
	switch k {
	case BodyRaw:
		return "raw"
	case BodyJSON:
		return "json"
	case BodyForm:
		return "form"
	default:
		return "none"
	}
}

// Descriptor is a fully resolved request, built fresh for every call.
type Descriptor struct {
	Method Method
	URL    *url.URL
	Header http.Header
	// Host overrides the Host header sent on the wire when the caller set one.
	Host string

	Body     []byte
	BodyKind BodyKind

	Timeout   time.Duration
	ParseJSON bool
	OnRequest func(*RequestHandle)
}

func (d *Descriptor) String() string {
	return d.Method.String() + " " + d.URL.String()
}

// Resolve turns caller input into a Descriptor. body, when non-nil, takes
// precedence over RequestOptions.Form and RequestOptions.JSONBody.
func Resolve(method Method, target Target, body any) (*Descriptor, error) {
	return resolve(method, target, body, nil)
}

// resolve layers defaults beneath the caller's own headers; both beat the
// derived content headers.
func resolve(method Method, target Target, body any, defaults map[string]string) (*Descriptor, error) {
	if !method.Valid() {
		return nil, &ConfigurationError{Field: "method", Err: errors.Errorf("unsupported method %q", string(method))}
	}
	if target == nil {
		return nil, &ConfigurationError{Field: "target", Err: errors.New("no endpoint given")}
	}
	opts, err := target.requestOptions()
	if err != nil {
		return nil, err
	}

	u, err := resolveEndpoint(opts)
	if err != nil {
		return nil, err
	}

	payload, kind, contentType, err := selectBody(opts, body)
	if err != nil {
		return nil, err
	}

	header := make(http.Header)
	for k, v := range defaults {
		header.Set(k, v)
	}
	for k, v := range opts.Headers {
		header.Set(k, v)
	}

	derived := make(http.Header)
	if kind != BodyNone {
		derived.Set("Content-Type", contentType)
		derived.Set("Content-Length", strconv.Itoa(len(payload)))
	}
	if opts.JSONBody != nil || opts.ParseJSON {
		derived.Set("Accept", ContentTypeJSON)
	}
	for k, v := range derived {
		if _, ok := header[k]; !ok {
			header[k] = v
		}
	}

	if cl := header.Get("Content-Length"); cl != "" {
		n, err := strconv.Atoi(cl)
		if err != nil || n != len(payload) {
			return nil, &ConfigurationError{
				Field: "headers",
				Err:   errors.Errorf("content-length %q conflicts with body size %d", cl, len(payload)),
			}
		}
	}

	host := header.Get("Host")
	header.Del("Host")

	appendQuery(u, opts.Query)

	return &Descriptor{
		Method:    method,
		URL:       u,
		Header:    header,
		Host:      host,
		Body:      payload,
		BodyKind:  kind,
		Timeout:   opts.Timeout,
		ParseJSON: opts.ParseJSON,
		OnRequest: opts.OnRequest,
	}, nil
}

func resolveEndpoint(opts *RequestOptions) (*url.URL, error) {
	raw := opts.URI
	if raw == "" {
		if opts.Host == "" {
			return nil, &ConfigurationError{Field: "host", Err: errors.New("options carry neither a uri nor a host")}
		}
		scheme := strings.ToLower(strings.TrimSuffix(opts.Protocol, ":"))
		if scheme == "" {
			scheme = "http"
		}
		path := opts.Path
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		raw = scheme + "://" + opts.Host + path
	}
	return ParseEndpoint(raw)
}

// ParseEndpoint parses and validates an absolute http or https URL.
func ParseEndpoint(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &ConfigurationError{Field: "uri", Err: errors.Wrap(err, "parsing endpoint")}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ConfigurationError{
			Field: "uri",
			Err:   errors.Errorf("unsupported URL scheme %q (only http and https are allowed)", u.Scheme),
		}
	}
	if u.Host == "" {
		return nil, &ConfigurationError{Field: "uri", Err: errors.New("URL must have a host")}
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u, nil
}

func selectBody(opts *RequestOptions, body any) ([]byte, BodyKind, string, error) {
	if body != nil {
		return encodeBody(body)
	}
	switch {
	case opts.Form != nil && opts.JSONBody != nil:
		return nil, BodyNone, "", &ConfigurationError{
			Field: "body",
			Err:   errors.New("form and JSON body are mutually exclusive"),
		}
	case opts.Form != nil:
		values := make(url.Values, len(opts.Form))
		for k, v := range opts.Form {
			values.Set(k, v)
		}
		return encodeBody(values)
	case opts.JSONBody != nil:
		return encodeJSON(opts.JSONBody)
	}
	return nil, BodyNone, "", nil
}

func encodeBody(body any) ([]byte, BodyKind, string, error) {
	switch b := body.(type) {
	case string:
		return rawBody([]byte(b), BodyRaw)
	case []byte:
		return rawBody(b, BodyRaw)
	case url.Values:
		return rawBody([]byte(b.Encode()), BodyForm)
	case json.RawMessage:
		return encodeJSON(b)
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, BodyNone, "", &ConfigurationError{Field: "body", Err: errors.Wrap(err, "reading body")}
		}
		return rawBody(data, BodyRaw)
	default:
		return encodeJSON(body)
	}
}

// rawBody treats an empty payload as no body at all.
func rawBody(data []byte, kind BodyKind) ([]byte, BodyKind, string, error) {
	if len(data) == 0 {
		return nil, BodyNone, "", nil
	}
	return data, kind, ContentTypeForm, nil
}

func encodeJSON(v any) ([]byte, BodyKind, string, error) {
	if raw, ok := v.(json.RawMessage); ok {
		if !json.Valid(raw) {
			return nil, BodyNone, "", &ConfigurationError{Field: "body", Err: errors.New("raw JSON body is not valid JSON")}
		}
		return raw, BodyJSON, ContentTypeJSON, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, BodyNone, "", &ConfigurationError{Field: "body", Err: errors.Wrap(err, "encoding JSON body")}
	}
	return data, BodyJSON, ContentTypeJSON, nil
}

func appendQuery(u *url.URL, query map[string]string) {
	if len(query) == 0 {
		return
	}
	values := make(url.Values, len(query))
	for k, v := range query {
		values.Set(k, v)
	}
	if u.RawQuery == "" {
		u.RawQuery = values.Encode()
		return
	}
	u.RawQuery += "&" + values.Encode()
}
