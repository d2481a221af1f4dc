package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// Client issues single-shot requests. It holds no per-call state and is safe
// for concurrent use.
type Client struct {
	httpClient      *http.Client
	transport       http.RoundTripper
	timeout         time.Duration
	validateSSL     bool
	proxyURL        string
	defaultHeaders  map[string]string
	requestIDHeader string

	logger *slog.Logger
	clock  clock.Clock
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		validateSSL:    true,
		defaultHeaders: make(map[string]string),
		logger:         slog.New(slog.DiscardHandler),
		clock:          clock.New(),
	}

	for _, opt := range opts {
		opt(c)
	}

	transport := c.transport
	if transport == nil {
		t := &http.Transport{
			MaxIdleConns:        DefaultMaxIdleConns,
			MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
			IdleConnTimeout:     DefaultIdleConnTimeout,
		}

		if !c.validateSSL {
			t.TLSClientConfig = &tls.Config{
				InsecureSkipVerify: true,
			}
		}

		if c.proxyURL != "" {
			proxyURL, err := neturl.Parse(c.proxyURL)
			if err == nil {
				t.Proxy = http.ProxyURL(proxyURL)
			}
		}
		transport = t
	}

	c.httpClient = &http.Client{
		Transport: transport,
		// Redirect responses are handed back to the caller as they are.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return c
}

// WithTimeout sets the round-trip bound used when a request carries none.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithTransport replaces the pooled transport. SSL and proxy options are
// ignored when it is set.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithRequestIDHeader sends the per-call request id under the given header
// name unless the caller already set that header.
func WithRequestIDHeader(name string) ClientOption {
	return func(c *Client) {
		c.requestIDHeader = name
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock sets the clock driving request timeouts.
func WithClock(clk clock.Clock) ClientOption {
	return func(c *Client) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// CloseIdleConnections closes pooled connections that are not in use.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// VerbFunc issues a request with one fixed method.
type VerbFunc func(ctx context.Context, target Target, body any) (*Result, error)

// Verb returns the call for m.
func (c *Client) Verb(m Method) (VerbFunc, error) {
	switch m {
	case MethodGet:
		return c.Get, nil
	case MethodPost:
		return c.Post, nil
	case MethodPut:
		return c.Put, nil
	case MethodPatch:
		return c.Patch, nil
	case MethodDelete:
		return c.Delete, nil
	case MethodHead:
		return c.Head, nil
	case MethodOptions:
		return c.Options, nil
	}
	return nil, &ConfigurationError{Field: "method", Err: errors.Errorf("unsupported method %q", string(m))}
}

func (c *Client) Get(ctx context.Context, target Target, body any) (*Result, error) {
	return c.Do(ctx, MethodGet, target, body)
}

func (c *Client) Post(ctx context.Context, target Target, body any) (*Result, error) {
	return c.Do(ctx, MethodPost, target, body)
}

func (c *Client) Put(ctx context.Context, target Target, body any) (*Result, error) {
	return c.Do(ctx, MethodPut, target, body)
}

func (c *Client) Patch(ctx context.Context, target Target, body any) (*Result, error) {
	return c.Do(ctx, MethodPatch, target, body)
}

func (c *Client) Delete(ctx context.Context, target Target, body any) (*Result, error) {
	return c.Do(ctx, MethodDelete, target, body)
}

func (c *Client) Head(ctx context.Context, target Target, body any) (*Result, error) {
	return c.Do(ctx, MethodHead, target, body)
}

func (c *Client) Options(ctx context.Context, target Target, body any) (*Result, error) {
	return c.Do(ctx, MethodOptions, target, body)
}

// Resolve is the package-level Resolve with the client's default headers
// layered beneath the caller's.
func (c *Client) Resolve(method Method, target Target, body any) (*Descriptor, error) {
	return resolve(method, target, body, c.defaultHeaders)
}

// Do resolves the request and executes it.
func (c *Client) Do(ctx context.Context, method Method, target Target, body any) (*Result, error) {
	d, err := c.Resolve(method, target, body)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, d)
}

// JSON issues a GET and returns the decoded body. Status and headers are not
// available in this form.
func (c *Client) JSON(ctx context.Context, target Target) (any, error) {
	d, err := c.Resolve(MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	d.ParseJSON = true
	if d.Header.Get("Accept") == "" {
		d.Header.Set("Accept", ContentTypeJSON)
	}

	result, err := c.Execute(ctx, d)
	if err != nil {
		return nil, err
	}
	return result.Value, nil
}

// Execute performs exactly one round trip for d and buffers the whole
// response body. It returns either a result or an error, never both.
func (c *Client) Execute(ctx context.Context, d *Descriptor) (*Result, error) {
	if d == nil || d.URL == nil {
		return nil, &ConfigurationError{Field: "descriptor", Err: errors.New("descriptor has no endpoint")}
	}

	requestID := uuid.NewString()
	logger := c.logger.With("request_id", requestID, "method", d.Method.String(), "url", d.URL.Redacted())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	var timedOut atomic.Bool
	if timeout > 0 {
		timer := c.clock.AfterFunc(timeout, func() {
			timedOut.Store(true)
			cancel()
		})
		defer timer.Stop()
	}

	var body io.Reader
	if len(d.Body) > 0 {
		body = bytes.NewReader(d.Body)
	}
	req, err := http.NewRequestWithContext(ctx, d.Method.String(), d.URL.String(), body)
	if err != nil {
		return nil, &ConfigurationError{Field: "uri", Err: err}
	}
	for k, v := range d.Header {
		req.Header[k] = append([]string(nil), v...)
	}
	if d.Host != "" {
		req.Host = d.Host
	}
	if c.requestIDHeader != "" && req.Header.Get(c.requestIDHeader) == "" {
		req.Header.Set(c.requestIDHeader, requestID)
	}

	if d.OnRequest != nil {
		d.OnRequest(&RequestHandle{Request: req, abort: cancel})
	}

	logger.Debug("sending request", "body_kind", d.BodyKind.String(), "content_length", len(d.Body))
	start := c.clock.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.failure(logger, err, timedOut.Load(), timeout)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.failure(logger, err, timedOut.Load(), timeout)
	}

	result := &Result{
		RequestID: requestID,
		Data:      string(data),
		Response: &Response{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Proto:      resp.Proto,
			Headers:    resp.Header,
			Duration:   c.clock.Since(start),
		},
	}
	logger.Debug("request completed",
		"status", resp.StatusCode,
		"bytes", len(data),
		"duration", result.Response.Duration)

	if d.ParseJSON {
		value, err := DecodeJSON(result.Data)
		if err != nil {
			return nil, err
		}
		result.Value = value
	}

	return result, nil
}

// failure maps an error from the transport to what the caller sees: a
// TimeoutError when our timer fired, otherwise the transport's own error
// without the *url.Error envelope net/http adds.
func (c *Client) failure(logger *slog.Logger, err error, timedOut bool, after time.Duration) error {
	if timedOut {
		logger.Warn("request timed out", "timeout", after)
		return &TimeoutError{After: after}
	}
	logger.Debug("request failed", "error", err)

	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
