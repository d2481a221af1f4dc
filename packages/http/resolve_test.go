package http

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_NoBody(t *testing.T) {
	d, err := Resolve(MethodGet, URL("http://example.test/path"), nil)
	require.NoError(t, err)

	assert.Equal(t, MethodGet, d.Method)
	assert.Equal(t, "http://example.test/path", d.URL.String())
	assert.Equal(t, BodyNone, d.BodyKind)
	assert.Nil(t, d.Body)
	assert.Empty(t, d.Header.Get("Content-Type"))
	assert.Empty(t, d.Header.Get("Content-Length"))
	assert.Equal(t, "GET http://example.test/path", d.String())
}

func TestResolve_Bodies(t *testing.T) {
	tests := []struct {
		name        string
		body        any
		kind        BodyKind
		contentType string
		payload     string
	}{
		{"string", "hello", BodyRaw, ContentTypeForm, "hello"},
		{"bytes", []byte("hello"), BodyRaw, ContentTypeForm, "hello"},
		{"reader", strings.NewReader("from reader"), BodyRaw, ContentTypeForm, "from reader"},
		{"buffer", bytes.NewBufferString("buf"), BodyRaw, ContentTypeForm, "buf"},
		{"url values", url.Values{"b": {"2"}, "a": {"1"}}, BodyForm, ContentTypeForm, "a=1&b=2"},
		{"raw json", json.RawMessage(`{"a":1}`), BodyJSON, ContentTypeJSON, `{"a":1}`},
		{"map", map[string]int{"a": 1}, BodyJSON, ContentTypeJSON, `{"a":1}`},
		{"struct", struct {
			Name string `json:"name"`
		}{"x"}, BodyJSON, ContentTypeJSON, `{"name":"x"}`},
		{"slice", []int{1, 2}, BodyJSON, ContentTypeJSON, `[1,2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Resolve(MethodPost, URL("http://example.test/"), tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, d.BodyKind)
			assert.Equal(t, tt.contentType, d.Header.Get("Content-Type"))
			assert.Equal(t, tt.payload, string(d.Body))
			assert.Equal(t, len(tt.payload), mustAtoi(t, d.Header.Get("Content-Length")))
		})
	}
}

func TestResolve_EmptyRawBodyIsAbsent(t *testing.T) {
	for _, body := range []any{"", []byte{}} {
		d, err := Resolve(MethodPost, URL("http://example.test/"), body)
		require.NoError(t, err)
		assert.Equal(t, BodyNone, d.BodyKind)
		assert.Empty(t, d.Header.Get("Content-Length"))
	}
}

func TestResolve_InvalidRawJSON(t *testing.T) {
	_, err := Resolve(MethodPost, URL("http://example.test/"), json.RawMessage(`{nope`))
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestResolve_UnencodableJSON(t *testing.T) {
	_, err := Resolve(MethodPost, URL("http://example.test/"), map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestResolve_BodyArgumentBeatsOptions(t *testing.T) {
	d, err := Resolve(MethodPost, &RequestOptions{
		URI:      "http://example.test/",
		JSONBody: map[string]string{"ignored": "yes"},
	}, "explicit")
	require.NoError(t, err)
	assert.Equal(t, BodyRaw, d.BodyKind)
	assert.Equal(t, "explicit", string(d.Body))
	// JSONBody still asks for JSON back.
	assert.Equal(t, ContentTypeJSON, d.Header.Get("Accept"))
}

func TestResolve_JSONBodyOption(t *testing.T) {
	d, err := Resolve(MethodPatch, &RequestOptions{
		URI:      "http://example.test/",
		JSONBody: map[string]any{"a": []int{1}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, BodyJSON, d.BodyKind)
	assert.Equal(t, ContentTypeJSON, d.Header.Get("Content-Type"))
	assert.Equal(t, ContentTypeJSON, d.Header.Get("Accept"))
	assert.JSONEq(t, `{"a":[1]}`, string(d.Body))
	assert.False(t, d.ParseJSON)
}

func TestResolve_FormOption(t *testing.T) {
	d, err := Resolve(MethodPost, &RequestOptions{
		URI:  "http://example.test/",
		Form: map[string]string{"q": "a&b"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, BodyForm, d.BodyKind)
	assert.Equal(t, "q=a%26b", string(d.Body))
	assert.Empty(t, d.Header.Get("Accept"))
}

func TestResolve_HeaderPrecedence(t *testing.T) {
	d, err := resolve(MethodPost, &RequestOptions{
		URI: "http://example.test/",
		Headers: map[string]string{
			"content-type": "application/octet-stream",
			"X-Both":       "caller",
		},
	}, "abc", map[string]string{
		"X-Both":    "default",
		"X-Default": "only",
		"Accept":    "text/plain",
	})
	require.NoError(t, err)

	assert.Equal(t, "application/octet-stream", d.Header.Get("Content-Type"))
	assert.Len(t, d.Header.Values("Content-Type"), 1)
	assert.Equal(t, "caller", d.Header.Get("X-Both"))
	assert.Equal(t, "only", d.Header.Get("X-Default"))
	assert.Equal(t, "text/plain", d.Header.Get("Accept"))
	assert.Equal(t, "3", d.Header.Get("Content-Length"))
}

func TestResolve_ContentLength(t *testing.T) {
	d, err := Resolve(MethodPost, &RequestOptions{
		URI:     "http://example.test/",
		Headers: map[string]string{"Content-Length": "3"},
	}, "abc")
	require.NoError(t, err)
	assert.Equal(t, "3", d.Header.Get("Content-Length"))

	_, err = Resolve(MethodPost, &RequestOptions{
		URI:     "http://example.test/",
		Headers: map[string]string{"Content-Length": "4"},
	}, "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicts with body size 3")

	_, err = Resolve(MethodGet, &RequestOptions{
		URI:     "http://example.test/",
		Headers: map[string]string{"Content-Length": "abc"},
	}, nil)
	assert.True(t, IsConfigurationError(err))
}

func TestResolve_HostHeader(t *testing.T) {
	d, err := Resolve(MethodGet, &RequestOptions{
		URI:     "http://10.0.0.1:8080/",
		Headers: map[string]string{"host": "api.example.test"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "api.example.test", d.Host)
	assert.Empty(t, d.Header.Get("Host"))
	assert.Equal(t, "10.0.0.1:8080", d.URL.Host)
}

func TestResolve_Query(t *testing.T) {
	tests := []struct {
		name  string
		uri   string
		query map[string]string
		want  string
	}{
		{"no query", "http://example.test/a", nil, "http://example.test/a"},
		{"empty query", "http://example.test/a", map[string]string{}, "http://example.test/a"},
		{"sorted and escaped", "http://example.test/a", map[string]string{"b": "x y", "a": "1&2"}, "http://example.test/a?a=1%262&b=x+y"},
		{"existing query", "http://example.test/a?z=0", map[string]string{"a": "1"}, "http://example.test/a?z=0&a=1"},
		{"fragment dropped", "http://example.test/a#top", map[string]string{"a": "1"}, "http://example.test/a?a=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Resolve(MethodGet, &RequestOptions{URI: tt.uri, Query: tt.query}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.URL.String())
		})
	}
}

func TestResolve_Endpoint(t *testing.T) {
	tests := []struct {
		name string
		opts *RequestOptions
		want string
	}{
		{"uri wins", &RequestOptions{URI: "https://a.test/x", Host: "b.test"}, "https://a.test/x"},
		{"default protocol and path", &RequestOptions{Host: "b.test"}, "http://b.test/"},
		{"https with colon", &RequestOptions{Protocol: "https:", Host: "b.test:8443", Path: "/v1"}, "https://b.test:8443/v1"},
		{"path without slash", &RequestOptions{Host: "b.test", Path: "v1?x=1"}, "http://b.test/v1?x=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Resolve(MethodGet, tt.opts, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.URL.String())
		})
	}
}

func TestResolve_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		method Method
		target Target
		field  string
	}{
		{"bad method", Method("get"), URL("http://example.test/"), "method"},
		{"nil target", MethodGet, nil, "target"},
		{"nil options", MethodGet, (*RequestOptions)(nil), "target"},
		{"missing host", MethodGet, &RequestOptions{Path: "/x"}, "host"},
		{"bad scheme", MethodGet, URL("file:///etc/passwd"), "uri"},
		{"relative", MethodGet, URL("/just/a/path"), "uri"},
		{"unparsable", MethodGet, URL("http://[::1"), "uri"},
		{"form and json", MethodPost, &RequestOptions{
			URI:      "http://example.test/",
			Form:     map[string]string{"a": "1"},
			JSONBody: 1,
		}, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Resolve(tt.method, tt.target, nil)
			require.Error(t, err)
			assert.Nil(t, d)

			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestResolve_CarriesCallSettings(t *testing.T) {
	called := false
	d, err := Resolve(MethodGet, &RequestOptions{
		URI:       "http://example.test/",
		Timeout:   time.Second,
		ParseJSON: true,
		OnRequest: func(*RequestHandle) { called = true },
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, time.Second, d.Timeout)
	assert.True(t, d.ParseJSON)
	assert.Equal(t, ContentTypeJSON, d.Header.Get("Accept"))
	require.NotNil(t, d.OnRequest)
	d.OnRequest(&RequestHandle{})
	assert.True(t, called)
}

func TestResolve_FreshDescriptorPerCall(t *testing.T) {
	opts := (&RequestOptions{URI: "http://example.test/"}).
		SetHeader("X-A", "1").
		SetQueryParam("q", "1").
		SetTimeout(time.Second)

	first, err := Resolve(MethodGet, opts, nil)
	require.NoError(t, err)
	second, err := Resolve(MethodGet, opts, nil)
	require.NoError(t, err)

	first.Header.Set("X-A", "changed")
	assert.Equal(t, "1", second.Header.Get("X-A"))
	assert.Equal(t, "http://example.test/?q=1", second.URL.String())
	assert.Equal(t, "http://example.test/", opts.URI)
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
