package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Response is the status metadata of a completed round trip.
type Response struct {
	StatusCode int
	Status     string
	Proto      string
	Headers    http.Header
	Duration   time.Duration
}

func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "application/json")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// Result is what a call delivers: the full body text and the response
// metadata. Value holds the decoded body when JSON parsing was requested.
type Result struct {
	// RequestID correlates the call with its log lines.
	RequestID string
	Data      string
	Response  *Response
	Value     any
}

// Get looks up a gjson path in the body, e.g. "items.0.name".
func (r *Result) Get(path string) gjson.Result {
	return gjson.Get(r.Data, path)
}

// Decode unmarshals the body into v and reports failures as *ParseError.
func (r *Result) Decode(v any) error {
	return decodeInto(r.Data, v)
}
