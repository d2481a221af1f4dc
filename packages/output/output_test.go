package output

import (
	"bytes"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitreq/packages/bench"
	"github.com/abdul-hamid-achik/hitreq/packages/history"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

func sampleCall() *Call {
	return &Call{
		Method: "GET",
		URL:    "http://example.test/users",
		Result: &http.Result{
			RequestID: "req-1",
			Data:      `{"id":1,"name":"ann"}`,
			Response: &http.Response{
				StatusCode: 200,
				Status:     "200 OK",
				Proto:      "HTTP/1.1",
				Headers:    nethttp.Header{"Content-Type": {"application/json"}, "X-B": {"2"}, "X-A": {"1"}},
				Duration:   42 * time.Millisecond,
			},
		},
	}
}

func newConsole(buf *bytes.Buffer, verbose bool) *ConsoleFormatter {
	return NewConsoleFormatter(WithWriter(buf), WithVerbose(verbose), WithNoColor(true))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatConsole, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestConsole_FormatCall(t *testing.T) {
	var buf bytes.Buffer
	newConsole(&buf, false).FormatCall(sampleCall())

	assert.Equal(t, "{\n  \"id\": 1,\n  \"name\": \"ann\"\n}\n", buf.String())
}

func TestConsole_FormatCall_Verbose(t *testing.T) {
	var buf bytes.Buffer
	newConsole(&buf, true).FormatCall(sampleCall())

	out := buf.String()
	assert.Contains(t, out, "GET http://example.test/users\n")
	assert.Contains(t, out, "HTTP/1.1 200 OK (42ms)\n")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("X-A: 1")), bytes.Index(buf.Bytes(), []byte("X-B: 2")))
}

func TestConsole_FormatCall_PlainBody(t *testing.T) {
	call := sampleCall()
	call.Result.Data = "plain"
	call.Result.Response.Headers = nethttp.Header{"Content-Type": {"text/plain"}}

	var buf bytes.Buffer
	newConsole(&buf, false).FormatCall(call)
	assert.Equal(t, "plain\n", buf.String())
}

func TestConsole_FormatCall_Query(t *testing.T) {
	call := sampleCall()
	call.Query = "name"
	call.Value = "ann"

	var buf bytes.Buffer
	newConsole(&buf, false).FormatCall(call)
	assert.Equal(t, "ann\n", buf.String())

	call.Value = map[string]any{"a": 1.0}
	buf.Reset()
	newConsole(&buf, false).FormatCall(call)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestConsole_FormatCall_Error(t *testing.T) {
	var buf bytes.Buffer
	newConsole(&buf, false).FormatCall(&Call{Method: "GET", URL: "http://x.test", Err: errors.New("timeout")})
	assert.Equal(t, "Error: timeout\n", buf.String())
}

func TestConsole_FormatBench(t *testing.T) {
	var buf bytes.Buffer
	newConsole(&buf, false).FormatBench(&bench.Summary{
		Duration:      time.Second,
		TotalRequests: 10,
		SuccessCount:  8,
		ErrorCount:    2,
		TimeoutCount:  1,
		RPS:           10,
		SuccessRate:   0.8,
		ErrorRate:     0.2,
		P50:           5 * time.Millisecond,
		StatusCodes:   map[int]int64{200: 7, 404: 1},
		Errors:        []bench.ErrorCount{{Message: "EOF", Count: 1}},
	})

	out := buf.String()
	assert.Contains(t, out, "Requests:  10 in 1s (10.0/s)")
	assert.Contains(t, out, "Succeeded: 8 (80.0%)")
	assert.Contains(t, out, "Failed:    2 (20.0%)")
	assert.Contains(t, out, "Timeouts:  1")
	assert.Contains(t, out, "p50 5ms")
	assert.Contains(t, out, "200  7")
	assert.Contains(t, out, "EOF  1")
}

func TestConsole_FormatHistory(t *testing.T) {
	var buf bytes.Buffer
	newConsole(&buf, true).FormatHistory(nil)
	assert.Equal(t, "no requests recorded\n", buf.String())

	buf.Reset()
	newConsole(&buf, true).FormatHistory([]*history.Entry{
		{Method: "GET", URL: "http://a.test/", Status: 200, DurationMs: 5, CreatedAt: time.Now()},
		{Method: "POST", URL: "http://b.test/", Error: "timeout", CreatedAt: time.Now()},
	})
	out := buf.String()
	assert.Contains(t, out, "GET     200 http://a.test/ (5ms)")
	assert.Contains(t, out, "POST    ERR http://b.test/")
	assert.Contains(t, out, "    timeout\n")
}

func TestJSON_FormatCall(t *testing.T) {
	var buf bytes.Buffer
	NewJSONFormatter(JSONWithWriter(&buf)).FormatCall(sampleCall())

	var got JSONCall
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, 200, got.Response.StatusCode)
	assert.Equal(t, 42.0, got.Response.Duration)
	assert.Equal(t, `{"id":1,"name":"ann"}`, got.Body)
}

func TestJSON_FormatCall_Error(t *testing.T) {
	var buf bytes.Buffer
	NewJSONFormatter(JSONWithWriter(&buf)).FormatCall(&Call{Method: "GET", URL: "http://x.test", Err: errors.New("nooooo")})

	assert.JSONEq(t, `{"method":"GET","url":"http://x.test","error":"nooooo"}`, buf.String())
}

func TestJSON_FormatBenchAndHistory(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))

	f.FormatBench(&bench.Summary{TotalRequests: 3, SuccessCount: 3, P99: 1500 * time.Microsecond})
	var b JSONBench
	require.NoError(t, json.Unmarshal(buf.Bytes(), &b))
	assert.Equal(t, int64(3), b.Total)
	assert.Equal(t, 1.5, b.Latency.P99)

	buf.Reset()
	when := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	f.FormatHistory([]*history.Entry{{ID: 9, Method: "GET", URL: "http://a.test/", Status: 200, CreatedAt: when}})
	var h []JSONHistoryEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &h))
	require.Len(t, h, 1)
	assert.Equal(t, int64(9), h[0].ID)
	assert.Equal(t, "2026-03-04T05:06:07Z", h[0].Time)
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	assert.IsType(t, &JSONFormatter{}, New(FormatJSON, &buf, false, true))
	assert.IsType(t, &ConsoleFormatter{}, New(FormatConsole, &buf, false, true))
}

func TestFormatCall_ValueOnly(t *testing.T) {
	call := &Call{Method: "GET", URL: "http://x.test", Query: "body", Value: map[string]any{"test": "ok"}}

	var buf bytes.Buffer
	newConsole(&buf, true).FormatCall(call)
	assert.Equal(t, "{\n  \"test\": \"ok\"\n}\n", buf.String())

	buf.Reset()
	NewJSONFormatter(JSONWithWriter(&buf)).FormatCall(call)
	assert.JSONEq(t, `{"method":"GET","url":"http://x.test","query":"body","value":{"test":"ok"}}`, buf.String())
}
