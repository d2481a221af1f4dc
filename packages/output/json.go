package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/hitreq/packages/bench"
	"github.com/abdul-hamid-achik/hitreq/packages/history"
)

// JSONCall represents a call in JSON output
type JSONCall struct {
	RequestID string        `json:"requestId,omitempty"`
	Method    string        `json:"method"`
	URL       string        `json:"url"`
	Error     string        `json:"error,omitempty"`
	Response  *JSONResponse `json:"response,omitempty"`
	Body      string        `json:"body,omitempty"`
	Query     string        `json:"query,omitempty"`
	Value     any           `json:"value,omitempty"`
}

// JSONResponse represents response details
type JSONResponse struct {
	StatusCode int                 `json:"statusCode"`
	Status     string              `json:"status"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Duration   float64             `json:"duration"`
}

// JSONBench represents a bench summary
type JSONBench struct {
	Total       int64            `json:"total"`
	Success     int64            `json:"success"`
	Errors      int64            `json:"errors"`
	Timeouts    int64            `json:"timeouts"`
	Duration    float64          `json:"duration"`
	RPS         float64          `json:"rps"`
	Latency     JSONLatency      `json:"latency"`
	StatusCodes map[int]int64    `json:"statusCodes,omitempty"`
	ErrorCounts map[string]int64 `json:"errorCounts,omitempty"`
}

// JSONLatency holds latency figures in milliseconds
type JSONLatency struct {
	Min  float64 `json:"min"`
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
	P50  float64 `json:"p50"`
	P95  float64 `json:"p95"`
	P99  float64 `json:"p99"`
}

// JSONHistoryEntry represents a history row
type JSONHistoryEntry struct {
	ID        int64  `json:"id"`
	RequestID string `json:"requestId,omitempty"`
	Method    string `json:"method"`
	URL       string `json:"url"`
	Status    int    `json:"status,omitempty"`
	Duration  int64  `json:"duration"`
	Bytes     int    `json:"bytes"`
	Error     string `json:"error,omitempty"`
	Time      string `json:"time"`
}

// JSONFormatter writes one JSON document per formatted item
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) encode(v any) {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}

func (f *JSONFormatter) FormatCall(call *Call) {
	out := JSONCall{
		Method: call.Method,
		URL:    call.URL,
		Query:  call.Query,
		Value:  call.Value,
	}

	if call.Err != nil {
		out.Error = call.Err.Error()
		f.encode(out)
		return
	}

	if call.Result == nil {
		f.encode(out)
		return
	}

	resp := call.Result.Response
	out.RequestID = call.Result.RequestID
	out.Response = &JSONResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Headers,
		Duration:   ms(resp.Duration),
	}
	if call.Query == "" {
		out.Body = call.Result.Data
	}
	f.encode(out)
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func (f *JSONFormatter) FormatBench(s *bench.Summary) {
	out := JSONBench{
		Total:    s.TotalRequests,
		Success:  s.SuccessCount,
		Errors:   s.ErrorCount,
		Timeouts: s.TimeoutCount,
		Duration: ms(s.Duration),
		RPS:      s.RPS,
		Latency: JSONLatency{
			Min:  ms(s.Min),
			Mean: ms(s.Mean),
			Max:  ms(s.Max),
			P50:  ms(s.P50),
			P95:  ms(s.P95),
			P99:  ms(s.P99),
		},
		StatusCodes: s.StatusCodes,
	}
	if len(s.Errors) > 0 {
		out.ErrorCounts = make(map[string]int64, len(s.Errors))
		for _, e := range s.Errors {
			out.ErrorCounts[e.Message] = e.Count
		}
	}
	f.encode(out)
}

func (f *JSONFormatter) FormatHistory(entries []*history.Entry) {
	out := make([]JSONHistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, JSONHistoryEntry{
			ID:        e.ID,
			RequestID: e.RequestID,
			Method:    e.Method,
			URL:       e.URL,
			Status:    e.Status,
			Duration:  e.DurationMs,
			Bytes:     e.Bytes,
			Error:     e.Error,
			Time:      e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	f.encode(out)
}

func (f *JSONFormatter) FormatError(err error) {
	f.encode(map[string]string{"error": err.Error()})
}
