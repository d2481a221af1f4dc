package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/hitreq/packages/bench"
	"github.com/abdul-hamid-achik/hitreq/packages/history"
)

// formatValue formats a value for display, truncating large values
func formatValue(v any, maxLen int) string {
	str := fmt.Sprintf("%v", v)
	if maxLen > 0 && len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose prints the request line and response headers.
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 500:
		return color.New(color.FgRed, color.Bold)
	case code >= 400:
		return color.New(color.FgYellow, color.Bold)
	case code >= 300:
		return color.New(color.FgCyan, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}

// FormatCall prints the status line, the headers when verbose, and then
// the body or the queried value. A call without a Result prints only its
// Value.
func (f *ConsoleFormatter) FormatCall(call *Call) {
	if call.Err != nil {
		if f.verbose {
			f.requestLine(call)
		}
		f.FormatError(call.Err)
		return
	}

	if call.Result == nil {
		fmt.Fprintln(f.writer, renderValue(call.Value))
		return
	}

	resp := call.Result.Response
	dim := color.New(color.Faint).SprintFunc()

	if f.verbose {
		f.requestLine(call)
		fmt.Fprintf(f.writer, "%s %s\n",
			statusColor(resp.StatusCode).Sprint(resp.Proto+" "+resp.Status),
			dim(fmt.Sprintf("(%dms)", resp.DurationMs())))
		f.headers(resp.Headers)
		fmt.Fprintln(f.writer)
	}

	if call.Query != "" {
		fmt.Fprintln(f.writer, renderValue(call.Value))
		return
	}

	body := call.Result.Data
	if resp.IsJSON() {
		body = indentJSON(body)
	}
	if body != "" {
		fmt.Fprint(f.writer, body)
		if !strings.HasSuffix(body, "\n") {
			fmt.Fprintln(f.writer)
		}
	}
}

func (f *ConsoleFormatter) requestLine(call *Call) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold(call.Method), call.URL)
}

func (f *ConsoleFormatter) headers(h map[string][]string) {
	cyan := color.New(color.FgCyan).SprintFunc()

	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range h[k] {
			fmt.Fprintf(f.writer, "%s: %s\n", cyan(k), v)
		}
	}
}

// renderValue prints strings bare and everything else as JSON.
func renderValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return formatValue(v, 0)
	}
	return string(data)
}

func indentJSON(body string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(body), "", "  "); err != nil {
		return body
	}
	return buf.String()
}

func (f *ConsoleFormatter) FormatBench(s *bench.Summary) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Summary"))
	fmt.Fprintf(f.writer, "  Requests:  %d in %s (%.1f/s)\n", s.TotalRequests, s.Duration.Round(time.Millisecond), s.RPS)
	fmt.Fprintf(f.writer, "  Succeeded: %s\n", green(fmt.Sprintf("%d (%.1f%%)", s.SuccessCount, s.SuccessRate*100)))
	if s.ErrorCount > 0 {
		fmt.Fprintf(f.writer, "  Failed:    %s\n", red(fmt.Sprintf("%d (%.1f%%)", s.ErrorCount, s.ErrorRate*100)))
	}
	if s.TimeoutCount > 0 {
		fmt.Fprintf(f.writer, "  Timeouts:  %s\n", yellow(fmt.Sprintf("%d", s.TimeoutCount)))
	}

	if s.SuccessCount > 0 {
		fmt.Fprintf(f.writer, "\n%s\n\n", bold("Latency"))
		fmt.Fprintf(f.writer, "  min %s  mean %s  max %s\n", s.Min, s.Mean, s.Max)
		fmt.Fprintf(f.writer, "  p50 %s  p95 %s  p99 %s\n", s.P50, s.P95, s.P99)
	}

	if len(s.StatusCodes) > 0 {
		fmt.Fprintf(f.writer, "\n%s\n\n", bold("Status codes"))
		codes := make([]int, 0, len(s.StatusCodes))
		for code := range s.StatusCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			fmt.Fprintf(f.writer, "  %s  %d\n", statusColor(code).Sprint(code), s.StatusCodes[code])
		}
	}

	if len(s.Errors) > 0 {
		fmt.Fprintf(f.writer, "\n%s\n\n", bold("Errors"))
		for _, e := range s.Errors {
			fmt.Fprintf(f.writer, "  %s  %d\n", red(formatValue(e.Message, 100)), e.Count)
		}
	}
	fmt.Fprintln(f.writer)
}

func (f *ConsoleFormatter) FormatHistory(entries []*history.Entry) {
	red := color.New(color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if len(entries) == 0 {
		fmt.Fprintln(f.writer, dim("no requests recorded"))
		return
	}

	for _, e := range entries {
		status := red("ERR")
		if !e.Failed() {
			status = statusColor(e.Status).Sprint(e.Status)
		}
		fmt.Fprintf(f.writer, "%s  %-7s %s %s %s\n",
			dim(e.CreatedAt.Local().Format("2006-01-02 15:04:05")),
			e.Method,
			status,
			e.URL,
			dim(fmt.Sprintf("(%dms)", e.DurationMs)))
		if e.Failed() && f.verbose {
			fmt.Fprintf(f.writer, "    %s\n", red(e.Error))
		}
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("hitreq"), version)
}
