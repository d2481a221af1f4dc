package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/abdul-hamid-achik/hitreq/packages/bench"
	"github.com/abdul-hamid-achik/hitreq/packages/history"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

// Call is one issued request and its outcome. Exactly one of Result and Err
// is set.
type Call struct {
	Method string
	URL    string
	Result *http.Result
	Err    error
	// Query is the expression that produced Value, if any.
	Query string
	Value any
}

// Formatter renders hitreq output.
type Formatter interface {
	FormatCall(call *Call)
	FormatBench(summary *bench.Summary)
	FormatHistory(entries []*history.Entry)
	FormatError(err error)
}

// Format names an output format.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatConsole:
		return FormatConsole, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (use console or json)", s)
}

// New returns the formatter for format writing to w.
func New(format Format, w io.Writer, verbose, noColor bool) Formatter {
	if format == FormatJSON {
		return NewJSONFormatter(JSONWithWriter(w))
	}
	return NewConsoleFormatter(WithWriter(w), WithVerbose(verbose), WithNoColor(noColor))
}
