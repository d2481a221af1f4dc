package inspect

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

// Source tells where an expression reads from.
type Source int

const (
	SourceBody Source = iota
	SourceHeader
	SourceStatus
	SourceDuration
)

// Expression is a parsed Extract expression.
type Expression struct {
	Source Source
	Path   string
}

// ParseExpression splits expr into its source and path.
func ParseExpression(expr string) Expression {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "status":
		return Expression{Source: SourceStatus}
	case expr == "duration":
		return Expression{Source: SourceDuration}
	case strings.HasPrefix(expr, "header:"):
		return Expression{Source: SourceHeader, Path: strings.TrimPrefix(expr, "header:")}
	case expr == "body":
		return Expression{Source: SourceBody}
	default:
		return Expression{Source: SourceBody, Path: strings.TrimPrefix(expr, "body.")}
	}
}

type Extractor struct {
	result   *http.Result
	bodyJSON gjson.Result
	isJSON   bool
}

func NewExtractor(result *http.Result) *Extractor {
	e := &Extractor{
		result: result,
	}
	if gjson.Valid(result.Data) {
		e.bodyJSON = gjson.Parse(result.Data)
		e.isJSON = true
	}
	return e
}

func (e *Extractor) Extract(expr Expression) (any, bool) {
	switch expr.Source {
	case SourceBody:
		return e.extractFromBody(expr.Path)
	case SourceHeader:
		return e.extractFromHeader(expr.Path)
	case SourceStatus:
		if e.result.Response == nil {
			return nil, false
		}
		return e.result.Response.StatusCode, true
	case SourceDuration:
		if e.result.Response == nil {
			return nil, false
		}
		return e.result.Response.DurationMs(), true
	default:
		return nil, false
	}
}

func (e *Extractor) extractFromBody(path string) (any, bool) {
	if !e.isJSON {
		if path == "" {
			return e.result.Data, true
		}
		return nil, false
	}

	if path == "" {
		return e.bodyJSON.Value(), true
	}

	value := e.bodyJSON.Get(path)
	if !value.Exists() {
		return nil, false
	}
	return value.Value(), true
}

func (e *Extractor) extractFromHeader(name string) (any, bool) {
	if e.result.Response == nil {
		return nil, false
	}
	value := e.result.Response.Header(name)
	if value == "" {
		return nil, false
	}
	return value, true
}

// Query evaluates expr against result.
func Query(result *http.Result, expr string) (any, error) {
	value, ok := NewExtractor(result).Extract(ParseExpression(expr))
	if !ok {
		return nil, fmt.Errorf("no value at %q", expr)
	}
	return value, nil
}

// QueryAll evaluates every named expression and keeps those that resolve.
func QueryAll(result *http.Result, exprs map[string]string) map[string]any {
	extractor := NewExtractor(result)
	results := make(map[string]any)

	for name, expr := range exprs {
		if value, ok := extractor.Extract(ParseExpression(expr)); ok {
			results[name] = value
		}
	}

	return results
}
