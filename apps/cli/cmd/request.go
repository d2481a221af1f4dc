package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitreq/packages/history"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/inspect"
	"github.com/abdul-hamid-achik/hitreq/packages/output"
)

// requestFlags are the flags shared by every command that issues requests.
type requestFlags struct {
	headers   []string
	query     []string
	form      []string
	data      string
	jsonBody  string
	parseJSON bool
	timeout   time.Duration
	insecure  bool
	proxy     string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringArrayVarP(&f.headers, "header", "H", nil, "Request header as 'Name: value' (repeatable)")
	fs.StringArrayVarP(&f.query, "query", "q", nil, "Query parameter as key=value (repeatable)")
	fs.StringArrayVarP(&f.form, "form", "f", nil, "Form field as key=value, sent url-encoded (repeatable)")
	fs.StringVarP(&f.data, "data", "d", "", "Raw request body, or @file to read it from a file")
	fs.StringVar(&f.jsonBody, "json-body", "", "JSON request body")
	fs.BoolVar(&f.parseJSON, "parse-json", false, "Decode the response body as JSON and fail if it is not")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "Round-trip timeout (e.g. 1500ms, 5s); 0 uses the config")
	fs.BoolVarP(&f.insecure, "insecure", "k", false, "Skip TLS certificate verification")
	fs.StringVar(&f.proxy, "proxy", "", "Proxy URL")
}

// splitPair splits "key<sep>value" and trims surrounding space.
func splitPair(s, sep, what string) (string, string, error) {
	k, v, ok := strings.Cut(s, sep)
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", "", usageErrorf("invalid %s %q: expected key%svalue", what, s, sep)
	}
	return k, strings.TrimSpace(v), nil
}

func pairs(values []string, sep, what string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for _, s := range values {
		k, v, err := splitPair(s, sep, what)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// options turns the flags into request options and an optional body.
func (f *requestFlags) options(uri string) (*http.RequestOptions, any, error) {
	set := 0
	for _, given := range []bool{f.data != "", f.jsonBody != "", len(f.form) > 0} {
		if given {
			set++
		}
	}
	if set > 1 {
		return nil, nil, usageErrorf("--data, --json-body and --form are mutually exclusive")
	}

	opts := &http.RequestOptions{
		URI:       uri,
		ParseJSON: f.parseJSON,
		Timeout:   f.timeout,
	}

	var err error
	if opts.Headers, err = pairs(f.headers, ":", "header"); err != nil {
		return nil, nil, err
	}
	if opts.Query, err = pairs(f.query, "=", "query parameter"); err != nil {
		return nil, nil, err
	}
	if opts.Form, err = pairs(f.form, "=", "form field"); err != nil {
		return nil, nil, err
	}
	if f.jsonBody != "" {
		opts.JSONBody = json.RawMessage(f.jsonBody)
	}

	var body any
	if f.data != "" {
		body = f.data
		if path, ok := strings.CutPrefix(f.data, "@"); ok {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, nil, withExit(ExitConfigError, fmt.Errorf("failed to read body file: %w", err))
			}
			body = data
		}
	}
	return opts, body, nil
}

func (a *app) newClient(f *requestFlags) *http.Client {
	opts := a.cfg.ClientOptions()
	if f.insecure {
		opts = append(opts, http.WithValidateSSL(false))
	}
	if f.proxy != "" {
		opts = append(opts, http.WithProxy(f.proxy))
	}
	opts = append(opts, http.WithLogger(a.logger))
	return http.NewClient(opts...)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

type verbFlags struct {
	requestFlags
	path    string
	schema  string
	history string
	fail    bool
}

func newVerbCmds(a *app) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(http.Methods))
	for _, m := range http.Methods {
		cmds = append(cmds, newVerbCmd(a, m))
	}
	return cmds
}

func newVerbCmd(a *app, method http.Method) *cobra.Command {
	f := &verbFlags{}
	name := strings.ToLower(method.String())

	cmd := &cobra.Command{
		Use:   name + " <url>",
		Short: fmt.Sprintf("Send a %s request", method),
		Long: fmt.Sprintf(`Send one %s request and print the response.

Examples:
  hitreq %[2]s https://api.example.com/users
  hitreq %[2]s https://api.example.com/users -H 'Authorization: Bearer x' -q page=2
  hitreq %[2]s https://api.example.com/users --json-body '{"name":"ann"}' --parse-json
  hitreq %[2]s https://api.example.com/users --path 'items.0.id' --fail`, method, name),
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRequest(cmd, method, args[0], f)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&f.path, "path", "", "Print only the value at this gjson path (or status, duration, header:<name>)")
	cmd.Flags().StringVar(&f.schema, "schema", "", "Validate the response body against a JSON Schema file")
	cmd.Flags().StringVar(&f.history, "history", "", "Record the request in this history database (overrides config)")
	cmd.Flags().BoolVar(&f.fail, "fail", false, "Exit with code 1 on a non-2xx status")
	return cmd
}

func (a *app) runRequest(cmd *cobra.Command, method http.Method, uri string, f *verbFlags) error {
	opts, body, err := f.options(uri)
	if err != nil {
		return err
	}

	client := a.newClient(&f.requestFlags)
	d, err := client.Resolve(method, opts, body)
	if err != nil {
		return withExit(ExitConfigError, err)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	result, err := client.Execute(ctx, d)
	a.record(ctx, f.history, d, result, err)

	call := &output.Call{
		Method: d.Method.String(),
		URL:    d.URL.Redacted(),
		Result: result,
		Err:    err,
	}
	if err != nil {
		a.formatter.FormatCall(call)
		return &exitError{code: callExitCode(err), err: err, reported: true}
	}

	if f.path != "" {
		value, err := inspect.Query(result, f.path)
		if err != nil {
			return withExit(ExitRequestFailure, err)
		}
		call.Query = f.path
		call.Value = value
	}
	a.formatter.FormatCall(call)

	if f.schema != "" {
		if err := inspect.ValidateSchema(result.Data, f.schema); err != nil {
			var schemaErr *inspect.SchemaError
			if errors.As(err, &schemaErr) {
				return withExit(ExitRequestFailure, err)
			}
			return withExit(ExitConfigError, err)
		}
	}

	if f.fail && !result.Response.IsSuccess() {
		return withExit(ExitRequestFailure, fmt.Errorf("request failed with status %s", result.Response.Status))
	}
	return nil
}

// record logs the call to the history database when one is configured.
// History problems never fail the request.
func (a *app) record(ctx context.Context, conn string, d *http.Descriptor, result *http.Result, callErr error) {
	if conn == "" {
		conn = a.cfg.History
	}
	if conn == "" {
		return
	}

	store, err := history.Open(conn)
	if err != nil {
		a.logger.Warn("history unavailable", "error", err)
		return
	}
	defer store.Close()

	entry := &history.Entry{
		Method: d.Method.String(),
		URL:    d.URL.Redacted(),
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	} else {
		entry.RequestID = result.RequestID
		entry.Status = result.Response.StatusCode
		entry.DurationMs = result.Response.DurationMs()
		entry.Bytes = len(result.Data)
	}

	// The call context may already be cancelled.
	if err := store.Record(context.WithoutCancel(ctx), entry); err != nil {
		a.logger.Warn("failed to record request", "error", err)
	}
}
