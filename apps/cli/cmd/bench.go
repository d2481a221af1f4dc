package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitreq/packages/bench"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

type benchFlags struct {
	requestFlags
	method      string
	requests    int
	duration    time.Duration
	concurrency int
	rate        float64
}

func newBenchCmd(a *app) *cobra.Command {
	f := &benchFlags{}

	cmd := &cobra.Command{
		Use:   "bench <url>",
		Short: "Repeat a request and report latency percentiles",
		Long: `Issue the same request many times and report latency percentiles,
status codes and errors. Each call is independent: failures are counted,
never retried.

Examples:
  hitreq bench https://api.example.com/health -n 500 -c 10
  hitreq bench https://api.example.com/health --duration 30s --rate 50
  hitreq bench https://api.example.com/items -X POST --json-body '{"a":1}'`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBench(cmd, args[0], f)
		},
	}

	f.register(cmd)
	fs := cmd.Flags()
	fs.StringVarP(&f.method, "method", "X", "GET", "Request method")
	fs.IntVarP(&f.requests, "requests", "n", 100, "Number of requests (0 with --duration runs until it elapses)")
	fs.DurationVar(&f.duration, "duration", 0, "Stop after this long")
	fs.IntVarP(&f.concurrency, "concurrency", "c", 1, "Concurrent workers")
	fs.Float64VarP(&f.rate, "rate", "r", 0, "Requests per second across all workers (0 = unpaced)")
	return cmd
}

func (a *app) runBench(cmd *cobra.Command, uri string, f *benchFlags) error {
	method, err := http.ParseMethod(f.method)
	if err != nil {
		return withExit(ExitUsageError, err)
	}

	cfg := &bench.Config{
		Requests:    f.requests,
		Duration:    f.duration,
		Concurrency: f.concurrency,
		Rate:        f.rate,
	}
	if err := cfg.Validate(); err != nil {
		return withExit(ExitUsageError, err)
	}

	opts, body, err := f.options(uri)
	if err != nil {
		return err
	}
	// A file body is read once and replayed.
	if b, ok := body.([]byte); ok {
		body = string(b)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	runner := bench.NewRunner(a.newClient(&f.requestFlags), cfg,
		bench.WithLogger(a.logger),
		bench.WithObserver(func(s bench.Sample) {
			if s.Err != nil {
				a.logger.Debug("bench call failed", "iteration", s.Iteration, "error", s.Err)
			}
		}))

	summary, err := runner.Run(ctx, bench.Request{Method: method, Target: opts, Body: body})
	if err != nil {
		return withExit(ExitConfigError, err)
	}

	a.formatter.FormatBench(summary)
	if summary.ErrorCount > 0 {
		return withExit(ExitRequestFailure, fmt.Errorf("%d of %d requests failed", summary.ErrorCount, summary.TotalRequests))
	}
	return nil
}
