package bench

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

// Request is the call repeated by a run. Body is resolved afresh for every
// iteration, so it should be a value that can be encoded repeatedly (a
// string, []byte or JSON-encodable value rather than an io.Reader).
type Request struct {
	Method http.Method
	Target http.Target
	Body   any
}

// Sample is the outcome of a single iteration.
type Sample struct {
	Iteration int
	Result    *http.Result
	Err       error
	Latency   time.Duration
}

// Runner drives a bench run.
type Runner struct {
	client   *http.Client
	config   *Config
	metrics  *Metrics
	limiter  *rate.Limiter
	logger   *slog.Logger
	observer func(Sample)
}

type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver sets a function called after every iteration. It may be
// called from several workers at once.
func WithObserver(fn func(Sample)) Option {
	return func(r *Runner) {
		r.observer = fn
	}
}

func NewRunner(client *http.Client, config *Config, opts ...Option) *Runner {
	r := &Runner{
		client:  client,
		config:  config,
		metrics: NewMetrics(),
		logger:  slog.New(slog.DiscardHandler),
	}

	if config.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(config.Rate), 1)
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run issues req until the configured count or duration is reached, or ctx
// is done, and returns the summary of what completed.
func (r *Runner) Run(ctx context.Context, req Request) (*Summary, error) {
	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	// Surface configuration errors once instead of once per iteration.
	if _, err := http.Resolve(req.Method, req.Target, req.Body); err != nil {
		return nil, err
	}

	if r.config.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Duration)
		defer cancel()
	}

	r.logger.Info("bench started",
		"method", req.Method.String(),
		"requests", r.config.Requests,
		"duration", r.config.Duration,
		"concurrency", r.config.Concurrency,
		"rate", r.config.Rate)

	var next atomic.Int64
	var wg sync.WaitGroup

	r.metrics.Start()
	for w := 0; w < r.config.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1))
				if r.config.Requests > 0 && i > r.config.Requests {
					return
				}
				if ctx.Err() != nil {
					return
				}
				if r.limiter != nil {
					if err := r.limiter.Wait(ctx); err != nil {
						return
					}
				}
				r.iterate(ctx, i, req)
			}
		}()
	}
	wg.Wait()
	r.metrics.Stop()

	summary := r.metrics.GetSummary()
	r.logger.Info("bench finished",
		"total", summary.TotalRequests,
		"errors", summary.ErrorCount,
		"timeouts", summary.TimeoutCount,
		"p50", summary.P50,
		"p99", summary.P99)
	return summary, nil
}

func (r *Runner) iterate(ctx context.Context, i int, req Request) {
	start := time.Now()
	result, err := r.client.Do(ctx, req.Method, req.Target, req.Body)
	latency := time.Since(start)

	// A run that ends mid-call is not a failure of the endpoint.
	if err != nil && ctx.Err() != nil && !http.IsTimeout(err) {
		return
	}

	switch {
	case http.IsTimeout(err):
		r.metrics.RecordTimeout()
	case err != nil:
		r.metrics.Record(latency, 0, err)
	default:
		r.metrics.Record(latency, result.Response.StatusCode, nil)
	}

	if r.observer != nil {
		r.observer(Sample{Iteration: i, Result: result, Err: err, Latency: latency})
	}
}

// Metrics returns the live metrics of the run.
func (r *Runner) Metrics() *Metrics {
	return r.metrics
}
