package bench

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/stub"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"default", func(*Config) {}, ""},
		{"duration only", func(c *Config) { c.Requests = 0; c.Duration = time.Second }, ""},
		{"negative requests", func(c *Config) { c.Requests = -1 }, "requests must not be negative"},
		{"nothing to do", func(c *Config) { c.Requests = 0 }, "either requests or duration must be set"},
		{"no workers", func(c *Config) { c.Concurrency = 0 }, "concurrency must be at least 1"},
		{"negative rate", func(c *Config) { c.Rate = -2 }, "rate must not be negative"},
		{"negative duration", func(c *Config) { c.Duration = -time.Second }, "duration must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMetricsSummary(t *testing.T) {
	m := NewMetrics()
	m.Start()

	for i := 0; i < 100; i++ {
		m.Record(time.Duration(i+1)*time.Millisecond, 200, nil)
	}
	m.Record(time.Millisecond, 0, errors.New("connection refused"))
	m.Record(time.Millisecond, 0, errors.New("connection refused"))
	m.Record(time.Millisecond, 0, errors.New("EOF"))
	m.RecordTimeout()

	m.Stop()

	summary := m.GetSummary()
	assert.Equal(t, int64(104), summary.TotalRequests)
	assert.Equal(t, int64(100), summary.SuccessCount)
	assert.Equal(t, int64(4), summary.ErrorCount)
	assert.Equal(t, int64(1), summary.TimeoutCount)
	assert.Equal(t, map[int]int64{200: 100}, summary.StatusCodes)
	assert.Equal(t, []ErrorCount{
		{Message: "connection refused", Count: 2},
		{Message: "EOF", Count: 1},
	}, summary.Errors)

	assert.InDelta(t, 50*time.Millisecond, summary.P50, float64(time.Millisecond))
	assert.InDelta(t, 99*time.Millisecond, summary.P99, float64(time.Millisecond))
	assert.True(t, summary.Min <= summary.P50)
	assert.True(t, summary.P50 <= summary.P95)
	assert.True(t, summary.P95 <= summary.Max)
	assert.True(t, summary.RPS > 0)
}

func TestMetrics_ClampsLatency(t *testing.T) {
	assert.Equal(t, int64(minLatencyUs), clampLatency(0))
	assert.Equal(t, int64(maxLatencyUs), clampLatency(time.Hour))
	assert.Equal(t, int64(1500), clampLatency(1500*time.Microsecond))
}

func newStub(t *testing.T) (*stub.Server, *httptest.Server) {
	t.Helper()
	s := stub.NewServer()
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

func TestRunner_Requests(t *testing.T) {
	s, ts := newStub(t)
	s.On("POST", "/bench").Reply(201, "ok")

	cfg := &Config{Requests: 25, Concurrency: 4}

	var mu sync.Mutex
	seen := make(map[int]bool)
	runner := NewRunner(http.NewClient(), cfg, WithObserver(func(sm Sample) {
		mu.Lock()
		seen[sm.Iteration] = true
		mu.Unlock()
	}))

	summary, err := runner.Run(context.Background(), Request{
		Method: http.MethodPost,
		Target: http.URL(ts.URL + "/bench"),
		Body:   "payload",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(25), summary.TotalRequests)
	assert.Equal(t, int64(25), summary.SuccessCount)
	assert.Equal(t, map[int]int64{201: 25}, summary.StatusCodes)
	assert.Len(t, seen, 25)
	assert.Len(t, s.Received(), 25)
	for _, rec := range s.Received() {
		assert.Equal(t, "payload", rec.Body)
	}
}

func TestRunner_CountsFailuresAndTimeouts(t *testing.T) {
	s, ts := newStub(t)
	s.On("GET", "/drop").Drop()
	s.On("GET", "/slow").Delay(time.Second).Reply(200, "late")

	client := http.NewClient(http.WithTimeout(20 * time.Millisecond))

	summary, err := NewRunner(client, &Config{Requests: 3, Concurrency: 1}).Run(context.Background(), Request{
		Method: http.MethodGet,
		Target: http.URL(ts.URL + "/drop"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.ErrorCount)
	assert.Equal(t, int64(0), summary.TimeoutCount)
	assert.NotEmpty(t, summary.Errors)

	summary, err = NewRunner(client, &Config{Requests: 2, Concurrency: 2}).Run(context.Background(), Request{
		Method: http.MethodGet,
		Target: http.URL(ts.URL + "/slow"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TimeoutCount)
	assert.Equal(t, int64(2), summary.ErrorCount)
	assert.Equal(t, int64(0), summary.SuccessCount)
}

func TestRunner_RateLimited(t *testing.T) {
	s, ts := newStub(t)
	s.On("GET", "/").Reply(200, "")

	cfg := &Config{Requests: 5, Concurrency: 5, Rate: 50}
	start := time.Now()
	summary, err := NewRunner(http.NewClient(), cfg).Run(context.Background(), Request{
		Method: http.MethodGet,
		Target: http.URL(ts.URL),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5), summary.SuccessCount)
	// burst of one at 50/s puts the fifth call at least 80ms in
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

func TestRunner_Duration(t *testing.T) {
	s, ts := newStub(t)
	s.On("GET", "/").Reply(200, "")

	cfg := &Config{Duration: 100 * time.Millisecond, Concurrency: 1, Rate: 100}
	summary, err := NewRunner(http.NewClient(), cfg).Run(context.Background(), Request{
		Method: http.MethodGet,
		Target: http.URL(ts.URL),
	})
	require.NoError(t, err)

	assert.Greater(t, summary.TotalRequests, int64(0))
	assert.Equal(t, int64(0), summary.ErrorCount)
}

func TestRunner_ConfigurationError(t *testing.T) {
	_, err := NewRunner(http.NewClient(), DefaultConfig()).Run(context.Background(), Request{
		Method: http.MethodGet,
		Target: http.URL("ftp://example.test"),
	})
	require.Error(t, err)
	assert.True(t, http.IsConfigurationError(err))

	_, err = NewRunner(http.NewClient(), &Config{}).Run(context.Background(), Request{
		Method: http.MethodGet,
		Target: http.URL("http://example.test"),
	})
	assert.Error(t, err)
}
