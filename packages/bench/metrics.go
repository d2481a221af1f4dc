package bench

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Metrics collects and aggregates bench results
type Metrics struct {
	mu sync.Mutex

	totalRequests   atomic.Int64
	successRequests atomic.Int64
	errorRequests   atomic.Int64
	timeoutRequests atomic.Int64

	// Latency histogram (in microseconds for precision)
	histogram *hdrhistogram.Histogram

	statusCodes map[int]int64
	errors      map[string]int64

	startTime time.Time
	endTime   time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		// Histogram: 1us to 60s range, 3 significant digits
		histogram:   hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
		statusCodes: make(map[int]int64),
		errors:      make(map[string]int64),
	}
}

// Start marks the beginning of the run
func (m *Metrics) Start() {
	m.startTime = time.Now()
}

// Stop marks the end of the run
func (m *Metrics) Stop() {
	m.endTime = time.Now()
}

// Record records a completed round trip. Any status counts as success; a
// non-nil err counts as an error and its text is tallied.
func (m *Metrics) Record(duration time.Duration, status int, err error) {
	m.totalRequests.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.errorRequests.Add(1)
		m.errors[err.Error()]++
		return
	}

	m.successRequests.Add(1)
	m.statusCodes[status]++
	_ = m.histogram.RecordValue(clampLatency(duration))
}

// RecordTimeout records a call that hit its timeout.
func (m *Metrics) RecordTimeout() {
	m.totalRequests.Add(1)
	m.timeoutRequests.Add(1)
	m.errorRequests.Add(1)
}

func clampLatency(d time.Duration) int64 {
	us := d.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}
	return us
}

// Summary is the final result of a run.
type Summary struct {
	Duration      time.Duration
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64
	TimeoutCount  int64

	RPS         float64
	SuccessRate float64
	ErrorRate   float64

	// Latency of successful calls
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration

	StatusCodes map[int]int64
	Errors      []ErrorCount
}

// ErrorCount is how often one error message was seen.
type ErrorCount struct {
	Message string
	Count   int64
}

// GetSummary returns the metrics summary
func (m *Metrics) GetSummary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.endTime.Sub(m.startTime)
	if m.endTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	total := m.totalRequests.Load()
	success := m.successRequests.Load()
	errCount := m.errorRequests.Load()

	rps := float64(0)
	if duration.Seconds() > 0 {
		rps = float64(total) / duration.Seconds()
	}

	successRate := float64(0)
	errorRate := float64(0)
	if total > 0 {
		successRate = float64(success) / float64(total)
		errorRate = float64(errCount) / float64(total)
	}

	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }

	summary := &Summary{
		Duration:      duration,
		TotalRequests: total,
		SuccessCount:  success,
		ErrorCount:    errCount,
		TimeoutCount:  m.timeoutRequests.Load(),
		RPS:           rps,
		SuccessRate:   successRate,
		ErrorRate:     errorRate,
		P50:           us(m.histogram.ValueAtQuantile(50)),
		P95:           us(m.histogram.ValueAtQuantile(95)),
		P99:           us(m.histogram.ValueAtQuantile(99)),
		Min:           us(m.histogram.Min()),
		Max:           us(m.histogram.Max()),
		Mean:          us(int64(m.histogram.Mean())),
		StdDev:        us(int64(m.histogram.StdDev())),
		StatusCodes:   make(map[int]int64, len(m.statusCodes)),
	}

	for code, n := range m.statusCodes {
		summary.StatusCodes[code] = n
	}
	for msg, n := range m.errors {
		summary.Errors = append(summary.Errors, ErrorCount{Message: msg, Count: n})
	}
	sort.Slice(summary.Errors, func(i, j int) bool {
		if summary.Errors[i].Count != summary.Errors[j].Count {
			return summary.Errors[i].Count > summary.Errors[j].Count
		}
		return summary.Errors[i].Message < summary.Errors[j].Message
	})

	return summary
}
