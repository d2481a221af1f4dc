package bench

import (
	"errors"
	"time"
)

// Config controls a bench run.
type Config struct {
	// Requests is the number of calls to issue. Zero with a Duration set
	// means run until the duration elapses.
	Requests int
	// Duration bounds the run in wall time.
	Duration time.Duration
	// Concurrency is the number of workers issuing calls.
	Concurrency int
	// Rate caps calls per second across all workers. Zero means unpaced.
	Rate float64
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Requests:    100,
		Concurrency: 1,
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Requests < 0 {
		return errors.New("requests must not be negative")
	}
	if c.Duration < 0 {
		return errors.New("duration must not be negative")
	}
	if c.Requests == 0 && c.Duration == 0 {
		return errors.New("either requests or duration must be set")
	}
	if c.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}
	if c.Rate < 0 {
		return errors.New("rate must not be negative")
	}
	return nil
}
