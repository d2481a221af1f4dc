// Package bench issues the same request repeatedly and reports latency
// percentiles. Every iteration is an independent single-shot call: there
// are no retries and a failed call is only counted.
package bench
